// Answer-region extraction. The ordered selector strategies and the generic
// paragraph fallback are kept independent of any live page so resilience to
// upstream markup drift can be tested against static HTML.
package browser

import (
	"strings"

	"golang.org/x/net/html"
)

// TextLookup resolves a CSS selector to the combined text of its matches
// on some rendered document.
type TextLookup func(selector string) (string, error)

// ExtractAnswer tries each selector in priority order and short-circuits on
// the first non-empty result. When every selector misses, the fallback scan
// is consulted. Returns "" when nothing yields text.
func ExtractAnswer(lookup TextLookup, selectors []string, fallback func() (string, error)) string {
	for _, sel := range selectors {
		text, err := lookup(sel)
		if err != nil {
			continue
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return trimmed
		}
	}
	if fallback != nil {
		if text, err := fallback(); err == nil {
			return strings.TrimSpace(text)
		}
	}
	return ""
}

// ScanParagraphs is the generic fallback: parse the page markup and collect
// the text of paragraph-like elements, skipping script and style subtrees.
func ScanParagraphs(src string) (string, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", err
	}

	var parts []string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "p", "li", "blockquote":
				if text := nodeText(n); text != "" {
					parts = append(parts, text)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	return strings.Join(parts, "\n"), nil
}

// nodeText flattens the text content of a node.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
