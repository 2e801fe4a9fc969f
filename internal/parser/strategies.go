// Strategy matchers. Each matcher is a pure function from response text to
// candidate triples; acceptance, filtering, and dedup live in parser.go.
package parser

import (
	"regexp"
	"strings"
)

// Candidate is a raw ticker/company/cap triple proposed by one strategy.
// Fields are unvalidated substrings; Cap is the numeric part in billions.
type Candidate struct {
	Ticker  string
	Company string
	Cap     string
}

// Strategy locates one structural variant of a stock mention in prose.
type Strategy struct {
	Name  string
	Match func(text string) []Candidate
}

// DefaultStrategies returns the extraction cascade in priority order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "ticker_paren_company", Match: matchTickerParenCompany},
		{Name: "company_paren_ticker", Match: matchCompanyParenTicker},
		{Name: "loose_line", Match: matchLooseLine},
	}
}

var (
	// "XYZ (Example Corp) ... $1.5 billion"
	tickerParenCompanyRe = regexp.MustCompile(
		`\b([A-Z]{1,5})\b\s*\(([^()]+)\)[^$]{0,200}\$\s*(\d+(?:\.\d+)?)\s*[Bb]illion`)

	// "Example Corp (XYZ) ... $1.5 billion"
	companyParenTickerRe = regexp.MustCompile(
		`([A-Z][A-Za-z0-9&.,' -]{0,70}?)\s*\(([A-Z]{1,5})\)[^$]{0,200}\$\s*(\d+(?:\.\d+)?)\s*[Bb]illion`)

	looseTickerRe = regexp.MustCompile(`\b[A-Z]{2,5}\b`)
	looseCapRe    = regexp.MustCompile(`\$\s*(\d+(?:\.\d+)?)\s*[Bb]illion`)
)

func matchTickerParenCompany(text string) []Candidate {
	var out []Candidate
	for _, m := range tickerParenCompanyRe.FindAllStringSubmatch(text, -1) {
		out = append(out, Candidate{Ticker: m[1], Company: m[2], Cap: m[3]})
	}
	return out
}

func matchCompanyParenTicker(text string) []Candidate {
	var out []Candidate
	for _, m := range companyParenTickerRe.FindAllStringSubmatch(text, -1) {
		out = append(out, Candidate{Ticker: m[2], Company: m[1], Cap: m[3]})
	}
	return out
}

// matchLooseLine scans line by line for an uppercase token and a dollar
// figure, treating the rest of the line as the company name.
func matchLooseLine(text string) []Candidate {
	var out []Candidate
	for _, line := range strings.Split(text, "\n") {
		capMatch := looseCapRe.FindStringSubmatch(line)
		if capMatch == nil {
			continue
		}
		ticker := looseTickerRe.FindString(line)
		if ticker == "" {
			continue
		}
		company := strings.Replace(line, capMatch[0], "", 1)
		company = strings.Replace(company, ticker, "", 1)
		company = strings.Trim(company, " \t-–:,.")
		if company == "" {
			continue
		}
		out = append(out, Candidate{Ticker: ticker, Company: company, Cap: capMatch[1]})
	}
	return out
}

// scanLine is the low-confidence fallback shape: an uppercase token and a
// dollar figure on the same line, with no usable company text required.
func scanLine(line string) (ticker, mcap string, ok bool) {
	capMatch := looseCapRe.FindStringSubmatch(line)
	if capMatch == nil {
		return "", "", false
	}
	t := looseTickerRe.FindString(line)
	if t == "" {
		return "", "", false
	}
	return t, capMatch[1], true
}
