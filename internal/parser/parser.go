// Package parser turns unstructured answer text into validated stock
// records. Extraction runs an ordered strategy cascade; candidates are
// filtered against the small-cap ceiling and deduplicated per pass, with a
// line-oriented fallback when the cascade comes up short.
package parser

import (
	"fmt"
	"strings"
	"time"

	"capscout/internal/record"
)

const (
	// StrategyPassCap bounds how many records the cascade may accept.
	StrategyPassCap = 15
	// FallbackTrigger activates the line fallback when the cascade
	// accepted fewer records than this.
	FallbackTrigger = 5
	// FallbackCap bounds the total record count once the fallback runs.
	FallbackCap = 10
)

// Parser applies the strategy cascade. The zero value is not usable; call
// New. Now is injectable so a parse is deterministic under test.
type Parser struct {
	Strategies []Strategy
	Now        func() time.Time
}

// New returns a parser with the default cascade and wall-clock timestamps.
func New() *Parser {
	return &Parser{Strategies: DefaultStrategies(), Now: time.Now}
}

// Parse extracts validated records from text. It never fails: matching
// problems yield fewer records, an unmatchable input yields none.
func (p *Parser) Parse(text string) []record.StockRecord {
	now := p.Now()
	seen := make(map[string]bool)

	records := cascade(text, p.Strategies, seen, now)
	if len(records) < FallbackTrigger {
		records = appendLineFallback(text, records, seen, now)
	}
	return records
}

// cascade runs the strategies in priority order, accepting candidates until
// the strategies are exhausted or StrategyPassCap is reached. First-seen
// wins on ticker collisions.
func cascade(text string, strategies []Strategy, seen map[string]bool, now time.Time) []record.StockRecord {
	var out []record.StockRecord
	for _, s := range strategies {
		if len(out) >= StrategyPassCap {
			break
		}
		for _, c := range s.Match(text) {
			if len(out) >= StrategyPassCap {
				break
			}
			rec, ok := accept(c, seen, now)
			if !ok {
				continue
			}
			seen[rec.Ticker] = true
			out = append(out, rec)
		}
	}
	return out
}

// accept validates and normalizes one candidate. Rejections are silent:
// a dropped candidate is simply not a record.
func accept(c Candidate, seen map[string]bool, now time.Time) (record.StockRecord, bool) {
	ticker := record.NormalizeTicker(c.Ticker)
	if !record.ValidTicker(ticker) || seen[ticker] {
		return record.StockRecord{}, false
	}
	mcap, ok := record.ParseCap(c.Cap)
	if !ok {
		return record.StockRecord{}, false
	}
	company := record.NormalizeCompany(c.Company)
	if company == "" {
		return record.StockRecord{}, false
	}
	return record.StockRecord{
		Ticker:      ticker,
		Company:     company,
		MarketCap:   record.FormatCap(mcap),
		ExtractedAt: now,
	}, true
}

// appendLineFallback scans each line for a bare ticker/cap pair and accepts
// records with a placeholder company name, up to FallbackCap in total.
func appendLineFallback(text string, records []record.StockRecord, seen map[string]bool, now time.Time) []record.StockRecord {
	for _, line := range strings.Split(text, "\n") {
		if len(records) >= FallbackCap {
			break
		}
		rawTicker, rawCap, ok := scanLine(line)
		if !ok {
			continue
		}
		ticker := record.NormalizeTicker(rawTicker)
		if !record.ValidTicker(ticker) || seen[ticker] {
			continue
		}
		mcap, ok := record.ParseCap(rawCap)
		if !ok {
			continue
		}
		seen[ticker] = true
		records = append(records, record.StockRecord{
			Ticker:      ticker,
			Company:     fmt.Sprintf("Unknown company %s", ticker),
			MarketCap:   record.FormatCap(mcap),
			ExtractedAt: now,
		})
	}
	return records
}
