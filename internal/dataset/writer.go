// Package dataset appends extracted records to the durable CSV store. The
// file is an append log: the header is written exactly once when the file is
// created, rows are only ever added, and nothing deduplicates across runs.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"capscout/internal/record"
)

// Header is the fixed four-column layout of the dataset file.
var Header = []string{"Ticker", "Company Name", "Market Cap", "Extracted At"}

// Writer appends stock records to a CSV file at a fixed path.
type Writer struct {
	path string
}

// NewWriter returns a writer targeting path. The file is created lazily on
// the first Append.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the dataset file location.
func (w *Writer) Path() string {
	return w.path
}

// Exists reports whether the dataset file has been created, and its
// last-modified time when it has.
func (w *Writer) Exists() (bool, time.Time) {
	info, err := os.Stat(w.path)
	if err != nil {
		return false, time.Time{}
	}
	return true, info.ModTime()
}

// Append writes one row per record. Not transactional: a crash mid-batch
// can leave a partial batch behind.
func (w *Writer) Append(records []record.StockRecord) error {
	if len(records) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("create dataset directory: %w", err)
	}

	_, statErr := os.Stat(w.path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if writeHeader {
		if err := cw.Write(Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, r := range records {
		row := []string{r.Ticker, r.Company, r.MarketCap, r.ExtractedAt.Format(time.RFC3339)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row for %s: %w", r.Ticker, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush dataset: %w", err)
	}
	return nil
}
