package export

import (
	"encoding/csv"
	"io"

	"housingreview/internal/domain"
)

// BOM lets spreadsheet tools detect UTF-8 Korean text.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes one summary row per review.
type CSVWriter struct {
	csv *csv.Writer
}

// NewCSVWriter creates a CSVWriter writing to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *CSVWriter) WriteHeader() error {
	return w.csv.Write(summaryColumns)
}

// WriteReviews writes a batch of reviews.
func (w *CSVWriter) WriteReviews(reviews []domain.Review) error {
	for i := range reviews {
		if err := w.csv.Write(Summarize(&reviews[i]).row()); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *CSVWriter) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *CSVWriter) Error() error {
	return w.csv.Error()
}

// WriteCSV writes BOM, header and rows in one go.
func WriteCSV(out io.Writer, reviews []domain.Review) error {
	if _, err := out.Write(BOM); err != nil {
		return err
	}
	w := NewCSVWriter(out)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	if err := w.WriteReviews(reviews); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
