package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/V1shhnuu7/FinSentinal-V3/internal/ml"
)

// SampleSummary is the listing view of one dataset row.
type SampleSummary struct {
	ID     int     `json:"id"`
	Ticker string  `json:"ticker,omitempty"`
	Year   string  `json:"year,omitempty"`
	Close  float64 `json:"Close,omitempty"`
	FDI    float64 `json:"fdi,omitempty"`
}

// SampleStore is a read-only view over the training dataset CSV, used to
// serve example inputs for interactive exploration. The file is parsed once
// at construction.
type SampleStore struct {
	header []string
	rows   [][]string
}

// NewSampleStore loads the dataset at csvPath into memory.
func NewSampleStore(csvPath string) (*SampleStore, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("open samples csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse samples csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("samples csv %s is empty", csvPath)
	}

	return &SampleStore{header: records[0], rows: records[1:]}, nil
}

// Len returns the number of sample rows.
func (s *SampleStore) Len() int { return len(s.rows) }

// Row returns one dataset row as a column name to raw cell map. An
// out-of-range index is a NotFoundError.
func (s *SampleStore) Row(idx int) (map[string]string, error) {
	if idx < 0 || idx >= len(s.rows) {
		return nil, &ml.NotFoundError{Name: fmt.Sprintf("sample %d", idx)}
	}
	row := s.rows[idx]
	out := make(map[string]string, len(s.header))
	for i, col := range s.header {
		if i < len(row) {
			out[col] = row[i]
		}
	}
	return out, nil
}

// List returns summaries for up to limit rows, in dataset order. limit <= 0
// means all rows.
func (s *SampleStore) List(limit int) []SampleSummary {
	n := len(s.rows)
	if limit > 0 && limit < n {
		n = limit
	}

	col := make(map[string]int, len(s.header))
	for i, c := range s.header {
		col[c] = i
	}
	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	num := func(row []string, name string) float64 {
		v, err := strconv.ParseFloat(cell(row, name), 64)
		if err != nil {
			return 0
		}
		return v
	}

	out := make([]SampleSummary, 0, n)
	for i := 0; i < n; i++ {
		row := s.rows[i]
		out = append(out, SampleSummary{
			ID:     i,
			Ticker: cell(row, "ticker"),
			Year:   cell(row, "year"),
			Close:  num(row, "Close"),
			FDI:    num(row, "fdi"),
		})
	}
	return out
}
