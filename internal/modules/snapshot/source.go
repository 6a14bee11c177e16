package snapshot

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aristath/scorecard/internal/modules/scoring/domain"
)

// Source loads a complete constituent snapshot
type Source interface {
	Load(ctx context.Context) ([]domain.RawRecord, error)
	// Describe names the source for logs and status endpoints
	Describe() string
}

// ReadCSV parses a CSV document with a header row into RawRecords
func ReadCSV(r io.Reader) ([]domain.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &MissingColumnError{Columns: columnNames[:]}
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV rows: %w", err)
	}

	return ParseTable(header, rows)
}

// FileSource reads a CSV snapshot from the local filesystem
type FileSource struct {
	Path string
}

// NewFileSource creates a source for the CSV file at path
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load reads and parses the file
func (s *FileSource) Load(ctx context.Context) ([]domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("snapshot file %s: %w", s.Path, err)
	}
	return records, nil
}

// Describe returns the file path
func (s *FileSource) Describe() string {
	return "file:" + s.Path
}
