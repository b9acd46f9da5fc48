package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fentz26/faultdrill/internal/models"
)

// CSVStore keeps the work-order table in a single CSV file. The first row is
// the header; every later row is one work order.
type CSVStore struct {
	path string
}

// NewCSV returns a store backed by the file at path. The file is created on
// first write.
func NewCSV(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the backing file.
func (s *CSVStore) Path() string { return s.path }

// Close is a no-op; every operation opens and closes the file itself.
func (s *CSVStore) Close() error { return nil }

// EnsureSchema writes a canonical header to a missing or empty file and
// rewrites a file with any other header so its columns match Columns.
func (s *CSVStore) EnsureSchema(ctx context.Context) error {
	rows, err := s.readAll()
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(rows) == 0) {
		return s.writeAll([][]string{Columns})
	}
	if err != nil {
		return err
	}
	if sameColumns(rows[0]) {
		return nil
	}

	header := rows[0]
	out := make([][]string, 0, len(rows))
	out = append(out, Columns)
	for _, row := range rows[1:] {
		rec := zip(header, row)
		migrated := make([]string, len(Columns))
		for i, col := range Columns {
			migrated[i] = rec[col]
		}
		out = append(out, migrated)
	}
	if err := s.writeAll(out); err != nil {
		return fmt.Errorf("migrate csv schema: %w", err)
	}
	return nil
}

// Append adds one row after ensuring the schema.
func (s *CSVStore) Append(ctx context.Context, wo models.WorkOrder) error {
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(encode(wo)); err != nil {
		return fmt.Errorf("append work order: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("append work order: %w", err)
	}
	return f.Close()
}

// Update rewrites the first row whose WO_ID equals id. Only cells named in
// fields change; the rest of the row is written back as it was read.
func (s *CSVStore) Update(ctx context.Context, id string, fields Fields) (bool, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return false, err
	}
	rows, err := s.readAll()
	if err != nil {
		return false, err
	}

	idx := make(map[string]int, len(Columns))
	for i, col := range rows[0] {
		idx[col] = i
	}

	found := false
	for r := 1; r < len(rows); r++ {
		row := rows[r]
		for len(row) < len(Columns) {
			row = append(row, "")
		}
		if row[idx[ColID]] != id {
			continue
		}
		for name, value := range fields {
			if i, ok := idx[name]; ok && isColumn(name) {
				row[i] = value
			}
		}
		rows[r] = row
		found = true
		break
	}
	if !found {
		return false, nil
	}
	if err := s.writeAll(rows); err != nil {
		return false, err
	}
	return true, nil
}

// ScanAll returns every row in file order. A missing file yields no rows.
func (s *CSVStore) ScanAll(ctx context.Context) ([]models.WorkOrder, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.readAll()
	if err != nil {
		return nil, err
	}

	orders := make([]models.WorkOrder, 0, len(rows)-1)
	for _, row := range rows[1:] {
		orders = append(orders, decode(zip(rows[0], row)))
	}
	return orders, nil
}

func (s *CSVStore) readAll() ([][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

// writeAll replaces the file through a temporary sibling and a rename.
func (s *CSVStore) writeAll(rows [][]string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create csv directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp csv: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp csv: %w", err)
	}

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace csv: %w", err)
	}
	return nil
}
