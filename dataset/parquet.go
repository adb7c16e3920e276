// Package dataset provides access to stored clinical datasets in Parquet
// form, for both execution backends.
//
// Rows are read into maps via parquet-go for the row engine; the columnar
// engine reads the same file into an Arrow table without materializing
// rows. Schema inspection maps the file's Parquet types onto the dashboard
// type set consumed by the validate package.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/parquet-go/parquet-go"
)

// Reader reads a Parquet dataset and returns rows as maps.
//
// It maintains both an OS file handle and a parquet file handle to enable
// proper resource cleanup.
type Reader struct {
	file   *os.File
	pqFile *parquet.File
}

// NewReader opens a dataset file and validates it as Parquet. The caller
// must Close the reader. A missing file is reported with fs.ErrNotExist
// preserved in the chain so executors can distinguish "dataset not found"
// from a corrupt file.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pqFile, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	return &Reader{
		file:   f,
		pqFile: pqFile,
	}, nil
}

// ReadAll reads all rows into memory. Each row is a map from column name
// to value. The entire file is loaded, so this path suits the row engine's
// in-memory evaluation, not streaming.
func (r *Reader) ReadAll() ([]map[string]interface{}, error) {
	rows := make([]map[string]interface{}, 0)

	reader := parquet.NewReader(r.pqFile)
	defer func() { _ = reader.Close() }()

	for {
		row := make(map[string]interface{})
		err := reader.Read(&row)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// Schema returns the parquet file schema.
func (r *Reader) Schema() *parquet.Schema {
	return r.pqFile.Schema()
}

// Close closes the reader. Safe to call multiple times.
func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// ReadRows reads every row of a single dataset file into memory.
func ReadRows(path string) ([]map[string]interface{}, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	return r.ReadAll()
}

// maxGlobFiles bounds multi-file reads to prevent resource exhaustion
const maxGlobFiles = 1000

// ReadRowsGlob reads all rows from every dataset file matching a glob
// pattern. Each row is tagged with a "_file" column naming its source
// file. A pattern without wildcards reads the single file untagged.
func ReadRowsGlob(pattern string) ([]map[string]interface{}, error) {
	if !strings.ContainsAny(pattern, "*?[]{}") {
		return ReadRows(pattern)
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match pattern: %s", pattern)
	}
	if len(matches) > maxGlobFiles {
		return nil, fmt.Errorf("glob pattern matched too many files (%d), maximum is %d", len(matches), maxGlobFiles)
	}

	var allRows []map[string]interface{}
	for _, path := range matches {
		rows, err := ReadRows(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		for i := range rows {
			rows[i]["_file"] = path
		}
		allRows = append(allRows, rows...)
	}

	return allRows, nil
}

// ReadTable reads a dataset file into an Arrow table without going through
// row maps. The caller must Release the table.
func ReadTable(ctx context.Context, path string) (arrow.Table, error) {
	rdr, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer func() { _ = rdr.Close() }()

	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	table, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read arrow table: %w", err)
	}

	return table, nil
}
