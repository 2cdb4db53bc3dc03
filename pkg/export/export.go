// Package export writes word lists as single-column CSV files.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileName is the fixed name of every exported file.
const FileName = "new_vocabulary.csv"

// WriteCSV writes one row per word, in order. Empty words are skipped.
func WriteCSV(w io.Writer, words []string) error {
	cw := csv.NewWriter(w)
	for _, word := range words {
		if word == "" {
			continue
		}
		if err := cw.Write([]string{word}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads back the first column of every row.
func ReadCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	words := []string{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) == 0 || rec[0] == "" {
			continue
		}
		words = append(words, rec[0])
	}
	return words, nil
}

// Downloader fetches a ready-made CSV export, e.g. from the remote store.
type Downloader interface {
	DownloadCSV(ctx context.Context, w io.Writer) error
}

// Exporter saves CSV files into a directory under FileName.
type Exporter struct {
	dir string
}

// NewExporter creates an exporter writing into dir ("" means the working directory).
func NewExporter(dir string) *Exporter {
	if dir == "" {
		dir = "."
	}
	return &Exporter{dir: dir}
}

// Path is the location Save and Download write to.
func (e *Exporter) Path() string {
	return filepath.Join(e.dir, FileName)
}

// Save writes words to Path. The file is replaced atomically.
func (e *Exporter) Save(words []string) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, words); err != nil {
		return "", fmt.Errorf("encode csv: %w", err)
	}
	return e.write(buf.Bytes())
}

// Download fetches the CSV from d and writes it to Path.
func (e *Exporter) Download(ctx context.Context, d Downloader) (string, error) {
	var buf bytes.Buffer
	if err := d.DownloadCSV(ctx, &buf); err != nil {
		return "", err
	}
	return e.write(buf.Bytes())
}

func (e *Exporter) write(data []byte) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(e.dir, ".new_vocabulary-*.csv")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close csv: %w", err)
	}
	path := e.Path()
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename csv: %w", err)
	}
	return path, nil
}
