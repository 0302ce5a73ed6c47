package csvwriter

import (
	"compress/gzip"
	"encoding/csv"
	"os"
)

// GzipWriter writes comma-delimited, gzip-compressed rows for COPY with
// DELIMITER ',' GZIP.
type GzipWriter struct {
	file   *os.File
	gzip   *gzip.Writer
	writer *csv.Writer
}

func NewGzipWriter(fp string) (*GzipWriter, error) {
	file, err := os.Create(fp)
	if err != nil {
		return nil, err
	}

	gzipWriter := gzip.NewWriter(file)
	return &GzipWriter{
		file:   file,
		gzip:   gzipWriter,
		writer: csv.NewWriter(gzipWriter),
	}, nil
}

func (g *GzipWriter) Write(row []string) error {
	return g.writer.Write(row)
}

func (g *GzipWriter) Flush() error {
	g.writer.Flush()
	return g.writer.Error()
}

func (g *GzipWriter) Close() error {
	if err := g.writer.Error(); err != nil {
		// If the csv writer failed, still try to close the gzip writer and file.
		_ = g.gzip.Close()
		_ = g.file.Close()
		return err
	}
	if err := g.gzip.Close(); err != nil {
		_ = g.file.Close()
		return err
	}
	return g.file.Close()
}
