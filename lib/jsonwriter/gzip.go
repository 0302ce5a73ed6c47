package jsonwriter

import (
	"compress/gzip"
	"os"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// GzipWriter writes newline-delimited JSON objects, gzip-compressed, for COPY
// with JSON 'auto' GZIP.
type GzipWriter struct {
	file *os.File
	gzip *gzip.Writer
}

func NewGzipWriter(fp string) (*GzipWriter, error) {
	file, err := os.Create(fp)
	if err != nil {
		return nil, err
	}

	return &GzipWriter{
		file: file,
		gzip: gzip.NewWriter(file),
	}, nil
}

func (g *GzipWriter) Write(object map[string]any) error {
	encoded, err := json.Marshal(object)
	if err != nil {
		return err
	}

	if _, err = g.gzip.Write(encoded); err != nil {
		return err
	}

	_, err = g.gzip.Write([]byte{'\n'})
	return err
}

func (g *GzipWriter) Close() error {
	if err := g.gzip.Close(); err != nil {
		_ = g.file.Close()
		return err
	}
	return g.file.Close()
}
