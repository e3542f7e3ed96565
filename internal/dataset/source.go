package dataset

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Source yields the raw CSV document.
type Source interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// FileSource reads a CSV file from disk. Gzip and zstd files are
// decompressed transparently.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return s.Path }

func (s FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	return decompress(f)
}

// HTTPSource fetches the CSV document over HTTP(S).
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Name() string { return s.URL }

func (s HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return decompress(resp.Body)
}

// TextSource serves an in-memory document. Useful for tests and stdin.
type TextSource struct {
	Label string
	Text  string
}

func (s TextSource) Name() string {
	if s.Label == "" {
		return "inline"
	}
	return s.Label
}

func (s TextSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return decompress(io.NopCloser(strings.NewReader(s.Text)))
}

// NewSource picks a Source for location: http(s) URLs are fetched with
// client, workbooks ("data.xlsx" or "data.xlsx#Sheet") go through
// XLSXSource and anything else is read from disk.
func NewSource(location string, client *http.Client) Source {
	l := strings.ToLower(location)
	if strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://") {
		return HTTPSource{URL: location, Client: client}
	}
	if i := strings.Index(l, ".xlsx#"); i >= 0 {
		return XLSXSource{Path: location[:i+5], Sheet: location[i+6:]}
	}
	if strings.HasSuffix(l, ".xlsx") {
		return XLSXSource{Path: location}
	}
	return FileSource{Path: location}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// decompress sniffs rc and wraps it in a gzip or zstd reader when the
// magic bytes match. Plain input is returned buffered.
func decompress(rc io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(rc)
	head, _ := br.Peek(4)
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return &stackCloser{Reader: zr, closers: []func() error{zr.Close, rc.Close}}, nil
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return &stackCloser{Reader: zr, closers: []func() error{func() error { zr.Close(); return nil }, rc.Close}}, nil
	}
	return &stackCloser{Reader: br, closers: []func() error{rc.Close}}, nil
}

type stackCloser struct {
	io.Reader
	closers []func() error
}

func (s *stackCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
