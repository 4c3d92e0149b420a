// Package archive turns uploaded log files into raw text, decompressing zip, gzip and zstd inputs.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

// ErrExtraction is returned for corrupt, empty or oversized archives.
var ErrExtraction = errors.New("extraction failed")

// DefaultMaxBytes caps the decompressed size of one input.
const DefaultMaxBytes = 256 << 20

// Format identifies how an input is encoded.
type Format string

const (
	FormatPlain Format = "plain"
	FormatGzip  Format = "gzip"
	FormatZip   Format = "zip"
	FormatZstd  Format = "zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zipMagic  = []byte{'P', 'K', 0x03, 0x04}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Extractor decompresses inputs into text.
type Extractor struct {
	// MaxBytes bounds the decompressed output. Zero means DefaultMaxBytes.
	MaxBytes int64
}

// Detect picks the format from the file name, falling back to magic bytes.
func Detect(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zip":
		return FormatZip
	case ".gz", ".gzip":
		return FormatGzip
	case ".zst", ".zstd":
		return FormatZstd
	}
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return FormatGzip
	case bytes.HasPrefix(data, zipMagic):
		return FormatZip
	case bytes.HasPrefix(data, zstdMagic):
		return FormatZstd
	}
	return FormatPlain
}

// Extract returns the text content of an uploaded file.
func (x Extractor) Extract(name string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch format := Detect(name, data); format {
	case FormatZip:
		text, err = x.extractZip(data)
	case FormatGzip:
		text, err = x.extractGzip(data)
	case FormatZstd:
		text, err = x.extractZstd(data)
	default:
		if int64(len(data)) > x.limit() {
			return "", fmt.Errorf("%w: %s exceeds %d bytes", ErrExtraction, name, x.limit())
		}
		return string(data), nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrExtraction, name, err)
	}
	if text == "" {
		return "", fmt.Errorf("%w: %s: no content", ErrExtraction, name)
	}
	return text, nil
}

// ExtractFile reads a file from disk and extracts it.
func (x Extractor) ExtractFile(p string) (string, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", p, err)
	}
	return x.Extract(filepath.Base(p), data)
}

func (x Extractor) limit() int64 {
	if x.MaxBytes > 0 {
		return x.MaxBytes
	}
	return DefaultMaxBytes
}

// readLimited reads r fully, failing once more than limit bytes are produced.
func (x Extractor) readLimited(r io.Reader) (string, error) {
	max := x.limit()
	buf, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return "", err
	}
	if int64(len(buf)) > max {
		return "", fmt.Errorf("decompressed output exceeds %d bytes", max)
	}
	return string(buf), nil
}

func (x Extractor) extractGzip(data []byte) (string, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer zr.Close()
	return x.readLimited(zr)
}

func (x Extractor) extractZstd(data []byte) (string, error) {
	zr, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer zr.Close()
	return x.readLimited(zr)
}

func (x Extractor) extractZip(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	member := pickMember(zr.File)
	if member == nil {
		return "", errors.New("archive has no regular members")
	}
	rc, err := member.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return x.readLimited(rc)
}

// pickMember returns the first log-like regular member, or the first regular member.
// Resource forks and dot-files are ignored.
func pickMember(files []*zip.File) *zip.File {
	var first *zip.File
	for _, f := range files {
		if !f.FileInfo().Mode().IsRegular() {
			continue
		}
		name := f.Name
		if strings.HasPrefix(name, "__MACOSX/") || strings.HasPrefix(path.Base(name), ".") {
			continue
		}
		switch strings.ToLower(path.Ext(name)) {
		case ".log", ".txt", "":
			return f
		}
		if first == nil {
			first = f
		}
	}
	return first
}
