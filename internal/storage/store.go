package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// ErrObjectNotFound is returned when no area holds the requested file
var ErrObjectNotFound = errors.New("object not found")

// ErrInvalidName is returned for names that could escape the store
var ErrInvalidName = errors.New("invalid object name")

// Area is a logical directory inside a store
type Area string

const (
	AreaUploads   Area = "uploads"
	AreaProcessed Area = "processed"
)

// lookupOrder is the order Open searches areas in
var lookupOrder = []Area{AreaUploads, AreaProcessed}

// ImageStore persists uploaded photos
type ImageStore interface {
	// Save writes r to the uploads area and returns the number of bytes stored
	Save(ctx context.Context, name string, r io.Reader) (int64, error)

	// Open returns the named file from uploads, falling back to processed
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Backend names the implementation for logs and metrics
	Backend() string
}

// checkName accepts plain file names only.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") ||
		filepath.Base(name) != name {
		return ErrInvalidName
	}
	return nil
}

// countingReader tracks bytes read for backends that do not report size
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
