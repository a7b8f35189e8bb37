// Package ingest turns attached files into opaque content references and back.
// A reference is a data URL: data:<mime>;base64,<payload>.
package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const (
	scheme       = "data:"
	base64Marker = ";base64,"

	// MaxFileSize bounds a single attachment.
	MaxFileSize = 32 << 20
)

var (
	// ErrNotReference is returned when a string is not a content reference.
	ErrNotReference = errors.New("ingest: not a content reference")
	// ErrTooLarge is returned for files above MaxFileSize.
	ErrTooLarge = errors.New("ingest: file too large")
)

// Encode builds a content reference for data. The mime type comes from the
// extension of name and falls back to sniffing the bytes.
func Encode(data []byte, name string) string {
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if mt == "" {
		mt = http.DetectContentType(data)
	}
	return scheme + mt + base64Marker + base64.StdEncoding.EncodeToString(data)
}

// ReadFile reads the file at path and returns its display name and content reference.
func ReadFile(ctx context.Context, path string) (name, ref string, err error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	st, err := os.Stat(path)
	if err != nil {
		return "", "", fmt.Errorf("ingest: %w", err)
	}
	if st.IsDir() {
		return "", "", fmt.Errorf("ingest: %s is a directory", path)
	}
	if st.Size() > MaxFileSize {
		return "", "", fmt.Errorf("%w: %s (%d bytes)", ErrTooLarge, path, st.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("ingest: %w", err)
	}
	name = filepath.Base(path)
	return name, Encode(data, name), nil
}

// Decode splits a content reference into its mime type and payload.
func Decode(ref string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(ref, scheme)
	if !ok {
		return "", nil, ErrNotReference
	}
	mt, payload, ok := strings.Cut(rest, base64Marker)
	if !ok {
		return "", nil, ErrNotReference
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrNotReference, err)
	}
	return mt, data, nil
}

// MediaType returns the mime type of ref without decoding the payload, or "" if ref is not a reference.
func MediaType(ref string) string {
	rest, ok := strings.CutPrefix(ref, scheme)
	if !ok {
		return ""
	}
	mt, _, ok := strings.Cut(rest, base64Marker)
	if !ok {
		return ""
	}
	return mt
}
