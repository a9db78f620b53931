package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var ErrTooLarge = errors.New("file exceeds size limit")

// Document is an agreement decoded to NFC UTF-8 with LF line endings. Hash
// covers the raw bytes so a re-encoded copy counts as a change.
type Document struct {
	Path     string         `json:"path"`
	Text     string         `json:"-"`
	Encoding EncodingResult `json:"encoding"`
	Hash     string         `json:"hash"`
}

func ReadFile(path string, maxSize int64) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Document{}, err
	}
	if info.IsDir() {
		return Document{}, fmt.Errorf("%s is a directory", path)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return Document{}, fmt.Errorf("%s: %d bytes: %w", path, info.Size(), ErrTooLarge)
	}

	doc, err := Read(f, maxSize)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// Read decodes an agreement from r, reading at most maxSize bytes when
// maxSize is positive.
func Read(r io.Reader, maxSize int64) (Document, error) {
	if maxSize > 0 {
		r = io.LimitReader(r, maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read: %w", err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return Document{}, ErrTooLarge
	}
	return Decode(data), nil
}

func Decode(data []byte) Document {
	detected := DetectEncoding(data)
	sum := sha256.Sum256(data)

	return Document{
		Text:     NormalizeText(NormalizeToUTF8(data, detected)),
		Encoding: detected,
		Hash:     hex.EncodeToString(sum[:]),
	}
}

// NormalizeText composes the text to NFC, converts CRLF and lone CR to LF
// and drops a leading byte order mark.
func NormalizeText(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return norm.NFC.String(s)
}
