// Package upload validates and stores user-submitted files. Validation is
// defense-in-depth: size ceiling, extension whitelist, then a content
// signature check so a renamed payload cannot pass on extension alone.
package upload

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

const (
	// MaxImageSize bounds uploaded photos.
	MaxImageSize = 5 * 1024 * 1024
	// MaxDocumentSize bounds uploaded documents.
	MaxDocumentSize = 10 * 1024 * 1024

	sniffLen = 12
)

var (
	imageExtensions    = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}
	documentExtensions = map[string]bool{".pdf": true}

	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	riffMagic = []byte("RIFF")
	webpMagic = []byte("WEBP")
	pdfMagic  = []byte("%PDF-")
)

// Error describes why a specific file was rejected.
type Error struct {
	Filename string
	Reason   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upload: %s: %s", e.Filename, e.Reason)
}

func reject(filename, reason string) *Error {
	return &Error{Filename: filename, Reason: reason}
}

// ValidateImage checks an uploaded photo: size, extension and content
// signature, in that order. The reader's position is restored after the
// signature read so the caller can still store the full content.
func ValidateImage(r io.ReadSeeker, filename string, size int64) error {
	if size > MaxImageSize {
		return reject(filename, "image exceeds the 5 MB limit")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !imageExtensions[ext] {
		return reject(filename, "only jpg, jpeg, png and webp images are accepted")
	}

	head, err := sniff(r)
	if err != nil {
		return reject(filename, "file could not be read")
	}
	if !isImageSignature(head) {
		return reject(filename, "file content does not match an accepted image format")
	}
	return nil
}

// ValidateDocument checks an uploaded document the same way ValidateImage
// checks photos. Only PDF is accepted.
func ValidateDocument(r io.ReadSeeker, filename string, size int64) error {
	if size > MaxDocumentSize {
		return reject(filename, "document exceeds the 10 MB limit")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !documentExtensions[ext] {
		return reject(filename, "only pdf documents are accepted")
	}

	head, err := sniff(r)
	if err != nil {
		return reject(filename, "file could not be read")
	}
	if !bytes.HasPrefix(head, pdfMagic) {
		return reject(filename, "file content is not a pdf document")
	}
	return nil
}

// sniff reads the signature bytes and puts the cursor back where it was.
func sniff(r io.ReadSeeker) ([]byte, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}

	if _, err := r.Seek(pos, io.SeekStart); err != nil {
		return nil, err
	}
	return head[:n], nil
}

func isImageSignature(head []byte) bool {
	switch {
	case bytes.HasPrefix(head, jpegMagic):
		return true
	case bytes.HasPrefix(head, pngMagic):
		return true
	case bytes.HasPrefix(head, riffMagic) && len(head) >= 12 && bytes.Equal(head[8:12], webpMagic):
		return true
	}
	return false
}
