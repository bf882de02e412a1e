package upload

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jpegBytes() []byte {
	return append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, []byte("dummy jpeg payload")...)
}

func pngBytes() []byte {
	return append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, []byte("dummy png payload")...)
}

func webpBytes() []byte {
	return append([]byte("RIFF\x24\x00\x00\x00WEBP"), []byte("VP8 ")...)
}

func pdfBytes() []byte {
	return []byte("%PDF-1.7\nsome pdf content")
}

func TestValidateImageAcceptsRealFormats(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
	}{
		{"jpeg", "bano.jpg", jpegBytes()},
		{"jpeg alt extension", "bano.jpeg", jpegBytes()},
		{"png", "cocina.png", pngBytes()},
		{"webp", "salon.webp", webpBytes()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bytes.NewReader(tt.content)
			err := ValidateImage(r, tt.filename, int64(len(tt.content)))
			assert.NoError(t, err)
		})
	}
}

func TestValidateImageRejectsRenamedPayload(t *testing.T) {
	// A PDF renamed to .jpg passes size and extension but fails the
	// signature check.
	r := bytes.NewReader(pdfBytes())
	err := ValidateImage(r, "sneaky.jpg", int64(len(pdfBytes())))

	var ue *Error
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "sneaky.jpg", ue.Filename)
	assert.Contains(t, ue.Reason, "does not match")
}

func TestValidateImageRejectsExtension(t *testing.T) {
	r := bytes.NewReader(jpegBytes())
	err := ValidateImage(r, "photo.gif", int64(len(jpegBytes())))

	var ue *Error
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Reason, "jpg, jpeg, png and webp")
}

func TestValidateImageRejectsOversize(t *testing.T) {
	r := bytes.NewReader(jpegBytes())
	err := ValidateImage(r, "huge.jpg", MaxImageSize+1)

	var ue *Error
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Reason, "5 MB")
}

func TestValidateImageRestoresCursor(t *testing.T) {
	content := jpegBytes()
	r := bytes.NewReader(content)

	require.NoError(t, ValidateImage(r, "bano.jpg", int64(len(content))))

	// Downstream storage must still see the full content.
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestValidateDocument(t *testing.T) {
	content := pdfBytes()
	r := bytes.NewReader(content)
	assert.NoError(t, ValidateDocument(r, "presupuesto.pdf", int64(len(content))))

	r = bytes.NewReader(jpegBytes())
	err := ValidateDocument(r, "presupuesto.pdf", int64(len(jpegBytes())))
	var ue *Error
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Reason, "not a pdf")

	err = ValidateDocument(bytes.NewReader(content), "presupuesto.docx", int64(len(content)))
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Reason, "only pdf")

	err = ValidateDocument(bytes.NewReader(content), "big.pdf", MaxDocumentSize+1)
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Reason, "10 MB")
}

func TestValidateImageShortFile(t *testing.T) {
	r := strings.NewReader("x")
	err := ValidateImage(r, "tiny.jpg", 1)
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "ba_o_principal.jpg", SanitizeFilename("baño principal.jpg"))
	assert.Equal(t, "etc_passwd", SanitizeFilename("../../etc_passwd"))
	assert.Equal(t, "file", SanitizeFilename(""))
}
