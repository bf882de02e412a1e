package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	putKey  string
	putBody []byte
	err     error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.putKey = *params.Key
	f.putBody, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3StoreSave(t *testing.T) {
	fake := &fakeS3{}
	store := NewS3Store(fake, "arynstal-media", nil)

	key, err := store.Save(context.Background(), "leads", "baño.jpg", bytes.NewReader(jpegBytes()))
	require.NoError(t, err)

	now := time.Now().UTC()
	assert.True(t, strings.HasPrefix(key, fmt.Sprintf("leads/%d/%02d/", now.Year(), now.Month())))
	assert.True(t, strings.HasSuffix(key, "_ba_o.jpg"))
	assert.Equal(t, key, fake.putKey)
	assert.Equal(t, jpegBytes(), fake.putBody)
}

func TestS3StoreSaveError(t *testing.T) {
	fake := &fakeS3{err: fmt.Errorf("access denied")}
	store := NewS3Store(fake, "arynstal-media", nil)

	_, err := store.Save(context.Background(), "leads", "a.jpg", bytes.NewReader(jpegBytes()))
	assert.ErrorContains(t, err, "access denied")
}

func TestLocalStoreSave(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, nil)

	content := pdfBytes()
	key, err := store.Save(context.Background(), "budgets", "presupuesto.pdf", bytes.NewReader(content))
	require.NoError(t, err)

	saved, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, content, saved)
}

func TestBuildKeyUniquePerCall(t *testing.T) {
	a := buildKey("leads", "same.jpg")
	b := buildKey("leads", "same.jpg")
	assert.NotEqual(t, a, b)
}
