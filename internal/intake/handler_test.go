package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgvrzon/arynstal/internal/leads"
)

func newTestHandler(repo leads.Repository) *Handler {
	svc := NewService(repo, nil, &fakeStore{}, nil, nil, nil)
	return NewHandler(svc, "website_url", 0, nil)
}

type formFile struct {
	field, name string
	content     []byte
}

func multipartBody(t *testing.T, fields map[string]string, files []formFile) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func validFormFields() map[string]string {
	return map[string]string{
		"name":             "Juan Pérez",
		"email":            "juan.perez@example.com",
		"phone":            "666 777 888",
		"message":          "Necesito una reforma completa del baño principal",
		"privacy_accepted": "on",
	}
}

func postForm(t *testing.T, h *Handler, fields map[string]string, files []formFile, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields, files)
	req := httptest.NewRequest(http.MethodPost, "/contact", body)
	req.Header.Set("Content-Type", contentType)
	req.RemoteAddr = "203.0.113.7:54321"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.SubmitContactForm(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) submissionResponse {
	t.Helper()
	var resp submissionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestSubmitContactForm_Success(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	h := newTestHandler(repo)

	jpeg := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, []byte("jpeg payload")...)
	rec := postForm(t, h, validFormFields(), []formFile{{"fotos", "bano.jpg", jpeg}}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, SuccessMessage, resp.Message)

	stored, err := repo.List(context.Background(), leads.ListFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Juan Pérez", stored[0].Name)
	assert.Equal(t, "203.0.113.7", stored[0].IPAddress)
}

func TestSubmitContactForm_HoneypotBodyMatchesSuccess(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	h := newTestHandler(repo)

	successRec := postForm(t, h, validFormFields(), nil, nil)

	trapped := validFormFields()
	trapped["website_url"] = "https://spam.example"
	botRec := postForm(t, h, trapped, nil, nil)

	assert.Equal(t, successRec.Code, botRec.Code)
	assert.Equal(t, successRec.Body.String(), botRec.Body.String())

	// Only the honest submission created a lead.
	stored, err := repo.List(context.Background(), leads.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestSubmitContactForm_MissingConsent(t *testing.T) {
	h := newTestHandler(leads.NewInMemoryRepository())

	fields := validFormFields()
	delete(fields, "privacy_accepted")
	rec := postForm(t, h, fields, nil, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Contains(t, resp.Errors, "privacy_accepted")
}

func TestSubmitContactForm_FieldErrors(t *testing.T) {
	h := newTestHandler(leads.NewInMemoryRepository())

	fields := validFormFields()
	fields["phone"] = "12"
	rec := postForm(t, h, fields, nil, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Errors, "phone")
}

func TestSubmitContactForm_RejectsDisguisedUpload(t *testing.T) {
	h := newTestHandler(leads.NewInMemoryRepository())

	rec := postForm(t, h, validFormFields(), []formFile{
		{"fotos", "malware.jpg", []byte("%PDF-1.7 not an image")},
	}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Contains(t, resp.Errors["fotos"], "malware.jpg")
}

func TestSubmitContactForm_ForwardedForWins(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	h := newTestHandler(repo)

	rec := postForm(t, h, validFormFields(), nil, map[string]string{
		"X-Forwarded-For": "198.51.100.9, 10.0.0.1",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	stored, err := repo.List(context.Background(), leads.ListFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "198.51.100.9", stored[0].IPAddress)
}

func TestSubmitContactForm_NotMultipart(t *testing.T) {
	h := newTestHandler(leads.NewInMemoryRepository())

	req := httptest.NewRequest(http.MethodPost, "/contact", io.NopCloser(bytes.NewBufferString("plain")))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.SubmitContactForm(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
