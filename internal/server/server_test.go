package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashicode/docforge/internal/converter"
	"github.com/akashicode/docforge/internal/document"
)

type fakeConverter struct {
	imagesEnabled bool
	result        *converter.Result
	err           error
	panicWith     interface{}

	got  converter.Input
	body []byte
}

func (f *fakeConverter) Convert(_ context.Context, in converter.Input) (*converter.Result, error) {
	f.got = in
	if in.Data != nil {
		f.body, _ = io.ReadAll(in.Data)
	}
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	return f.result, f.err
}

func (f *fakeConverter) ImagesEnabled() bool { return f.imagesEnabled }

func newTestServer(t *testing.T, conv *fakeConverter) *Server {
	t.Helper()
	s, err := New(conv, Config{
		MaxUploadBytes: 1 << 20,
		Font:           document.DefaultFont,
		Version:        "test",
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return s
}

func uploadRequest(t *testing.T, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/convert", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, Config{MaxUploadBytes: 1})
	assert.Error(t, err)

	_, err = New(&fakeConverter{}, Config{})
	assert.Error(t, err)
}

func TestIndex(t *testing.T) {
	tests := []struct {
		name          string
		imagesEnabled bool
		wantTitle     string
		wantAccept    string
	}{
		{name: "with images", imagesEnabled: true, wantTitle: TitleWithImages, wantAccept: ".pdf,.png,.jpg,.jpeg"},
		{name: "pdf only", imagesEnabled: false, wantTitle: TitlePDFOnly, wantAccept: `accept=".pdf"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeConverter{imagesEnabled: tt.imagesEnabled})
			rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
			body := rec.Body.String()
			assert.Contains(t, body, tt.wantTitle)
			assert.Contains(t, body, tt.wantAccept)
			assert.Contains(t, body, `name="file"`)
		})
	}
}

func TestConvert_Success(t *testing.T) {
	conv := &fakeConverter{
		imagesEnabled: true,
		result: &converter.Result{
			ID:          "abc",
			FileName:    "converted_document.docx",
			ContentType: document.ContentType,
			Data:        []byte("PK docx bytes"),
		},
	}
	s := newTestServer(t, conv)

	rec := serve(s, uploadRequest(t, "file", "report.pdf", "application/pdf", []byte("%PDF-1.7")))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, document.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=converted_document.docx`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "13", rec.Header().Get("Content-Length"))
	assert.Equal(t, "abc", rec.Header().Get("X-Conversion-Id"))
	assert.Equal(t, "PK docx bytes", rec.Body.String())

	assert.Equal(t, "report.pdf", conv.got.Name)
	assert.Equal(t, "application/pdf", conv.got.ContentType)
	assert.Equal(t, "%PDF-1.7", string(conv.body))
}

func TestConvert_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "unsupported type",
			err:        fmt.Errorf("%w: text/plain", converter.ErrUnsupportedType),
			wantStatus: http.StatusUnsupportedMediaType,
			wantMsg:    MsgUnsupportedType,
		},
		{
			name:       "pdf only",
			err:        fmt.Errorf("%w: got image/png", converter.ErrPDFOnly),
			wantStatus: http.StatusUnsupportedMediaType,
			wantMsg:    MsgPDFOnly,
		},
		{
			name:       "empty upload",
			err:        converter.ErrEmptyUpload,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "An error occurred: uploaded file is empty",
		},
		{
			name:       "pipeline failure",
			err:        errors.New("validate PDF: broken xref"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "An error occurred: validate PDF: broken xref",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeConverter{imagesEnabled: true, err: tt.err})
			rec := serve(s, uploadRequest(t, "file", "x.txt", "text/plain", []byte("hello")))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
			assert.Empty(t, rec.Header().Get("Content-Disposition"))
		})
	}
}

func TestConvert_PanicBecomesMessage(t *testing.T) {
	s := newTestServer(t, &fakeConverter{imagesEnabled: true, panicWith: "index out of range"})
	rec := serve(s, uploadRequest(t, "file", "scan.png", "image/png", []byte("png")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "An error occurred: index out of range")
}

func TestConvert_MissingFile(t *testing.T) {
	conv := &fakeConverter{imagesEnabled: true}
	s := newTestServer(t, conv)

	rec := serve(s, uploadRequest(t, "other", "report.pdf", "application/pdf", []byte("%PDF")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), MsgMissingFile)
	assert.Empty(t, conv.got.Name)
}

func TestConvert_NotMultipart(t *testing.T) {
	s := newTestServer(t, &fakeConverter{imagesEnabled: true})

	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader("plain body"))
	req.Header.Set("Content-Type", "text/plain")
	rec := serve(s, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "An error occurred: ")
}

func TestConvert_TooLarge(t *testing.T) {
	conv := &fakeConverter{imagesEnabled: true}
	s := newTestServer(t, conv)

	big := bytes.Repeat([]byte("a"), 2<<20)
	rec := serve(s, uploadRequest(t, "file", "big.pdf", "application/pdf", big))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "An error occurred: file exceeds the 1 MB upload limit")
	assert.Empty(t, conv.got.Name)
}

func TestConvert_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, &fakeConverter{})
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/convert", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeConverter{imagesEnabled: false})
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, false, body["images_enabled"])
	font, ok := body["font"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Mangal", font["family"])
	assert.Equal(t, 12.0, font["size"])
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, &fakeConverter{})

	req := httptest.NewRequest(http.MethodOptions, "/convert", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := serve(s, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
