package media

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"humancanvas/internal/dbmongo"
	"humancanvas/internal/session"
)

type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Upload(ctx context.Context, filename, contentType, uploaderID string, content io.Reader) (*dbmongo.ImageFile, error) {
	args := m.Called(ctx, filename, contentType, uploaderID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmongo.ImageFile), args.Error(1)
}

func (m *MockImageStore) Download(ctx context.Context, fileID string) (io.Reader, *dbmongo.ImageFile, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(io.Reader), args.Get(1).(*dbmongo.ImageFile), args.Error(2)
}

func (m *MockImageStore) Delete(ctx context.Context, fileID string) error {
	args := m.Called(ctx, fileID)
	return args.Error(0)
}

type serverFixture struct {
	storage *MockImageStore
	server  *HTTPServer
	token   string
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	storage := new(MockImageStore)
	sessions := session.NewManager("test-secret", time.Hour)
	server := NewHTTPServer(storage, sessions, clog.New(io.Discard))

	token, err := sessions.GenerateToken("user-1", "painter")
	require.NoError(t, err)

	return &serverFixture{storage: storage, server: server, token: token}
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUploadStoresFile(t *testing.T) {
	f := newServerFixture(t)

	f.storage.On("Upload", mock.Anything, "sunset.png", "image/png", "user-1", mock.Anything).
		Return(&dbmongo.ImageFile{ID: "file-1", Filename: "sunset.png", Size: 9}, nil).Once()

	body, contentType := multipartBody(t, "file", "sunset.png", []byte("png bytes"))
	req := httptest.NewRequest(http.MethodPost, "/media", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+f.token)

	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "file-1", resp["id"])
	assert.Equal(t, "/media/file-1", resp["url"])
	f.storage.AssertExpectations(t)
}

func TestUploadRequiresAuth(t *testing.T) {
	f := newServerFixture(t)

	body, contentType := multipartBody(t, "file", "sunset.png", []byte("png bytes"))
	req := httptest.NewRequest(http.MethodPost, "/media", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	f.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadRequiresFileField(t *testing.T) {
	f := newServerFixture(t)

	body, contentType := multipartBody(t, "wrong-field", "sunset.png", []byte("png bytes"))
	req := httptest.NewRequest(http.MethodPost, "/media", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+f.token)

	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeFileStreamsContent(t *testing.T) {
	f := newServerFixture(t)

	content := []byte("png bytes")
	f.storage.On("Download", mock.Anything, "file-1").
		Return(bytes.NewReader(content), &dbmongo.ImageFile{ID: "file-1", Filename: "sunset.png", Size: int64(len(content))}, nil).Once()

	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/file-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, content, rec.Body.Bytes())
}

func TestServeFileNotFound(t *testing.T) {
	f := newServerFixture(t)

	f.storage.On("Download", mock.Anything, "missing").
		Return(nil, nil, assert.AnError).Once()

	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteRemovesFile(t *testing.T) {
	f := newServerFixture(t)

	f.storage.On("Delete", mock.Anything, "file-1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/media/file-1", nil)
	req.Header.Set("Authorization", "Bearer "+f.token)

	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	f.storage.AssertExpectations(t)
}

func TestDeleteRequiresAuth(t *testing.T) {
	f := newServerFixture(t)

	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/media/file-1", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	f.storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteUnknownFile(t *testing.T) {
	f := newServerFixture(t)

	f.storage.On("Delete", mock.Anything, "missing").Return(assert.AnError).Once()

	req := httptest.NewRequest(http.MethodDelete, "/media/missing", nil)
	req.Header.Set("Authorization", "Bearer "+f.token)

	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
