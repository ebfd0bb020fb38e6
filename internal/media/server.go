// Package media serves stored artwork images over HTTP.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	clog "github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"humancanvas/internal/dbmongo"
	"humancanvas/internal/session"
)

// maxUploadSize caps artwork uploads at 10 MiB.
const maxUploadSize = 10 << 20

// ImageStore is the slice of GridFS storage the server needs.
type ImageStore interface {
	Upload(ctx context.Context, filename, contentType, uploaderID string, content io.Reader) (*dbmongo.ImageFile, error)
	Download(ctx context.Context, fileID string) (io.Reader, *dbmongo.ImageFile, error)
	Delete(ctx context.Context, fileID string) error
}

type HTTPServer struct {
	storage  ImageStore
	sessions *session.Manager
	log      *clog.Logger
}

func NewHTTPServer(storage ImageStore, sessions *session.Manager, logger *clog.Logger) *HTTPServer {
	return &HTTPServer{
		storage:  storage,
		sessions: sessions,
		log:      logger.With("component", "media"),
	}
}

// Router builds the media router. Downloads are public since image
// URLs are embedded in notification payloads; mutations require a
// valid session token.
func (s *HTTPServer) Router() *mux.Router {
	router := mux.NewRouter()
	auth := s.sessions.Middleware()

	router.HandleFunc("/media/{fileId}", s.serveFile).Methods(http.MethodGet)
	router.Handle("/media", auth(http.HandlerFunc(s.uploadFile))).Methods(http.MethodPost)
	router.Handle("/media/{fileId}", auth(http.HandlerFunc(s.deleteFile))).Methods(http.MethodDelete)
	router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	return router
}

func (s *HTTPServer) serveFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	fileID := vars["fileId"]

	reader, file, err := s.storage.Download(r.Context(), fileID)
	if err != nil {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType(file.Filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", file.Size))

	if _, err := io.Copy(w, reader); err != nil {
		s.log.Error("error streaming file", "file", fileID, "err", err)
	}
}

func (s *HTTPServer) uploadFile(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	info, err := s.storage.Upload(r.Context(), header.Filename, contentType(header.Filename), sess.UserID, file)
	if err != nil {
		s.log.Error("upload failed", "file", header.Filename, "user", sess.UserID, "err", err)
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}
	s.log.Info("image uploaded", "file", info.ID, "user", sess.UserID, "size", info.Size)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"id":  info.ID,
		"url": "/media/" + info.ID,
	})
}

func (s *HTTPServer) deleteFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	fileID := vars["fileId"]

	if err := s.storage.Delete(r.Context(), fileID); err != nil {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func contentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("media server is healthy"))
}
