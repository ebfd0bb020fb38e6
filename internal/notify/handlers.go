package notify

import (
	"encoding/json"
	"net/http"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"humancanvas/internal/common"
	"humancanvas/internal/config"
	"humancanvas/internal/digest"
	"humancanvas/internal/session"
)

// HTTPHandler exposes the notification API: digest queries, the two
// mark operations, the producer endpoint and the live SSE stream.
type HTTPHandler struct {
	service  *Service
	store    common.NotificationStore
	feed     common.ChangeFeed
	clock    common.Clock
	sessions *session.Manager
	log      *clog.Logger
	poll     time.Duration
}

func NewHTTPHandler(
	cfg *config.Config,
	service *Service,
	store common.NotificationStore,
	feed common.ChangeFeed,
	clock common.Clock,
	sessions *session.Manager,
	logger *clog.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		service:  service,
		store:    store,
		feed:     feed,
		clock:    clock,
		sessions: sessions,
		log:      logger.With("component", "http"),
		poll:     cfg.PollInterval(),
	}
}

// Router builds the service router. Everything under /api/v1 requires a
// valid session token.
func (h *HTTPHandler) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", h.health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(h.sessions.Middleware())
	api.HandleFunc("/notifications", h.getDigest).Methods(http.MethodGet)
	api.HandleFunc("/notifications", h.postNotification).Methods(http.MethodPost)
	api.HandleFunc("/notifications/badge", h.getBadge).Methods(http.MethodGet)
	api.HandleFunc("/notifications/read-all", h.postReadAll).Methods(http.MethodPost)
	api.HandleFunc("/notifications/clicked", h.postClicked).Methods(http.MethodPost)
	api.HandleFunc("/notifications/stream", h.stream).Methods(http.MethodGet)

	return router
}

type digestResponse struct {
	Items      []digest.SnapshotItem `json:"items"`
	BadgeCount int                   `json:"badge_count"`
}

func (h *HTTPHandler) getDigest(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no session")
		return
	}

	events, err := h.service.ListForUser(r.Context(), sess.UserID)
	if err != nil {
		h.log.Error("digest fetch failed", "user", sess.UserID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load notifications")
		return
	}

	now := h.clock.Now()
	items := digest.Aggregate(events)
	resp := digestResponse{
		Items:      make([]digest.SnapshotItem, len(items)),
		BadgeCount: digest.BadgeCount(events),
	}
	for i, item := range items {
		resp.Items[i] = digest.SnapshotItem{
			Item: item,
			When: digest.RelativeTime(now, item.LatestCreatedAt),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) getBadge(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no session")
		return
	}

	count, err := h.service.BadgeCount(r.Context(), sess.UserID)
	if err != nil {
		h.log.Error("badge count failed", "user", sess.UserID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load badge count")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (h *HTTPHandler) postReadAll(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no session")
		return
	}

	if err := h.service.MarkAllRead(r.Context(), sess.UserID); err != nil {
		h.log.Error("mark-all-read failed", "user", sess.UserID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to mark notifications read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type clickedRequest struct {
	Key string `json:"key"`
}

type clickedResponse struct {
	Target string `json:"target,omitempty"`
}

func (h *HTTPHandler) postClicked(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no session")
		return
	}

	var req clickedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	items, err := h.service.Digest(r.Context(), sess.UserID)
	if err != nil {
		h.log.Error("digest fetch failed", "user", sess.UserID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load notifications")
		return
	}

	var target *digest.Item
	for i := range items {
		if items[i].Key == req.Key {
			target = &items[i]
			break
		}
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "unknown digest item")
		return
	}

	if err := h.service.MarkClicked(r.Context(), sess.UserID, target.MemberIDs); err != nil {
		h.log.Error("mark-clicked failed", "user", sess.UserID, "key", req.Key, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to mark notifications clicked")
		return
	}

	resp := clickedResponse{}
	if nav, ok := target.NavigationTarget(); ok {
		resp.Target = nav
	}
	writeJSON(w, http.StatusOK, resp)
}

type createRequest struct {
	UserID      string  `json:"user_id"`
	ActorID     *string `json:"actor_id,omitempty"`
	Type        string  `json:"type"`
	ReferenceID *string `json:"reference_id,omitempty"`
	Title       string  `json:"title"`
	Message     string  `json:"message"`
	ImageURL    *string `json:"image_url,omitempty"`
}

func (h *HTTPHandler) postNotification(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.service.Publish(r.Context(), common.Notification{
		UserID:      req.UserID,
		ActorID:     req.ActorID,
		Type:        common.NotificationType(req.Type),
		ReferenceID: req.ReferenceID,
		Title:       req.Title,
		Message:     req.Message,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// stream pushes a fresh digest snapshot over SSE whenever the session's
// view model changes, whether from the live feed or a reconciliation
// pass. One view model lives per open connection and dies with it.
func (h *HTTPHandler) stream(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no session")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	vm := digest.NewViewModel(sess, h.store, h.feed, h.clock, h.log)
	vm.SetPollInterval(h.poll)
	if err := vm.Open(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to open digest")
		return
	}
	defer vm.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if err := writeSnapshot(w, flusher, vm.Snapshot()); err != nil {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-vm.Updates():
			if err := writeSnapshot(w, flusher, vm.Snapshot()); err != nil {
				return
			}
		}
	}
}

func writeSnapshot(w http.ResponseWriter, flusher http.Flusher, snap digest.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("event: digest\ndata: " + string(data) + "\n\n")); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func (h *HTTPHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "humancanvas-notify"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
