package chat

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"workshopflow/internal/apperr"
	myMiddleware "workshopflow/internal/middleware"
	"workshopflow/internal/user"
)

// Handler serves the support-chat widget. The thread is shared; open/closed
// state is kept per user until logout or until the user goes idle.
type Handler struct {
	store *ThreadStore
	now   func() time.Time

	mu      sync.Mutex
	widgets map[string]*widgetEntry
}

type widgetEntry struct {
	widget   *Widget
	lastSeen time.Time
}

func NewHandler(store *ThreadStore) *Handler {
	return &Handler{store: store, now: time.Now, widgets: make(map[string]*widgetEntry)}
}

func (h *Handler) widgetFor(userID string) *Widget {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.widgets[userID]
	if !ok {
		e = &widgetEntry{widget: NewWidget()}
		h.widgets[userID] = e
	}
	e.lastSeen = h.now()
	return e.widget
}

// Forget drops a user's widget state.
func (h *Handler) Forget(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.widgets, userID)
}

// ForgetOnLogout wraps the logout handler and drops the caller's widget once
// the logout succeeded.
func (h *Handler) ForgetOnLogout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if ww.Status() >= 300 {
			return
		}
		if id, ok := myMiddleware.IdentityFrom(r.Context()); ok {
			h.Forget(id.UserID)
		}
	})
}

// Run drops widgets idle for longer than idle, every interval, until ctx is done.
func (h *Handler) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.sweep(idle)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) sweep(idle time.Duration) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	cutoff := h.now().Add(-idle)
	dropped := 0
	for id, e := range h.widgets {
		if e.lastSeen.Before(cutoff) {
			delete(h.widgets, id)
			dropped++
		}
	}
	return dropped
}

func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (myMiddleware.Identity, bool) {
	id, ok := myMiddleware.IdentityFrom(r.Context())
	if !ok {
		apperr.WriteError(w, apperr.Unauthorized("NOT_LOGGED_IN", "Log in to use the support chat"))
	}
	return id, ok
}

func (h *Handler) respond(w http.ResponseWriter, status int, widget *Widget, messages []Message) {
	apperr.WriteJSON(w, status, WidgetResponse{Open: widget.State() == Open, Messages: messages})
}

// Get handles GET /api/chat
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	h.respond(w, http.StatusOK, h.widgetFor(id.UserID), h.store.Messages())
}

// Toggle handles POST /api/chat/toggle
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	widget := h.widgetFor(id.UserID)
	widget.Toggle()
	h.respond(w, http.StatusOK, widget, h.store.Messages())
}

// Close handles POST /api/chat/close
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	widget := h.widgetFor(id.UserID)
	widget.Close()
	h.respond(w, http.StatusOK, widget, h.store.Messages())
}

// Reload handles POST /api/chat/reload
// Re-reads the thread from the Local Store, picking up other writers.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	h.respond(w, http.StatusOK, h.widgetFor(id.UserID), h.store.Load(r.Context()))
}

// SendMessage handles POST /api/chat/messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := apperr.DecodeJSON(w, r, &req); err != nil {
		apperr.WriteError(w, err)
		return
	}

	role := user.Role(id.Role)
	messages, err := h.store.Append(r.Context(), req.Text, role, DisplayName(role, id.FullName))
	if errors.Is(err, ErrEmptyMessage) {
		apperr.WriteError(w, apperr.BadRequest("EMPTY_MESSAGE", "Message text is required"))
		return
	}
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, h.widgetFor(id.UserID), messages)
}
