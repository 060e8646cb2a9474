package foreground

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/plante-app/plante-notify/apperr"
	"github.com/plante-app/plante-notify/delivery"
)

// Registry tracks open pages. Each open page runs one resubscribing
// listener whose lifetime is bounded by the page session: subscribe on
// open, cancel on close. While at least one page is open, deliveries are
// claimed in the foreground.
type Registry struct {
	Source   Subscriber
	Notifier delivery.Notifier
	Logger   *logrus.Logger

	mu       sync.Mutex
	sessions map[string]context.CancelFunc
}

func NewRegistry(source Subscriber, notifier delivery.Notifier, logger *logrus.Logger) *Registry {
	return &Registry{
		Source:   source,
		Notifier: notifier,
		Logger:   logger,
		sessions: make(map[string]context.CancelFunc),
	}
}

// Open starts a listener for the page and returns its session id.
func (r *Registry) Open() string {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	listener := NewListener(r.Source, r.Notifier, r.Logger)
	r.mu.Lock()
	r.sessions[id] = cancel
	r.mu.Unlock()
	go listener.Run(ctx)
	return id
}

// Close tears the page's listener down. It reports whether the session was
// known.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	cancel, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// OpenCount returns the number of pages currently listening.
func (r *Registry) OpenCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// OpenPage is the HTTP entry for a page becoming visible.
func (r *Registry) OpenPage(c *gin.Context) {
	id := r.Open()
	c.JSON(http.StatusCreated, gin.H{"pageId": id})
}

type closeRequest struct {
	PageID string `json:"pageId" binding:"required"`
}

// ClosePage is the HTTP entry for a page going away.
func (r *Registry) ClosePage(c *gin.Context) {
	var req closeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Payload(apperr.Wrap(err, apperr.ErrBadRequest, "pageId is required")))
		return
	}
	if !r.Close(req.PageID) {
		c.JSON(http.StatusNotFound, apperr.Payload(apperr.New("unknown_page", http.StatusNotFound, "no such page session")))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "page closed"})
}
