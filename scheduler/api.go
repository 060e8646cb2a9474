package scheduler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plante-app/plante-notify/apperr"
	"github.com/plante-app/plante-notify/fields"
)

// submitTimeout bounds the backend round trips behind one submission.
const submitTimeout = 10 * time.Second

// CreateReminder handles the reminder form submission.
func (s *Service) CreateReminder(c *gin.Context) {
	var draft fields.ReminderDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Payload(apperr.Wrap(err, apperr.ErrMissingRequiredField, "plantId, type and frequency are required")))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), submitTimeout)
	defer cancel()

	id, err := s.Submit(ctx, draft)
	if err != nil {
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}
