package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plante-app/plante-notify/apperr"
	"github.com/plante-app/plante-notify/fields"
)

// Click is the platform-facing callback for notification interactions,
// keyed on the action name.
func (h *Handler) Click(c *gin.Context) {
	var ev fields.ClickEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Payload(apperr.Wrap(err, apperr.ErrBadRequest, "")))
		return
	}
	path, err := h.HandleClick(ev)
	if err != nil {
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}
	if path == "" {
		c.JSON(http.StatusOK, gin.H{"message": "closed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"navigateTo": path})
}
