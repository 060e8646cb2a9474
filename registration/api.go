package registration

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plante-app/plante-notify/apperr"
)

type enableRequest struct {
	UserID     string          `json:"userId" binding:"required"`
	Permission PermissionState `json:"permission,omitempty"`
	FCMToken   string          `json:"fcmToken,omitempty"`
}

// Enable is the HTTP entry for turning notifications on. The page reports
// its permission state and provider token alongside the user; the manager
// then runs the full flow and reports a non-fatal backend registration
// failure as a warning next to the token.
func (m *Manager) Enable(c *gin.Context) {
	var req enableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.Payload(apperr.Wrap(err, apperr.ErrBadRequest, "userId is required")))
		return
	}
	if m.Bridge != nil && req.Permission != "" {
		m.Bridge.Report(req.Permission, req.FCMToken)
	}
	token, err := m.EnsureRegistered(c.Request.Context(), req.UserID)
	if token == nil && err != nil {
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}
	body := gin.H{"fcmToken": token.Value, "issuedAt": token.IssuedAt}
	if err != nil {
		body["warning"] = apperr.Message(err)
	}
	c.JSON(http.StatusOK, body)
}

// Disable drops the session's cached permission state and token. Called on
// logout.
func (m *Manager) Disable(c *gin.Context) {
	m.Reset()
	c.JSON(http.StatusOK, gin.H{"message": "notification state cleared"})
}
