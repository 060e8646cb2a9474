package push

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/plante-app/plante-notify/apperr"
)

// Handler consumes payloads that no foreground listener claimed.
// Satisfied by the background delivery handler.
type Handler interface {
	Handle(p Payload) error
}

// Router applies the provider's routing rule: a delivery reaches either a
// foreground subscriber or the background handler, never both.
type Router struct {
	Broker     *Broker
	Background Handler
	Logger     *logrus.Logger
}

func NewRouter(broker *Broker, background Handler, logger *logrus.Logger) *Router {
	return &Router{Broker: broker, Background: background, Logger: logger}
}

// Route decodes and delivers one raw payload.
func (r *Router) Route(raw []byte) error {
	p, err := Decode(raw)
	if err != nil {
		r.Logger.WithField("code", err.Error()).Warn("discarding undecodable push payload")
		return apperr.Wrap(err, apperr.ErrMalformedPushPayload, "")
	}
	if r.Broker.Publish(p) {
		return nil
	}
	return r.Background.Handle(p)
}

// Receive is the platform-facing registration point for incoming push
// payloads.
func (r *Router) Receive(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		c.JSON(http.StatusBadRequest, apperr.Payload(apperr.ErrEmptyBody))
		return
	}
	if err := r.Route(raw); err != nil {
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "delivered"})
}
