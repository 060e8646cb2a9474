// Package backend talks to the external plant backend. The backend owns
// durable storage and the actual fire-time triggers; this client only
// produces well-formed calls against its three endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/plante-app/plante-notify/apperr"
	"github.com/plante-app/plante-notify/fields"
)

// Client is the HTTP client for the plant backend. All calls honor the
// caller's context deadline.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

func New(baseURL string, logger *logrus.Logger) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Logger:     logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// RegisterToken associates the registration token with the authenticated
// user. The endpoint is idempotent server-side: resending the same token
// never creates a duplicate association.
func (c *Client) RegisterToken(ctx context.Context, token fields.RegistrationToken) error {
	body := map[string]string{"fcmToken": token.Value}
	var ignored struct{}
	return c.post(ctx, "/tokens", body, &ignored)
}

type createReminderResponse struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

// CreateReminder submits a validated reminder record and returns the
// backend's reminder identifier.
func (c *Client) CreateReminder(ctx context.Context, sub fields.ReminderSubmission) (string, error) {
	var res createReminderResponse
	if err := c.post(ctx, "/reminders", sub, &res); err != nil {
		return "", err
	}
	if res.ID == "" {
		return "", apperr.Wrap(errors.New("backend returned no reminder id"), apperr.ErrBackendUnavailable, "")
	}
	return res.ID, nil
}

// GetPlant looks up the plant's display name for templating.
func (c *Client) GetPlant(ctx context.Context, id string) (fields.Plant, error) {
	var plant fields.Plant
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/plants/"+id, nil)
	if err != nil {
		return plant, apperr.Wrap(err, apperr.ErrInternal, "")
	}
	res, err := c.do(req)
	if err != nil {
		return plant, err
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return plant, apperr.Wrap(err, apperr.ErrBackendUnavailable, "")
	}
	switch {
	case res.StatusCode == http.StatusNotFound:
		return plant, apperr.Wrap(fmt.Errorf("plant %s not found", id), apperr.ErrInvalidPlantReference, "plant not found")
	case res.StatusCode >= http.StatusInternalServerError:
		return plant, c.gatewayError(res.StatusCode, raw)
	case res.StatusCode != http.StatusOK:
		return plant, c.requestError(res.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, &plant); err != nil {
		return plant, apperr.Wrap(err, apperr.ErrBackendUnavailable, "unreadable plant response")
	}
	return plant, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return apperr.Wrap(err, apperr.ErrInternal, "")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewBuffer(raw))
	if err != nil {
		return apperr.Wrap(err, apperr.ErrInternal, "")
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return c.decodeBody(res, out)
}

// decodeBody consumes a response, mapping non-2xx statuses to the error
// taxonomy before unmarshalling.
func (c *Client) decodeBody(res *http.Response, out interface{}) error {
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return apperr.Wrap(err, apperr.ErrBackendUnavailable, "")
	}
	switch {
	case res.StatusCode >= http.StatusInternalServerError:
		return c.gatewayError(res.StatusCode, body)
	case res.StatusCode >= http.StatusBadRequest:
		return c.requestError(res.StatusCode, body)
	}
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return apperr.Wrap(err, apperr.ErrBackendUnavailable, "unreadable backend response")
		}
	}
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.Wrap(err, apperr.ErrTimeoutExceeded, "")
		}
		c.Logger.WithFields(logrus.Fields{
			"url":  req.URL.String(),
			"code": err.Error(),
		}).Error("error in establishing connection to the backend")
		return nil, apperr.Wrap(err, apperr.ErrBackendUnavailable, "")
	}
	return res, nil
}

func (c *Client) gatewayError(status int, body []byte) error {
	c.Logger.WithFields(logrus.Fields{
		"status":       status,
		"all_response": string(body),
	}).Error("backend returned a server error")
	return apperr.Wrap(fmt.Errorf("backend status %d", status), apperr.ErrBackendUnavailable, "")
}

func (c *Client) requestError(status int, body []byte) error {
	var res errorResponse
	message := ""
	if err := json.Unmarshal(body, &res); err == nil {
		message = res.Error
	}
	return apperr.Wrap(fmt.Errorf("backend status %d", status), apperr.New("backend_rejected", status, message), "")
}
