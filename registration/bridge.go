package registration

import (
	"context"
	"errors"
	"sync"
)

// PageBridge replays the platform state a page reports. Permission prompts
// need a user gesture, so the prompt itself always runs on the page; the
// bridge carries its outcome and the provider token the page obtained, and
// the Manager applies the same flow against them as it would against a
// live platform surface.
type PageBridge struct {
	mu    sync.Mutex
	state PermissionState
	token string
}

func NewPageBridge() *PageBridge {
	return &PageBridge{state: PermissionDefault}
}

// Report records the page's latest permission state and token.
func (b *PageBridge) Report(state PermissionState, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = state
	b.token = token
}

func (b *PageBridge) State(ctx context.Context) (PermissionState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == "" {
		return PermissionDefault, nil
	}
	return b.state, nil
}

// Request returns the recorded prompt outcome. The page has already shown
// the prompt by the time it reports.
func (b *PageBridge) Request(ctx context.Context) (PermissionState, error) {
	return b.State(ctx)
}

func (b *PageBridge) Token(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.token == "" {
		return "", errors.New("page reported no registration token")
	}
	return b.token, nil
}
