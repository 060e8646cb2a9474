package delivery

import (
	"sync"

	"github.com/plante-app/plante-notify/fields"
)

// Notifier is the platform's notification surface. Show replaces any
// displayed notification carrying the same tag.
type Notifier interface {
	Show(n fields.WebNotification) error
	Close(tag string)
}

// Navigator opens or focuses the application at a path.
type Navigator interface {
	OpenWindow(path string) error
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(path string) error

func (f NavigatorFunc) OpenWindow(path string) error {
	return f(path)
}

// Center is an in-process Notifier tracking displayed notifications by tag.
// A second Show with the same tag replaces the first, matching the
// platform's stacking rule.
type Center struct {
	mu     sync.Mutex
	active map[string]fields.WebNotification
}

func NewCenter() *Center {
	return &Center{active: make(map[string]fields.WebNotification)}
}

func (c *Center) Show(n fields.WebNotification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active[n.Tag] = n
	return nil
}

func (c *Center) Close(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.active, tag)
}

// Get returns the displayed notification for a tag, if any.
func (c *Center) Get(tag string) (fields.WebNotification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.active[tag]
	return n, ok
}

// Active returns all currently displayed notifications.
func (c *Center) Active() []fields.WebNotification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]fields.WebNotification, 0, len(c.active))
	for _, n := range c.active {
		out = append(out, n)
	}
	return out
}
