package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoHandler is returned by Dispatch for a page without a registered handler.
var ErrNoHandler = errors.New("no handler for page")

// Page is one step of the interactive flow.
type Page int

const (
	PageUpload Page = iota
	PageEDA
	PageTraining
)

var pageNames = [...]string{"Upload Data", "EDA", "ML Training"}

func (p Page) String() string {
	if p < 0 || int(p) >= len(pageNames) {
		return fmt.Sprintf("Page(%d)", int(p))
	}
	return pageNames[p]
}

// ParsePage accepts the display names and short aliases.
func ParsePage(s string) (Page, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upload", "upload data", "preview":
		return PageUpload, nil
	case "eda", "explore":
		return PageEDA, nil
	case "training", "ml training", "train":
		return PageTraining, nil
	default:
		return 0, fmt.Errorf("unknown page: %q", s)
	}
}

// Handler renders one page against a session.
type Handler func(ctx context.Context, s *Session) error

// Dispatcher maps each page to exactly one handler.
type Dispatcher struct {
	handlers map[Page]Handler
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: map[Page]Handler{}}
}

// Handle registers h for p, replacing any earlier handler.
func (d *Dispatcher) Handle(p Page, h Handler) *Dispatcher {
	d.handlers[p] = h
	return d
}

// Dispatch runs the handler registered for p.
func (d *Dispatcher) Dispatch(ctx context.Context, p Page, s *Session) error {
	h, ok := d.handlers[p]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoHandler, p)
	}
	return h(ctx, s)
}
