// Package notify delivers operator notifications (import reports). Messages
// are dispatched to all registered senders and can be filtered by event type.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Event types emitted by the application.
const (
	EventImportDone   = "import_done"
	EventImportFailed = "import_failed"
)

// Sender is the interface each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given subject and HTML body.
	Send(ctx context.Context, subject, body string) error
	// Name returns a human-readable identifier for the sender (e.g. "mail").
	Name() string
}

// Notifier dispatches notifications to one or more Senders, filtered by an
// allowed event-type set. An empty set allows everything.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier delivering to the given senders. Only events
// listed in events are forwarded by Notify; an empty list allows all.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify sends a notification to all senders if the event type is allowed.
func (n *Notifier) Notify(ctx context.Context, event, subject, body string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", event))
		return nil
	}
	return n.dispatch(ctx, subject, body)
}

// dispatch fans out to every sender; one failing sender does not prevent
// delivery to the rest.
func (n *Notifier) dispatch(ctx context.Context, subject, body string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, subject, body); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("subject", subject),
		)
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
