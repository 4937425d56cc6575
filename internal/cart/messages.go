package cart

import (
	"context"
	"errors"

	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/clients"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/notify"
)

const (
	msgGeneric      = "Something went wrong. Please try again."
	msgNetwork      = "Check your connection and try again."
	msgSessionEnded = "Your session has expired. Please log in again."
)

// userMessage turns a failed call into text fit for a notice: the server's
// own message for 4xx answers, a generic one otherwise.
func userMessage(err error) string {
	switch clients.Classify(err) {
	case clients.KindClient:
		if m := clients.ServerMessage(err); m != "" {
			return m
		}
		return msgGeneric
	case clients.KindUnauthorized:
		return msgSessionEnded
	case clients.KindNetwork:
		return msgNetwork
	default:
		return msgGeneric
	}
}

func (s *Sync) fail(ctx context.Context, title, op string, err error) {
	s.logger.Printf("cart: %s failed (%s): %v", op, clients.Classify(err), err)
	if errors.Is(err, context.Canceled) {
		return
	}
	s.notifier.Notify(ctx, notify.Notice{Level: notify.Error, Title: title, Message: userMessage(err)})
}

func (s *Sync) succeed(ctx context.Context, title, message string) {
	s.notifier.Notify(ctx, notify.Notice{Level: notify.Success, Title: title, Message: message})
}
