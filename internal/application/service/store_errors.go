package service

import (
	"context"
	"errors"
	"log"

	"github.com/sangkips/mesa-api/internal/domain/event"
	"github.com/sangkips/mesa-api/pkg/apperror"
	"github.com/sangkips/mesa-api/pkg/docstore"
)

// storeErr turns a failed read or commit into a TransientIO error naming the step.
// Application errors and context cancellation pass through unchanged.
func storeErr(step string, err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) || errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, docstore.ErrNotFound) {
		return apperror.NewNotFoundError("Document needed to " + step)
	}
	log.Printf("Error: store failure while trying to %s: %v", step, err)
	return apperror.NewTransientError(step, err)
}

// precondition extracts the guard that failed a commit, if any.
func precondition(err error) (*docstore.PreconditionError, bool) {
	var pre *docstore.PreconditionError
	if errors.As(err, &pre) {
		return pre, true
	}
	return nil, false
}

func publish(ctx context.Context, p event.Publisher, events ...event.Event) {
	if p == nil {
		return
	}
	for _, e := range events {
		p.Publish(ctx, e)
	}
}
