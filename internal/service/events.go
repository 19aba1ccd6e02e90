package service

import (
	"context"
	"errors"
	"time"

	"stablecircle/internal/domain"
	"stablecircle/internal/repository"
)

// Notifier posts a system line into a hub's chat. Implemented by ChatService.
type Notifier interface {
	SystemMessage(ctx context.Context, hubID, content string)
}

type nopNotifier struct{}

func (nopNotifier) SystemMessage(context.Context, string, string) {}

// StatsInvalidator drops cached aggregates after a mutation.
type StatsInvalidator interface {
	Invalidate(ctx context.Context)
}

var errorKinds = []struct {
	err   error
	label string
}{
	{domain.ErrValidation, "validation"},
	{domain.ErrNotFound, "not_found"},
	{domain.ErrInvalidInviteCode, "invalid_code"},
	{domain.ErrHubFull, "hub_full"},
	{domain.ErrAlreadyMember, "already_member"},
	{domain.ErrHubNotActive, "hub_not_active"},
	{domain.ErrNotMember, "not_member"},
	{domain.ErrTransfer, "transfer"},
	{domain.ErrStorageConflict, "conflict"},
}

// storeErr maps repository errors onto the domain taxonomy.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound(what)
	case errors.Is(err, repository.ErrConflict):
		return errors.Join(domain.ErrStorageConflict, err)
	}
	return err
}

func notFound(what string) error {
	return &notFoundError{what: what}
}

type notFoundError struct{ what string }

func (e *notFoundError) Error() string { return e.what + " not found" }
func (e *notFoundError) Unwrap() error { return domain.ErrNotFound }

// retryConflict runs fn once more after a lost race; a second loss is
// surfaced as ErrStorageConflict.
func retryConflict[T any](fn func() (T, error)) (T, error) {
	v, err := fn()
	if errors.Is(err, repository.ErrConflict) {
		time.Sleep(10 * time.Millisecond)
		v, err = fn()
	}
	return v, err
}
