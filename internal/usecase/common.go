package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/listora/listora/internal/config"
)

type ErrNotFound struct {
	ID      uuid.UUID
	Code    string
	Message string
}

func (e ErrNotFound) Error() string {
	return e.Message
}

type ErrValidation struct {
	Code    string
	Message string
}

func (e ErrValidation) Error() string {
	return e.Message
}

type ErrConflict struct {
	Code    string
	Message string
}

func (e ErrConflict) Error() string {
	return e.Message
}

// ErrExternalService marks a failed or timed-out downstream call. The
// in-flight record is left in its last durable state; Err keeps the cause
// for reconciliation.
type ErrExternalService struct {
	Service string
	Code    string
	Message string
	Err     error
}

func (e ErrExternalService) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e ErrExternalService) Unwrap() error {
	return e.Err
}

type ErrConfiguration struct {
	Key     string
	Message string
}

func (e ErrConfiguration) Error() string {
	return e.Message
}

// actorID returns the authenticated user id placed in the context by the
// auth middleware. Every audited operation requires it; there is no
// fallback identity.
func actorID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(config.CTX_KEY_USER_ID).(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrValidation{
			Code:    "actor_missing",
			Message: "actor identity not found in context",
		}
	}
	return id, nil
}

func (u Usecase) log() *slog.Logger {
	if u.logger != nil {
		return u.logger
	}
	return slog.Default()
}
