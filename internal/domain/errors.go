package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every specific error below wraps exactly one of them so callers
// can branch on the kind with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

var (
	ErrSessionNotFound     = fmt.Errorf("session %w", ErrNotFound)
	ErrParticipantNotFound = fmt.Errorf("participant %w", ErrNotFound)

	ErrNotParticipant    = fmt.Errorf("%w: caller is not a participant", ErrUnauthorized)
	ErrNotCreator        = fmt.Errorf("%w: only the session creator may do this", ErrUnauthorized)
	ErrReadOnlyViolation = fmt.Errorf("%w: session is read-only", ErrUnauthorized)

	ErrSessionInactive = fmt.Errorf("%w: session is inactive", ErrConflict)
	ErrSessionFull     = fmt.Errorf("%w: session is full", ErrConflict)
	ErrJoinNotAllowed  = fmt.Errorf("%w: session does not allow joining", ErrConflict)
	ErrTokenCollision  = fmt.Errorf("%w: session token already in use", ErrConflict)

	ErrInvalidSettings = fmt.Errorf("%w: invalid session settings", ErrInvalidInput)
	ErrInvalidSignal   = fmt.Errorf("%w: invalid signal", ErrInvalidInput)
	ErrInvalidCursor   = fmt.Errorf("%w: invalid cursor", ErrInvalidInput)
	ErrEmptyMessage    = fmt.Errorf("%w: chat message cannot be empty", ErrInvalidInput)
	ErrMessageTooLong  = fmt.Errorf("%w: chat message is too long", ErrInvalidInput)
	ErrDocumentTooBig  = fmt.Errorf("%w: document exceeds size limit", ErrInvalidInput)
)
