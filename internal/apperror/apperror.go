// Package apperror defines the domain error taxonomy shared by every layer.
//
// Services return these errors; handlers and the CLI translate them into
// status codes or messages. Check them with errors.Is against the sentinels.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")

	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrConfiguration      = errors.New("configuration error")
	ErrAuthTimeout        = errors.New("authentication timeout")
	ErrProfileLoadTimeout = errors.New("profile load timeout")

	// ErrPartialLink: the deck document was written but the ownership index
	// was not updated. The deck is left orphaned.
	ErrPartialLink = errors.New("partial link failure")

	// ErrPartialUnlink: the deck document was deleted but its id is still in
	// the ownership index. Materialize skips the dangling id.
	ErrPartialUnlink = errors.New("partial unlink failure")

	ErrEmptyDeck    = errors.New("empty deck")
	ErrSessionEnded = errors.New("study session ended")
)

type AppError struct {
	Err     error  // sentinel
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	ID      string // Optional: id of the resource involved
	Cause   error  // Optional: the failure that produced this error
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the cause so errors.Is matches either.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
		ID:      id,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
		ID:      id,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// Configuration reports an unusable store or identity provider setting.
func Configuration(field, message string) *AppError {
	return &AppError{
		Err:     ErrConfiguration,
		Message: message,
		Field:   field,
	}
}

func AuthTimeout() *AppError {
	return &AppError{
		Err:     ErrAuthTimeout,
		Message: "Authentication timeout. Please reload or sign in again.",
	}
}

func ProfileLoadTimeout() *AppError {
	return &AppError{
		Err:     ErrProfileLoadTimeout,
		Message: "Unable to load your data in time. Please reload or sign in again.",
	}
}

// PartialLink wraps the index update failure that followed a successful
// deck write. deckID names the orphaned deck.
func PartialLink(deckID string, cause error) *AppError {
	return &AppError{
		Err:     ErrPartialLink,
		Message: fmt.Sprintf("deck %s was created but could not be added to your list", deckID),
		ID:      deckID,
		Cause:   cause,
	}
}

// PartialUnlink wraps the index update failure that followed a successful
// deck delete.
func PartialUnlink(deckID string, cause error) *AppError {
	return &AppError{
		Err:     ErrPartialUnlink,
		Message: fmt.Sprintf("deck %s was deleted but could not be removed from your list", deckID),
		ID:      deckID,
		Cause:   cause,
	}
}

func EmptyDeck(deckID string) *AppError {
	return &AppError{
		Err:     ErrEmptyDeck,
		Message: fmt.Sprintf("deck %s has no words to study", deckID),
		ID:      deckID,
	}
}

func SessionEnded() *AppError {
	return &AppError{
		Err:     ErrSessionEnded,
		Message: "study session has ended",
	}
}
