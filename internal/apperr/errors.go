// Package apperr defines the error kinds surfaced by the vault service.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable category of an error.
type Kind string

// Error kinds.
const (
	KindBadRequest       Kind = "bad_request"
	KindForbidden        Kind = "forbidden"
	KindNotFound         Kind = "not_found"
	KindUnsupportedType  Kind = "unsupported_type"
	KindVaultUnavailable Kind = "vault_unavailable"
	KindInternal         Kind = "internal"
)

// Error carries a kind, a client-facing message and the underlying cause.
// Message is safe to return to clients; Err is for operators only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so callers can write
// errors.Is(err, apperr.ErrNotFound).
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrBadRequest       = &Error{Kind: KindBadRequest, Message: "bad request"}
	ErrForbidden        = &Error{Kind: KindForbidden, Message: "access denied"}
	ErrNotFound         = &Error{Kind: KindNotFound, Message: "file not found"}
	ErrUnsupportedType  = &Error{Kind: KindUnsupportedType, Message: "unsupported file type"}
	ErrVaultUnavailable = &Error{Kind: KindVaultUnavailable, Message: "failed to read file tree"}
	ErrInternal         = &Error{Kind: KindInternal, Message: "failed to read file"}
)

// BadRequest reports a missing or malformed request parameter.
func BadRequest(msg string) error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

// Forbidden reports a failed containment check. The cause is kept for logs
// and must not be echoed to clients.
func Forbidden(cause error) error {
	return &Error{Kind: KindForbidden, Message: "access denied", Err: cause}
}

// NotFound reports a path that does not exist in the vault.
func NotFound(cause error) error {
	return &Error{Kind: KindNotFound, Message: "file not found", Err: cause}
}

// UnsupportedType reports a file whose type the service does not serve.
func UnsupportedType(mime string) error {
	return &Error{Kind: KindUnsupportedType, Message: "unsupported file type", Err: fmt.Errorf("mime type %s", mime)}
}

// VaultUnavailable reports that the vault root is missing or unreadable.
func VaultUnavailable(cause error) error {
	return &Error{Kind: KindVaultUnavailable, Message: "failed to read file tree", Err: cause}
}

// Internal reports an unexpected I/O failure.
func Internal(cause error) error {
	return &Error{Kind: KindInternal, Message: "failed to read file", Err: cause}
}

// KindOf returns the kind of err, or KindInternal for errors that are not
// *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the client-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ErrInternal.Message
}
