package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind labels a business-rule violation. Each kind implies a distinct
// corrective action for the caller, so handlers surface it verbatim.
type Kind string

const (
	KindNotFound               Kind = "NOT_FOUND"
	KindDraftAlreadyExists     Kind = "DRAFT_ALREADY_EXISTS"
	KindNotEditable            Kind = "NOT_EDITABLE"
	KindInvalidTransition      Kind = "INVALID_TRANSITION"
	KindIncompletePolicy       Kind = "INCOMPLETE_POLICY"
	KindConcurrentModification Kind = "CONCURRENT_MODIFICATION"
	KindInvalidRollout         Kind = "INVALID_ROLLOUT"
	KindInvalidArgument        Kind = "INVALID_ARGUMENT"
	KindForbidden              Kind = "FORBIDDEN"
)

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Kind != "" {
		return string(e.Kind)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the business kind from an error chain. The second return
// is false for infrastructure failures, which callers treat as transient.
func KindOf(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return "", false
}

func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// HTTPStatus maps a kind to the status the embedding UI expects.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindDraftAlreadyExists, KindConcurrentModification:
		return http.StatusConflict
	case KindNotEditable, KindInvalidTransition, KindIncompletePolicy,
		KindInvalidRollout, KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
