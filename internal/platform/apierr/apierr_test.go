package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindForbidden, http.StatusForbidden},
		{KindDraftAlreadyExists, http.StatusConflict},
		{KindConcurrentModification, http.StatusConflict},
		{KindNotEditable, http.StatusBadRequest},
		{KindInvalidTransition, http.StatusBadRequest},
		{KindIncompletePolicy, http.StatusBadRequest},
		{KindInvalidRollout, http.StatusBadRequest},
		{KindInvalidArgument, http.StatusBadRequest},
		{Kind("SOMETHING_ELSE"), http.StatusInternalServerError},
		{Kind(""), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatus(c.kind); got != c.want {
			t.Fatalf("HTTPStatus(%s): want=%d got=%d", c.kind, c.want, got)
		}
	}
}

func TestKindOf(t *testing.T) {
	err := New(KindNotEditable, "version %d is locked", 3)
	kind, ok := KindOf(err)
	if !ok || kind != KindNotEditable {
		t.Fatalf("direct error: want=%s ok=true got=%s ok=%v", KindNotEditable, kind, ok)
	}

	// Wrapping keeps the kind reachable.
	wrapped := fmt.Errorf("update draft: %w", err)
	kind, ok = KindOf(wrapped)
	if !ok || kind != KindNotEditable {
		t.Fatalf("wrapped error: want=%s ok=true got=%s ok=%v", KindNotEditable, kind, ok)
	}
	if !IsKind(wrapped, KindNotEditable) {
		t.Fatalf("IsKind through wrap: want=true")
	}
	if IsKind(wrapped, KindNotFound) {
		t.Fatalf("IsKind wrong kind: want=false")
	}

	// Infrastructure failures carry no kind.
	if kind, ok = KindOf(errors.New("connection refused")); ok {
		t.Fatalf("plain error: want ok=false got kind=%s", kind)
	}
	if kind, ok = KindOf(nil); ok {
		t.Fatalf("nil error: want ok=false got kind=%s", kind)
	}
}

func TestErrorMessage(t *testing.T) {
	err := New(KindConcurrentModification, "draft %s changed", "abc")
	if got := err.Error(); got != "draft abc changed" {
		t.Fatalf("formatted message: got %q", got)
	}
	if got := (&Error{Kind: KindForbidden}).Error(); got != string(KindForbidden) {
		t.Fatalf("kind-only message: got %q", got)
	}
	if !errors.Is(err, err.Err) {
		t.Fatalf("Unwrap reaches the cause")
	}
}
