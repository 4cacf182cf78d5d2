package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("row missing")
	err := NotFound("subscription not found", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to survive errors.Is")
	}
	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("expected errors.As to find AppError")
	}
	if appErr.HTTPStatus != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", appErr.HTTPStatus, http.StatusNotFound)
	}
}

func TestCodeOf(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{NotFound("x", nil), "NOT_FOUND"},
		{BadRequest("x", nil), "BAD_REQUEST"},
		{Forbidden("x", nil), "FORBIDDEN"},
		{Conflict("x", nil), "CONFLICT"},
		{Internal("x", nil), "INTERNAL"},
		{errors.New("plain"), "INTERNAL"},
		{fmt.Errorf("wrapped: %w", Conflict("x", nil)), "CONFLICT"},
		{nil, "INTERNAL"},
	}
	for _, tc := range cases {
		if got := CodeOf(tc.err); got != tc.want {
			t.Fatalf("CodeOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestIsAppError(t *testing.T) {
	if !IsAppError(BadRequest("x", nil)) {
		t.Fatal("expected AppError")
	}
	if IsAppError(errors.New("plain")) {
		t.Fatal("plain error is not an AppError")
	}
}
