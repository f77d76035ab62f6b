package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestErrorIncludesInternal(t *testing.T) {
	internal := stdErrors.New("boom")
	err := Wrap(internal, "failed")

	if err.Error() != "failed: boom" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
}

func TestWithInternalCopies(t *testing.T) {
	base := New("TEST", "test", 400)
	with := base.WithInternal(stdErrors.New("oops"))

	if with == base {
		t.Fatal("expected WithInternal to return a copy")
	}

	if base.Internal != nil {
		t.Fatal("expected original error to remain unchanged")
	}
}

func TestWithMessageCopies(t *testing.T) {
	with := ErrBadRequest.WithMessage("document image is required")

	if with == ErrBadRequest {
		t.Fatal("expected WithMessage to return a copy")
	}
	if with.Message != "document image is required" {
		t.Fatalf("unexpected message: %s", with.Message)
	}
	if with.Code != ErrBadRequest.Code {
		t.Fatalf("expected code to be preserved, got %s", with.Code)
	}
}

func TestFromError(t *testing.T) {
	if out := FromError(ErrNotFound); out != ErrNotFound {
		t.Fatal("expected FromError to return the same AppError instance")
	}

	raw := stdErrors.New("raw")
	out := FromError(raw)
	if out.Code != ErrInternalServer.Code {
		t.Fatalf("expected internal server code, got %s", out.Code)
	}
	if out.Internal == nil {
		t.Fatal("expected internal error to be attached")
	}
}

func TestServiceUnavailableIsDistinct(t *testing.T) {
	if ErrServiceUnavailable.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: %d", ErrServiceUnavailable.StatusCode)
	}
	if ErrServiceUnavailable.Code == ErrInternalServer.Code {
		t.Fatal("service unavailable must be distinguishable from internal errors")
	}
}
