package connector

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsNotFoundSeesWrappedErrors(t *testing.T) {
	err := fmt.Errorf("read website: %w", NewNotFound("website '%s'", "abc"))
	if !IsNotFound(err) {
		t.Error("expected wrapped NotFoundError to be recognized")
	}
	if IsNotFound(errors.New("something else")) {
		t.Error("unrelated errors must not classify as not found")
	}
	if IsNotFound(nil) {
		t.Error("nil must not classify as not found")
	}
}

func TestIsInvalidInput(t *testing.T) {
	err := NewInvalidInput("assets folder is required")
	if !IsInvalidInput(err) {
		t.Error("expected InvalidInputError to be recognized")
	}
	if IsInvalidInput(NewNotFound("x")) {
		t.Error("not-found errors must not classify as invalid input")
	}
}
