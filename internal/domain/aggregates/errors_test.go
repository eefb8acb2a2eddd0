package aggregates

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewValidationErrorCarriesViolations(t *testing.T) {
	err := NewValidationError("ShoppingCart.Create",
		Violation{Field: "status", Reason: ReasonRequired},
		Violation{Field: "totalPrice", Reason: ReasonRequired},
	)
	if !IsCode(err, CodeValidation) {
		t.Fatalf("expected validation code, got %q", CodeOf(err))
	}
	got := ViolationsOf(fmt.Errorf("wrapped: %w", err))
	if len(got) != 2 || got[0].Field != "status" || got[1].Field != "totalPrice" {
		t.Fatalf("unexpected violations: %+v", got)
	}
	if want := "ShoppingCart.Create: status: required; totalPrice: required (validation)"; err.Error() != want {
		t.Fatalf("message: want %q got %q", want, err.Error())
	}
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("Product.FindOne", "product", "abc")
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		t.Fatalf("expected *Error")
	}
	if aggErr.Code != CodeNotFound || aggErr.EntityID != "abc" || aggErr.Entity != "product" {
		t.Fatalf("unexpected error: %+v", aggErr)
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(CodeInternal, "op", nil) != nil {
		t.Fatalf("wrap of nil must be nil")
	}
}

func TestCodeOfPlainError(t *testing.T) {
	if CodeOf(errors.New("boom")) != "" {
		t.Fatalf("plain errors carry no code")
	}
	if IsCode(nil, CodeConflict) {
		t.Fatalf("nil error has no code")
	}
}
