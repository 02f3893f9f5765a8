package validation

import (
	stderrors "errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/kbukum/mediator/errors"
)

type createOrder struct {
	Customer string `json:"customer" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"min=1"`
	Note     string `validate:"max=5"`
	Channel  string `json:"channel" validate:"omitempty,oneof=web api"`
}

type transfer struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

func (t transfer) Validate() error {
	if t.From == t.To {
		return stderrors.New("from and to must differ")
	}
	return nil
}

func TestValidate_Valid(t *testing.T) {
	cmd := createOrder{Customer: uuid.New().String(), Quantity: 2, Channel: "web"}
	if err := Validate(cmd); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := Validate(&cmd); err != nil {
		t.Errorf("expected no error for pointer, got %v", err)
	}
}

func TestValidate_FieldErrors(t *testing.T) {
	err := Validate(createOrder{Customer: "not-a-uuid", Quantity: 0, Note: "too long", Channel: "fax"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected code %s, got %s", errors.ErrCodeInvalidInput, appErr.Code)
	}
	if appErr.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", appErr.HTTPStatus)
	}

	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok {
		t.Fatalf("expected []FieldError details, got %T", appErr.Details["fields"])
	}
	expected := map[string]string{
		"customer": "must be a valid UUID",
		"quantity": "must be at least 1",
		"note":     "must be at most 5 characters",
		"channel":  "must be one of: web api",
	}
	got := make(map[string]string, len(fields))
	for _, f := range fields {
		got[f.Field] = f.Message
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
	if !strings.Contains(appErr.Message, "customer: must be a valid UUID") {
		t.Errorf("expected message to list fields, got %q", appErr.Message)
	}
}

func TestValidate_Validatable(t *testing.T) {
	err := Validate(transfer{From: "a", To: "a"})
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Message != "from and to must differ" {
		t.Errorf("expected custom message, got %q", appErr.Message)
	}

	// tags run first
	err = Validate(transfer{})
	if appErr, _ := errors.AsAppError(err); appErr == nil || !strings.Contains(appErr.Message, "from: is required") {
		t.Errorf("expected required error, got %v", err)
	}
}

func TestValidate_NonStructAndNil(t *testing.T) {
	var nilPtr *createOrder
	for _, v := range []any{nil, nilPtr, 42, "text"} {
		if err := Validate(v); err != nil {
			t.Errorf("%v: expected no error, got %v", v, err)
		}
	}
}

func TestRegisterRule(t *testing.T) {
	if err := RegisterRule("even", func(v reflect.Value) bool { return v.Int()%2 == 0 }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	type batch struct {
		Size int `json:"size" validate:"even"`
	}
	if err := Validate(batch{Size: 4}); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	err := Validate(batch{Size: 3})
	if appErr, _ := errors.AsAppError(err); appErr == nil || !strings.Contains(appErr.Message, "size: failed even check") {
		t.Errorf("expected even failure, got %v", err)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{"Note": "note", "CreatedAt": "created_at", "id": "id"}
	for in, expected := range tests {
		if got := toSnakeCase(in); got != expected {
			t.Errorf("%s: expected %s, got %s", in, expected, got)
		}
	}
}
