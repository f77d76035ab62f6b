package validator

import (
	"strings"
	"testing"
)

type submissionPayload struct {
	UserID    string `json:"user_id" validate:"required,uuid4"`
	FullName  string `json:"full_name" validate:"required"`
	Document  string `json:"document_image" validate:"required,base64"`
	BirthDate string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(submissionPayload{})
	if err == nil {
		t.Fatal("expected validation failures")
	}

	ve, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}

	msg := ve.Error()
	for _, field := range []string{"user_id", "full_name", "document_image"} {
		if !strings.Contains(msg, field) {
			t.Fatalf("expected %q in %q", field, msg)
		}
	}
}

func TestValidateStructPasses(t *testing.T) {
	payload := submissionPayload{
		UserID:    "0b3f2fd2-7f1b-4f87-9a77-0e17e6b4a9a1",
		FullName:  "Amina Diallo",
		Document:  "aGVsbG8=",
		BirthDate: "1991-04-12",
	}

	if err := ValidateStruct(payload); err != nil {
		t.Fatalf("expected payload to validate, got %v", err)
	}
}

func TestUINRule(t *testing.T) {
	type claim struct {
		UIN string `json:"uin" validate:"omitempty,uin"`
	}

	if err := ValidateStruct(claim{}); err != nil {
		t.Fatalf("empty claimed identifier must pass: %v", err)
	}
	if err := ValidateStruct(claim{UIN: "UIN-ABCDEFGHJKMN"}); err != nil {
		t.Fatalf("well-formed identifier must pass: %v", err)
	}
	if err := ValidateStruct(claim{UIN: "not-a-uin"}); err == nil {
		t.Fatal("malformed identifier must fail")
	}
}
