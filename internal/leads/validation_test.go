package leads

import (
	"errors"
	"strings"
	"testing"
)

func validPayload() *Payload {
	return &Payload{
		Name:       "Jane Doe",
		Email:      "jane@example.com",
		Phone:      "4045550100",
		FormSource: SourceResidential,
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	out := map[string]string{}
	for _, f := range verr.Fields {
		out[f.Field] = f.Message
	}
	return out
}

func TestValidatePayload_Valid(t *testing.T) {
	if err := ValidatePayload(validPayload()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidatePayload_RequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Payload)
		field  string
	}{
		{"missing name", func(p *Payload) { p.Name = "" }, FieldName},
		{"blank name", func(p *Payload) { p.Name = "   " }, FieldName},
		{"missing email", func(p *Payload) { p.Email = "" }, FieldEmail},
		{"email without at", func(p *Payload) { p.Email = "jane.example.com" }, FieldEmail},
		{"missing form source", func(p *Payload) { p.FormSource = "" }, FieldFormSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			tt.mutate(p)
			fields := fieldsOf(t, ValidatePayload(p))
			if _, ok := fields[tt.field]; !ok {
				t.Fatalf("expected error on %s, got %v", tt.field, fields)
			}
		})
	}
}

func TestValidatePayload_PhoneDigits(t *testing.T) {
	tests := []struct {
		phone string
		ok    bool
	}{
		{"", true},
		{"404-555-0100", true},
		{"+1 (404) 555-0100", true},
		{"123456789012345", true},
		{"555-0100", false},
		{"1234567890123456", false},
		{"abc", false},
		{"٤٠٤٥٥", false},
		{"٤٠٤٥٥٥٠١٠٠", false},
		{"４０４５５５０１００", false},
	}
	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			p := validPayload()
			p.Phone = tt.phone
			err := ValidatePayload(p)
			if tt.ok && err != nil {
				t.Fatalf("expected phone %q to pass, got %v", tt.phone, err)
			}
			if !tt.ok {
				if _, bad := fieldsOf(t, err)[FieldPhone]; !bad {
					t.Fatalf("expected phone error for %q", tt.phone)
				}
			}
		})
	}
}

func TestValidatePayload_OptionalLengths(t *testing.T) {
	p := validPayload()
	p.City = strings.Repeat("a", 101)
	p.Timeline = ""
	fields := fieldsOf(t, ValidatePayload(p))
	if len(fields) != 1 {
		t.Fatalf("expected only the city error, got %v", fields)
	}
	if !strings.Contains(fields[FieldCity], "100") {
		t.Fatalf("unexpected city message %q", fields[FieldCity])
	}
}

func TestValidatePayload_Nil(t *testing.T) {
	if err := ValidatePayload(nil); err == nil {
		t.Fatal("expected error for nil payload")
	}
}

func TestValidationErrorDetails(t *testing.T) {
	err := &ValidationError{Fields: []FieldError{
		{Field: "name", Message: "Name is required"},
		{Field: "email", Message: "Please enter a valid email address"},
	}}
	details := err.Details()
	if len(details) != 2 || details[0] != "name: Name is required" {
		t.Fatalf("unexpected details %v", details)
	}
	if !strings.HasPrefix(err.Error(), "validation failed: ") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestNormalize(t *testing.T) {
	p := &Payload{
		Name:       "  Jane Doe ",
		Email:      " jane@example.com ",
		Phone:      "404-555-0100",
		FormSource: " Residential ",
		City:       " Atlanta ",
	}
	p.Normalize()
	if p.Name != "Jane Doe" || p.Email != "jane@example.com" || p.City != "Atlanta" {
		t.Fatalf("expected trimmed fields, got %+v", p)
	}
	if p.Phone != "4045550100" {
		t.Fatalf("expected normalized phone, got %q", p.Phone)
	}
	if p.FormSource != SourceResidential {
		t.Fatalf("expected lower-cased form source, got %q", p.FormSource)
	}
}

func TestHasConsent(t *testing.T) {
	yes, no := true, false
	if (&Payload{}).HasConsent() {
		t.Fatal("expected no consent without flags")
	}
	if (&Payload{SMSConsentTransactional: &no, SMSConsentMarketing: &no}).HasConsent() {
		t.Fatal("expected no consent when both flags false")
	}
	if !(&Payload{SMSConsentMarketing: &yes}).HasConsent() {
		t.Fatal("expected consent when marketing flag set")
	}
}

func TestNormalizePhone_KeepsASCIIDigitsOnly(t *testing.T) {
	tests := map[string]string{
		"+1 (404) 555-0100": "14045550100",
		"٤٠٤٥٥":             "",
		"404٥55-0100":       "404550100",
		"４０４":               "",
	}
	for in, want := range tests {
		if got := NormalizePhone(in); got != want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}
