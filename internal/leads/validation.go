package leads

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Field names shared by the payload validator and the wizard step schemas.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPhone           = "phone"
	FieldProjectType     = "projectType"
	FieldCity            = "city"
	FieldTimeline        = "timeline"
	FieldMessage         = "message"
	FieldCompanyName     = "companyName"
	FieldBusinessType    = "businessType"
	FieldSquareFootage   = "squareFootage"
	FieldEstimatedBudget = "estimatedBudget"
	FieldFormSource      = "formSource"
)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindEmail
	kindPhone
)

type fieldRule struct {
	label  string
	maxLen int
	kind   fieldKind
}

var fieldRules = map[string]fieldRule{
	FieldName:            {label: "Name", maxLen: 100},
	FieldEmail:           {label: "Email", maxLen: 254, kind: kindEmail},
	FieldPhone:           {label: "Phone", kind: kindPhone},
	FieldProjectType:     {label: "Project type", maxLen: 50},
	FieldCity:            {label: "City", maxLen: 100},
	FieldTimeline:        {label: "Timeline", maxLen: 50},
	FieldMessage:         {label: "Message", maxLen: 5000},
	FieldCompanyName:     {label: "Company name", maxLen: 200},
	FieldBusinessType:    {label: "Business type", maxLen: 100},
	FieldSquareFootage:   {label: "Square footage", maxLen: 50},
	FieldEstimatedBudget: {label: "Estimated budget", maxLen: 50},
	FieldFormSource:      {label: "Form source", maxLen: 50},
}

// NormalizePhone keeps only the ASCII digits 0-9.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for i := 0; i < len(phone); i++ {
		if c := phone[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// CheckField validates a single field value. An empty optional value passes;
// a filled optional value is held to the same rules as a required one.
// It returns the empty string when the value is valid.
func CheckField(field, value string, required bool) string {
	rule, ok := fieldRules[field]
	if !ok {
		rule = fieldRule{label: field}
	}
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			return rule.label + " is required"
		}
		return ""
	}

	switch rule.kind {
	case kindEmail:
		if !strings.Contains(value, "@") {
			return "Please enter a valid email address"
		}
	case kindPhone:
		digits := len(NormalizePhone(value))
		if digits < minPhoneDigits || digits > maxPhoneDigits {
			return fmt.Sprintf("Phone must contain %d to %d digits", minPhoneDigits, maxPhoneDigits)
		}
	}

	if rule.maxLen > 0 && utf8.RuneCountInString(value) > rule.maxLen {
		return fmt.Sprintf("%s must be at most %d characters", rule.label, rule.maxLen)
	}
	return ""
}

// ValidatePayload checks the hard requirements of a submission: name, email
// and form source are present, and a present phone has 10 to 15 digits.
// Optional fields are length-checked only when filled.
func ValidatePayload(p *Payload) error {
	if p == nil {
		return &ValidationError{Fields: []FieldError{{Field: "body", Message: "Request body is required"}}}
	}

	checks := []struct {
		field    string
		value    string
		required bool
	}{
		{FieldName, p.Name, true},
		{FieldEmail, p.Email, true},
		{FieldPhone, p.Phone, false},
		{FieldProjectType, p.ProjectType, false},
		{FieldCity, p.City, false},
		{FieldTimeline, p.Timeline, false},
		{FieldMessage, p.Message, false},
		{FieldCompanyName, p.CompanyName, false},
		{FieldBusinessType, p.BusinessType, false},
		{FieldSquareFootage, p.SquareFootage, false},
		{FieldEstimatedBudget, p.EstimatedBudget, false},
		{FieldFormSource, p.FormSource, true},
	}

	var errs []FieldError
	for _, c := range checks {
		if msg := CheckField(c.field, c.value, c.required); msg != "" {
			errs = append(errs, FieldError{Field: c.field, Message: msg})
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
