package crm

import (
	"strings"

	"github.com/wolfman30/renovation-leads/internal/leads"
)

// BaseTag is applied to every contact created from the website.
const BaseTag = "website-lead"

// HotLeadTag marks contacts that shared an estimated budget.
const HotLeadTag = "hot-lead"

// SMSOptInTag marks contacts that granted any SMS consent.
const SMSOptInTag = "sms-opt-in"

var sourceTags = map[string][]string{
	leads.SourceResidential: {"residential"},
	leads.SourceCommercial:  {"commercial", "b2b"},
	leads.SourceContact:     {"contact-form"},
	leads.SourceQuickQuote:  {"quick-quote"},
}

// CustomField is a GoHighLevel custom field value keyed by field key.
type CustomField struct {
	Key        string `json:"key"`
	FieldValue string `json:"field_value"`
}

// Contact is the contact-creation body sent to GoHighLevel.
type Contact struct {
	FirstName    string        `json:"firstName"`
	LastName     string        `json:"lastName,omitempty"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone,omitempty"`
	CompanyName  string        `json:"companyName,omitempty"`
	City         string        `json:"city,omitempty"`
	LocationID   string        `json:"locationId"`
	Source       string        `json:"source"`
	Tags         []string      `json:"tags"`
	CustomFields []CustomField `json:"customFields,omitempty"`
}

// BuildContact maps a lead payload to a GoHighLevel contact. It performs no
// I/O; the location id is filled in by the client.
func BuildContact(p *leads.Payload) Contact {
	first, last := splitName(p.Name)
	return Contact{
		FirstName:    first,
		LastName:     last,
		Name:         p.Name,
		Email:        p.Email,
		Phone:        formatPhone(p.Phone),
		CompanyName:  p.CompanyName,
		City:         p.City,
		Source:       "Website - " + sourceLabel(p.FormSource),
		Tags:         BuildTags(p),
		CustomFields: BuildCustomFields(p),
	}
}

// BuildTags computes the ordered, de-duplicated tag list for a payload.
func BuildTags(p *leads.Payload) []string {
	tags := []string{BaseTag}
	if extra, ok := sourceTags[p.FormSource]; ok {
		tags = append(tags, extra...)
	} else if s := slugify(p.FormSource); s != "" {
		tags = append(tags, s)
	}
	if s := slugify(p.ProjectType); s != "" {
		tags = append(tags, s)
	}
	if s := slugify(p.City); s != "" {
		tags = append(tags, "city-"+s)
	}
	if s := slugify(p.Timeline); s != "" {
		tags = append(tags, "timeline-"+s)
	}
	if p.EstimatedBudget != "" {
		tags = append(tags, HotLeadTag)
	}
	if p.HasConsent() {
		tags = append(tags, SMSOptInTag)
	}
	return dedupe(tags)
}

// BuildCustomFields mirrors every filled optional payload field.
func BuildCustomFields(p *leads.Payload) []CustomField {
	candidates := []CustomField{
		{Key: "project_type", FieldValue: p.ProjectType},
		{Key: "city", FieldValue: p.City},
		{Key: "timeline", FieldValue: p.Timeline},
		{Key: "estimated_budget", FieldValue: p.EstimatedBudget},
		{Key: "company_name", FieldValue: p.CompanyName},
		{Key: "business_type", FieldValue: p.BusinessType},
		{Key: "square_footage", FieldValue: p.SquareFootage},
		{Key: "form_source", FieldValue: p.FormSource},
		{Key: "project_description", FieldValue: p.Message},
	}
	var out []CustomField
	for _, f := range candidates {
		if f.FieldValue != "" {
			out = append(out, f)
		}
	}
	return out
}

func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	first, last, _ := strings.Cut(name, " ")
	return first, strings.TrimSpace(last)
}

// formatPhone renders a digits-only phone in E.164, assuming US numbers for
// ten-digit input.
func formatPhone(digits string) string {
	switch {
	case digits == "":
		return ""
	case len(digits) == 10:
		return "+1" + digits
	default:
		return "+" + digits
	}
}

func sourceLabel(source string) string {
	switch source {
	case leads.SourceResidential:
		return "Residential Form"
	case leads.SourceCommercial:
		return "Commercial Form"
	case leads.SourceContact:
		return "Contact Form"
	case leads.SourceQuickQuote:
		return "Quick Quote"
	case "":
		return "Unknown"
	default:
		return source
	}
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func dedupe(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := tags[:0]
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
