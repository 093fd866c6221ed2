package wizard

import (
	"fmt"
	"strings"

	"github.com/wolfman30/renovation-leads/internal/leads"
)

// Step indexes. Review is the last data step; submission only starts there.
const (
	StepBasicInfo = iota
	StepProjectDetails
	StepDescription
	StepReview
)

// StepSchema lists the fields one step validates.
type StepSchema struct {
	Title    string
	Required []string
	Optional []string
}

// Validate checks the step's fields against the shared lead rules. Filled
// optional fields are held to the same rules as required ones.
func (s StepSchema) Validate(f *Fields) []leads.FieldError {
	var errs []leads.FieldError
	check := func(field string, required bool) {
		value, err := f.Get(field)
		if err != nil {
			errs = append(errs, leads.FieldError{Field: field, Message: err.Error()})
			return
		}
		if msg := leads.CheckField(field, strings.TrimSpace(value), required); msg != "" {
			errs = append(errs, leads.FieldError{Field: field, Message: msg})
		}
	}
	for _, field := range s.Required {
		check(field, true)
	}
	for _, field := range s.Optional {
		check(field, false)
	}
	return errs
}

// Variant is one flavour of the wizard: its draft key, the form source it
// submits with and the per-step schemas.
type Variant struct {
	Name       string
	DraftKey   string
	FormSource string
	Steps      []StepSchema
}

var (
	Residential = Variant{
		Name:       "residential",
		DraftKey:   "residential-form-draft",
		FormSource: leads.SourceResidential,
		Steps: []StepSchema{
			{
				Title:    "Basic Info",
				Required: []string{leads.FieldName, leads.FieldEmail, leads.FieldPhone},
			},
			{
				Title:    "Project Details",
				Required: []string{leads.FieldProjectType},
				Optional: []string{leads.FieldCity, leads.FieldTimeline, leads.FieldEstimatedBudget},
			},
			{
				Title:    "Description",
				Required: []string{leads.FieldMessage},
			},
			{Title: "Review"},
		},
	}

	Commercial = Variant{
		Name:       "commercial",
		DraftKey:   "commercial-form-draft",
		FormSource: leads.SourceCommercial,
		Steps: []StepSchema{
			{
				Title:    "Basic Info",
				Required: []string{leads.FieldName, leads.FieldEmail, leads.FieldPhone},
				Optional: []string{leads.FieldCompanyName},
			},
			{
				Title:    "Project Details",
				Required: []string{leads.FieldProjectType, leads.FieldBusinessType},
				Optional: []string{leads.FieldSquareFootage, leads.FieldCity, leads.FieldTimeline, leads.FieldEstimatedBudget},
			},
			{
				Title:    "Description",
				Required: []string{leads.FieldMessage},
			},
			{Title: "Review"},
		},
	}
)

// VariantByName resolves "residential" or "commercial".
func VariantByName(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case Residential.Name:
		return Residential, nil
	case Commercial.Name:
		return Commercial, nil
	}
	return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

// ReviewStep is the index of the final step.
func (v Variant) ReviewStep() int {
	return len(v.Steps) - 1
}
