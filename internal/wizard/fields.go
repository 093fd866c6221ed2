package wizard

import (
	"fmt"

	"github.com/wolfman30/renovation-leads/internal/leads"
)

// Fields is the draft a visitor is filling in. It is also the stored draft
// value, so it carries no step position.
type Fields struct {
	Name                    string `json:"name"`
	Email                   string `json:"email"`
	Phone                   string `json:"phone"`
	ProjectType             string `json:"projectType"`
	City                    string `json:"city"`
	Timeline                string `json:"timeline"`
	EstimatedBudget         string `json:"estimatedBudget"`
	Message                 string `json:"message"`
	CompanyName             string `json:"companyName"`
	BusinessType            string `json:"businessType"`
	SquareFootage           string `json:"squareFootage"`
	SMSConsentTransactional bool   `json:"smsConsentTransactional"`
	SMSConsentMarketing     bool   `json:"smsConsentMarketing"`
}

// Get returns a text field by its wire name.
func (f *Fields) Get(field string) (string, error) {
	p, err := f.ref(field)
	if err != nil {
		return "", err
	}
	return *p, nil
}

// Set assigns a text field by its wire name.
func (f *Fields) Set(field, value string) error {
	p, err := f.ref(field)
	if err != nil {
		return err
	}
	*p = value
	return nil
}

func (f *Fields) ref(field string) (*string, error) {
	switch field {
	case leads.FieldName:
		return &f.Name, nil
	case leads.FieldEmail:
		return &f.Email, nil
	case leads.FieldPhone:
		return &f.Phone, nil
	case leads.FieldProjectType:
		return &f.ProjectType, nil
	case leads.FieldCity:
		return &f.City, nil
	case leads.FieldTimeline:
		return &f.Timeline, nil
	case leads.FieldEstimatedBudget:
		return &f.EstimatedBudget, nil
	case leads.FieldMessage:
		return &f.Message, nil
	case leads.FieldCompanyName:
		return &f.CompanyName, nil
	case leads.FieldBusinessType:
		return &f.BusinessType, nil
	case leads.FieldSquareFootage:
		return &f.SquareFootage, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
}

// Payload converts the draft into a submission for the given form source.
func (f Fields) Payload(formSource string) *leads.Payload {
	p := &leads.Payload{
		Name:            f.Name,
		Email:           f.Email,
		Phone:           leads.NormalizePhone(f.Phone),
		ProjectType:     f.ProjectType,
		City:            f.City,
		Timeline:        f.Timeline,
		Message:         f.Message,
		CompanyName:     f.CompanyName,
		BusinessType:    f.BusinessType,
		SquareFootage:   f.SquareFootage,
		EstimatedBudget: f.EstimatedBudget,
		FormSource:      formSource,
	}
	p.Normalize()
	return p
}
