package leads

import (
	"strings"
	"time"
)

// Form sources produced by the site's wizards and contact forms.
const (
	SourceResidential = "residential"
	SourceCommercial  = "commercial"
	SourceContact     = "contact"
	SourceQuickQuote  = "quick-quote"
)

// Payload is the normalized lead submitted by a form.
type Payload struct {
	Name                    string     `json:"name"`
	Email                   string     `json:"email"`
	Phone                   string     `json:"phone,omitempty"`
	ProjectType             string     `json:"projectType,omitempty"`
	City                    string     `json:"city,omitempty"`
	Timeline                string     `json:"timeline,omitempty"`
	Message                 string     `json:"message,omitempty"`
	CompanyName             string     `json:"companyName,omitempty"`
	BusinessType            string     `json:"businessType,omitempty"`
	SquareFootage           string     `json:"squareFootage,omitempty"`
	EstimatedBudget         string     `json:"estimatedBudget,omitempty"`
	FormSource              string     `json:"formSource"`
	SMSConsentTransactional *bool      `json:"smsConsentTransactional,omitempty"`
	SMSConsentMarketing     *bool      `json:"smsConsentMarketing,omitempty"`
	ConsentTimestamp        *time.Time `json:"consentTimestamp,omitempty"`
}

// Normalize trims every text field and reduces the phone to its digits.
func (p *Payload) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = NormalizePhone(p.Phone)
	p.ProjectType = strings.TrimSpace(p.ProjectType)
	p.City = strings.TrimSpace(p.City)
	p.Timeline = strings.TrimSpace(p.Timeline)
	p.Message = strings.TrimSpace(p.Message)
	p.CompanyName = strings.TrimSpace(p.CompanyName)
	p.BusinessType = strings.TrimSpace(p.BusinessType)
	p.SquareFootage = strings.TrimSpace(p.SquareFootage)
	p.EstimatedBudget = strings.TrimSpace(p.EstimatedBudget)
	p.FormSource = strings.ToLower(strings.TrimSpace(p.FormSource))
}

// HasConsent reports whether either SMS consent flag was granted.
func (p *Payload) HasConsent() bool {
	return (p.SMSConsentTransactional != nil && *p.SMSConsentTransactional) ||
		(p.SMSConsentMarketing != nil && *p.SMSConsentMarketing)
}

// Lead is the durable record of a submission.
type Lead struct {
	Payload
	ID             string    `json:"id"`
	SyncedToSheets bool      `json:"synced_to_sheets"`
	SyncedToGHL    bool      `json:"synced_to_ghl"`
	GHLContactID   *string   `json:"ghl_contact_id"`
	SyncErrors     []string  `json:"sync_errors"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SyncUpdate is the single post-fan-out status write for a lead.
type SyncUpdate struct {
	SyncedToSheets bool
	SyncedToGHL    bool
	GHLContactID   string
	SyncErrors     []string
}

// ListFilter narrows admin lead listings.
type ListFilter struct {
	Limit      int
	Offset     int
	FormSource string
	// Unsynced limits results to leads missing a sheet or CRM sync.
	Unsynced bool
}
