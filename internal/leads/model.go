package leads

import (
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/cgvrzon/arynstal/internal/audit"
)

// Status tracks where a lead stands in the sales funnel. The typical
// progression is new -> contacted -> quoted -> closed; discarded is reachable
// from any non-terminal state.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQuoted    Status = "quoted"
	StatusClosed    Status = "closed"
	StatusDiscarded Status = "discarded"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusQuoted, StatusClosed, StatusDiscarded:
		return true
	}
	return false
}

// Display returns the human-readable label for the status.
func (s Status) Display() string {
	switch s {
	case StatusNew:
		return "New"
	case StatusContacted:
		return "Contacted"
	case StatusQuoted:
		return "Quoted"
	case StatusClosed:
		return "Closed"
	case StatusDiscarded:
		return "Discarded"
	default:
		return string(s)
	}
}

// Source identifies the channel a lead came through.
type Source string

const (
	SourceWeb      Source = "web"
	SourcePhone    Source = "phone"
	SourceReferral Source = "referral"
	SourceOther    Source = "other"
)

func (s Source) Valid() bool {
	switch s {
	case SourceWeb, SourcePhone, SourceReferral, SourceOther:
		return true
	}
	return false
}

// Display returns the human-readable label for the source.
func (s Source) Display() string {
	switch s {
	case SourceWeb:
		return "web form"
	case SourcePhone:
		return "phone call"
	case SourceReferral:
		return "referral"
	case SourceOther:
		return "other channel"
	default:
		return string(s)
	}
}

// Urgency flags how quickly the customer needs the work done.
type Urgency string

const (
	UrgencyNormal Urgency = "normal"
	UrgencyUrgent Urgency = "urgent"
)

func (u Urgency) Valid() bool {
	return u == UrgencyNormal || u == UrgencyUrgent
}

// ContactChannel is how the customer prefers to be reached.
type ContactChannel string

const (
	ContactEmail    ContactChannel = "email"
	ContactPhone    ContactChannel = "phone"
	ContactWhatsApp ContactChannel = "whatsapp"
)

func (c ContactChannel) Valid() bool {
	switch c {
	case ContactEmail, ContactPhone, ContactWhatsApp:
		return true
	}
	return false
}

// Validation bounds for the core lead invariants.
const (
	MinNameLen      = 2
	MinPhoneDigits  = 9
	MaxPhoneDigits  = 15
	MinMessageLen   = 20
	MaxMessageLen   = 1000
	MaxUserAgentLen = 500

	// MaxImagesPerLead caps attachments per lead, enforced at write time.
	MaxImagesPerLead = 5
)

// Lead represents a prospective customer's request.
type Lead struct {
	ID               uuid.UUID      `json:"id"`
	Name             string         `json:"name"`
	Email            string         `json:"email"`
	Phone            string         `json:"phone"`
	Location         string         `json:"location,omitempty"`
	ServiceID        *uuid.UUID     `json:"service_id,omitempty"`
	Message          string         `json:"message"`
	Source           Source         `json:"source"`
	Status           Status         `json:"status"`
	AssignedToID     *uuid.UUID     `json:"assigned_to_id,omitempty"`
	Notes            string         `json:"notes,omitempty"`
	PrivacyAccepted  bool           `json:"privacy_accepted"`
	IPAddress        string         `json:"ip_address,omitempty"`
	UserAgent        string         `json:"user_agent,omitempty"`
	PreferredContact ContactChannel `json:"preferred_contact"`
	Urgency          Urgency        `json:"urgency"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Image is an attachment belonging to exactly one lead. Deleting the lead
// cascades to its images; an image is immutable once stored.
type Image struct {
	ID         uuid.UUID `json:"id"`
	LeadID     uuid.UUID `json:"lead_id"`
	ImagePath  string    `json:"image_path"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// CreateLeadRequest carries everything needed to create a lead.
type CreateLeadRequest struct {
	Name             string         `json:"name"`
	Email            string         `json:"email"`
	Phone            string         `json:"phone"`
	Location         string         `json:"location"`
	ServiceID        *uuid.UUID     `json:"service_id"`
	Message          string         `json:"message"`
	Source           Source         `json:"source"`
	PrivacyAccepted  bool           `json:"privacy_accepted"`
	IPAddress        string         `json:"-"`
	UserAgent        string         `json:"-"`
	PreferredContact ContactChannel `json:"preferred_contact"`
	Urgency          Urgency        `json:"urgency"`

	// Actor is the staff member creating the lead, nil for public submissions.
	Actor *audit.Actor `json:"-"`
}

// Normalize trims inputs, applies defaults and bounds unbounded fields.
func (r *CreateLeadRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Location = strings.TrimSpace(r.Location)
	r.Message = strings.TrimSpace(r.Message)
	if r.Source == "" {
		r.Source = SourceWeb
	}
	if r.PreferredContact == "" {
		r.PreferredContact = ContactEmail
	}
	if r.Urgency == "" {
		r.Urgency = UrgencyNormal
	}
	if utf8.RuneCountInString(r.UserAgent) > MaxUserAgentLen {
		r.UserAgent = string([]rune(r.UserAgent)[:MaxUserAgentLen])
	}
}

// Validate checks the lead invariants and returns a field-keyed validation
// error on failure. Callers should Normalize first.
func (r *CreateLeadRequest) Validate() error {
	ve := NewValidationError()

	if utf8.RuneCountInString(r.Name) < MinNameLen {
		ve.Add("name", "name must be at least 2 characters")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		ve.Add("email", "a valid email address is required")
	}
	if n := len(PhoneDigits(r.Phone)); n < MinPhoneDigits || n > MaxPhoneDigits {
		ve.Add("phone", "phone must contain between 9 and 15 digits")
	}
	if n := utf8.RuneCountInString(r.Message); n < MinMessageLen {
		ve.Add("message", "message must be at least 20 characters")
	} else if n > MaxMessageLen {
		ve.Add("message", "message must not exceed 1000 characters")
	}
	if !r.Source.Valid() {
		ve.Add("source", "unknown source")
	}
	if !r.PreferredContact.Valid() {
		ve.Add("preferred_contact", "unknown contact channel")
	}
	if !r.Urgency.Valid() {
		ve.Add("urgency", "unknown urgency")
	}

	if !ve.Empty() {
		return ve
	}
	return nil
}

// PhoneDigits strips all non-digit characters from a phone number. Formatting
// characters (spaces, dashes, parentheses, a leading +) are tolerated; only
// the resulting digit count is validated.
func PhoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// UpdateLeadParams describes a partial staff-initiated update. Nil pointers
// leave the field untouched; the Clear flags reset nullable references.
type UpdateLeadParams struct {
	Status           *Status
	AssignedToID     *uuid.UUID
	ClearAssignment  bool
	Notes            *string
	Location         *string
	ServiceID        *uuid.UUID
	ClearService     bool
	Urgency          *Urgency
	PreferredContact *ContactChannel
}

// Validate checks the enum fields of a partial update.
func (p *UpdateLeadParams) Validate() error {
	ve := NewValidationError()
	if p.Status != nil && !p.Status.Valid() {
		ve.Add("status", "unknown status")
	}
	if p.Urgency != nil && !p.Urgency.Valid() {
		ve.Add("urgency", "unknown urgency")
	}
	if p.PreferredContact != nil && !p.PreferredContact.Valid() {
		ve.Add("preferred_contact", "unknown contact channel")
	}
	if !ve.Empty() {
		return ve
	}
	return nil
}

// ListFilter narrows and pages lead listings.
type ListFilter struct {
	Status  Status
	Urgency Urgency
	Limit   int
	Offset  int
}
