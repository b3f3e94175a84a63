package domain

import "time"

// FieldType is the kind of fillable field placed on a template document.
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldSignature FieldType = "signature"
	FieldDate      FieldType = "date"
	FieldCheckbox  FieldType = "checkbox"
	FieldInitials  FieldType = "initials"
)

func (f FieldType) IsValid() bool {
	switch f {
	case FieldText, FieldSignature, FieldDate, FieldCheckbox, FieldInitials:
		return true
	}
	return false
}

// Field is a fillable area on a template page. Coordinates are fractions of
// the page size so they survive rendering at any resolution.
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Page     int       `json:"page"`
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	W        float64   `json:"w"`
	H        float64   `json:"h"`
}

// Template is a reusable document with fillable fields. The source document
// lives in blob storage under DocumentKey; Fields is stored as JSONB.
type Template struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	Name        string    `json:"name"`
	DocumentKey string    `json:"document_key"`
	Fields      []Field   `json:"fields"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SaveTemplateRequest is the inbound payload for creating or updating a template.
type SaveTemplateRequest struct {
	Name        string  `json:"name"`
	DocumentKey string  `json:"document_key"`
	Fields      []Field `json:"fields"`
}

func (r *SaveTemplateRequest) Validate() error {
	if r.Name == "" {
		return ErrInvalidName
	}
	for _, f := range r.Fields {
		if !f.Type.IsValid() {
			return ErrInvalidFieldType
		}
		if f.Name == "" {
			return ErrInvalidName
		}
	}
	return nil
}

// TemplateFilter holds query parameters for paginated template listing.
type TemplateFilter struct {
	Page  int
	Limit int
}
