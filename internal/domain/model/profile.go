// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/okian/blueprint/internal/domain/failure"
)

// Layouts accepted for birth data.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// BirthProfile is the birth data submitted by a requester.
// Fields mirror the OpenAPI schema for /generate-soul-blueprint.
type BirthProfile struct {
	Name       string `json:"name"`
	BirthDate  string `json:"birth_date"`  // YYYY-MM-DD
	BirthTime  string `json:"birth_time"`  // HH:MM, 24h
	BirthPlace string `json:"birth_place"` // free text
	Email      string `json:"email,omitempty"`
}

// Validate checks that the profile is syntactically usable. Dates and times
// are only parsed; no range checks are applied.
func (p BirthProfile) Validate() error {
	const op = "model.validate"
	switch {
	case strings.TrimSpace(p.Name) == "":
		return failure.Wrap(op, failure.KindValidation, errors.New("missing name"))
	case strings.TrimSpace(p.BirthDate) == "":
		return failure.Wrap(op, failure.KindValidation, errors.New("missing birth_date"))
	case strings.TrimSpace(p.BirthTime) == "":
		return failure.Wrap(op, failure.KindValidation, errors.New("missing birth_time"))
	case strings.TrimSpace(p.BirthPlace) == "":
		return failure.Wrap(op, failure.KindValidation, errors.New("missing birth_place"))
	}
	if _, err := time.Parse(DateLayout, p.BirthDate); err != nil {
		return failure.Wrap(op, failure.KindValidation, errors.New("invalid birth_date; must be YYYY-MM-DD"))
	}
	if _, err := time.Parse(TimeLayout, p.BirthTime); err != nil {
		return failure.Wrap(op, failure.KindValidation, errors.New("invalid birth_time; must be HH:MM"))
	}
	if p.WantsEmail() {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			return failure.Wrap(op, failure.KindValidation, errors.New("invalid email"))
		}
	}
	return nil
}

// WantsEmail reports whether the report should be mailed.
func (p BirthProfile) WantsEmail() bool {
	return strings.TrimSpace(p.Email) != ""
}
