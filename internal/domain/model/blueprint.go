package model

import "time"

// UnknownSign stands in for any sign the astrology provider did not return.
const UnknownSign = "Unknown"

// Human design types.
const (
	TypeGenerator  = "Generator"
	TypeProjector  = "Projector"
	TypeManifestor = "Manifestor"
	TypeReflector  = "Reflector"
)

// Human design authorities.
const (
	AuthoritySacral    = "Sacral"
	AuthorityEmotional = "Emotional"
	AuthoritySplenic   = "Splenic"
	AuthorityLunar     = "Lunar"
)

// AstrologyResult holds the signs looked up for a birth moment.
type AstrologyResult struct {
	SunSign    string `json:"sun_sign"`
	MoonSign   string `json:"moon_sign"`
	RisingSign string `json:"rising_sign"`
}

// HumanDesign is the type/authority pair derived from the birth hour.
type HumanDesign struct {
	Type      string `json:"type"`
	Authority string `json:"authority"`
}

// Report is the rendering context for one blueprint.
type Report struct {
	RequestID   string
	Name        string
	SunSign     string
	MoonSign    string
	Rising      string
	HDType      string
	Authority   string
	LifePath    int
	GeneratedAt time.Time
}

// NewReport merges the derived values into a rendering context.
func NewReport(requestID string, p BirthProfile, astro AstrologyResult, hd HumanDesign, lifePath int, at time.Time) Report {
	return Report{
		RequestID:   requestID,
		Name:        p.Name,
		SunSign:     astro.SunSign,
		MoonSign:    astro.MoonSign,
		Rising:      astro.RisingSign,
		HDType:      hd.Type,
		Authority:   hd.Authority,
		LifePath:    lifePath,
		GeneratedAt: at,
	}
}

// Result is what a completed request reports back.
type Result struct {
	RequestID string `json:"request_id"`
	Message   string `json:"message"`
	PDFPath   string `json:"pdf_path"`
	Notified  bool   `json:"notified"`
}
