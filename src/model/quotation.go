package model

import (
	"fmt"
	"time"
)

// Stage is one step of the quotation sub-flow
type Stage string

const (
	StageOrigin      Stage = "origin"
	StageDestination Stage = "destination"
	StageVehicle     Stage = "vehicle"
	StageCompleted   Stage = "completed"
)

var stageOrder = map[Stage]int{
	StageOrigin:      0,
	StageDestination: 1,
	StageVehicle:     2,
	StageCompleted:   3,
}

// ParseStage returns the stage named by raw, or false when unknown
func ParseStage(raw string) (Stage, bool) {
	s := Stage(raw)
	_, ok := stageOrder[s]
	return s, ok
}

// Next returns the stage that follows s. Completed is terminal.
func (s Stage) Next() Stage {
	switch s {
	case StageOrigin:
		return StageDestination
	case StageDestination:
		return StageVehicle
	default:
		return StageCompleted
	}
}

// Coordinates is a latitude/longitude pair in decimal degrees
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the pair lies within WGS84 bounds
func (c *Coordinates) Valid() bool {
	return c != nil &&
		c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// Vehicle describes the vehicle to be moved
type Vehicle struct {
	Brand string `json:"brand"`
	Model string `json:"model"`
	Year  int    `json:"year"`
}

// Valid reports whether the descriptor carries a brand, model and plausible year
func (v *Vehicle) Valid() bool {
	if v == nil || v.Brand == "" || v.Model == "" {
		return false
	}
	return v.Year >= 1950 && v.Year <= time.Now().Year()+1
}

// QuotationFields is a partial structured result produced by extraction
type QuotationFields struct {
	Origin      *Coordinates `json:"origin,omitempty"`
	Destination *Coordinates `json:"destination,omitempty"`
	Vehicle     *Vehicle     `json:"vehicle,omitempty"`
}

// Quote is the priced result of a completed quotation
type Quote struct {
	DistanceKm float64 `json:"distance_km"`
	Class      string  `json:"class"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	Default    bool    `json:"default,omitempty"`
}

// QuotationDraft accumulates the caller's answers across stages
type QuotationDraft struct {
	Stage        Stage        `json:"stage"`
	Origin       *Coordinates `json:"origin,omitempty"`
	Destination  *Coordinates `json:"destination,omitempty"`
	Vehicle      *Vehicle     `json:"vehicle,omitempty"`
	ThreadID     string       `json:"thread_id,omitempty"`
	Step         int          `json:"step"`
	IsProcessing bool         `json:"is_processing"`
	IsComplete   bool         `json:"is_complete"`
	Succeeded    bool         `json:"succeeded"`
	Prompt       string       `json:"prompt,omitempty"`
	Quote        *Quote       `json:"quote,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewQuotationDraft starts a draft at the Origin stage
func NewQuotationDraft(threadID string) QuotationDraft {
	return QuotationDraft{
		Stage:     StageOrigin,
		ThreadID:  threadID,
		UpdatedAt: time.Now(),
	}
}

// Apply merges extracted fields and advances the stage when the field the
// current stage requires is now present. It never moves backwards and
// reports whether the stage advanced.
func (d *QuotationDraft) Apply(f *QuotationFields) bool {
	if f == nil {
		return false
	}
	switch d.Stage {
	case StageOrigin:
		if f.Origin.Valid() {
			d.Origin = f.Origin
			d.Stage = d.Stage.Next()
			return true
		}
	case StageDestination:
		if f.Destination.Valid() {
			d.Destination = f.Destination
			d.Stage = d.Stage.Next()
			return true
		}
	case StageVehicle:
		if f.Vehicle.Valid() {
			d.Vehicle = f.Vehicle
			d.Stage = d.Stage.Next()
			return true
		}
	}
	return false
}
