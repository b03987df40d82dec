package model

import "strings"

// Status is the lifecycle state of a service record
type Status string

const (
	StatusToContact  Status = "to_contact"
	StatusInProgress Status = "in_progress"
	StatusConcluded  Status = "concluded"
	StatusCancelled  Status = "cancelled"
	StatusDeadRun    Status = "dead_run"
	StatusUnknown    Status = "unknown"
)

var statusAliases = map[string]Status{
	"to_contact":    StatusToContact,
	"tocontact":     StatusToContact,
	"por_contactar": StatusToContact,
	"in_progress":   StatusInProgress,
	"inprogress":    StatusInProgress,
	"en_proceso":    StatusInProgress,
	"concluded":     StatusConcluded,
	"concluido":     StatusConcluded,
	"concluído":     StatusConcluded,
	"cancelled":     StatusCancelled,
	"canceled":      StatusCancelled,
	"cancelado":     StatusCancelled,
	"dead_run":      StatusDeadRun,
	"deadrun":       StatusDeadRun,
	"muerto":        StatusDeadRun,
}

// ParseStatus maps a backend status string onto the fixed enumeration.
// Unrecognised values become StatusUnknown.
func ParseStatus(raw string) Status {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if s, ok := statusAliases[key]; ok {
		return s
	}
	return StatusUnknown
}

// GeneralInfo is the descriptive section of a record
type GeneralInfo struct {
	ServiceType string `json:"service_type,omitempty" yaml:"service_type"`
	Client      string `json:"client,omitempty" yaml:"client"`
	Description string `json:"description,omitempty" yaml:"description"`
}

func (g *GeneralInfo) IsEmpty() bool {
	return g == nil || (g.ServiceType == "" && g.Client == "" && g.Description == "")
}

// Costs is the billing section of a record
type Costs struct {
	Total    float64 `json:"total,omitempty" yaml:"total"`
	Paid     float64 `json:"paid,omitempty" yaml:"paid"`
	Currency string  `json:"currency,omitempty" yaml:"currency"`
}

func (c *Costs) IsEmpty() bool {
	return c == nil || (c.Total == 0 && c.Paid == 0)
}

// Balance is what remains to be paid
func (c *Costs) Balance() float64 {
	if c == nil {
		return 0
	}
	return c.Total - c.Paid
}

// Unit is the vehicle/crew assigned to the record
type Unit struct {
	Number string `json:"number,omitempty" yaml:"number"`
	Plate  string `json:"plate,omitempty" yaml:"plate"`
	Model  string `json:"model,omitempty" yaml:"model"`
	Driver string `json:"driver,omitempty" yaml:"driver"`
}

func (u *Unit) IsEmpty() bool {
	return u == nil || (u.Number == "" && u.Plate == "" && u.Model == "" && u.Driver == "")
}

// Location is where the unit currently is
type Location struct {
	Address   string  `json:"address,omitempty" yaml:"address"`
	Reference string  `json:"reference,omitempty" yaml:"reference"`
	Latitude  float64 `json:"latitude,omitempty" yaml:"latitude"`
	Longitude float64 `json:"longitude,omitempty" yaml:"longitude"`
}

func (l *Location) IsEmpty() bool {
	return l == nil || (l.Address == "" && l.Reference == "" && l.Latitude == 0 && l.Longitude == 0)
}

// Schedule holds the service milestones, already formatted for speech
type Schedule struct {
	RequestedAt string `json:"requested_at,omitempty" yaml:"requested_at"`
	AssignedAt  string `json:"assigned_at,omitempty" yaml:"assigned_at"`
	ArrivalAt   string `json:"arrival_at,omitempty" yaml:"arrival_at"`
	CompletedAt string `json:"completed_at,omitempty" yaml:"completed_at"`
}

func (s *Schedule) IsEmpty() bool {
	return s == nil || (s.RequestedAt == "" && s.AssignedAt == "" && s.ArrivalAt == "" && s.CompletedAt == "")
}

// Record is the looked-up service ticket a caller asks about
type Record struct {
	ID       string       `json:"id" yaml:"id"`
	Status   Status       `json:"status" yaml:"status"`
	General  *GeneralInfo `json:"general,omitempty" yaml:"general"`
	Costs    *Costs       `json:"costs,omitempty" yaml:"costs"`
	Unit     *Unit        `json:"unit,omitempty" yaml:"unit"`
	Location *Location    `json:"location,omitempty" yaml:"location"`
	Schedule *Schedule    `json:"schedule,omitempty" yaml:"schedule"`
}
