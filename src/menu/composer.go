package menu

import (
	"strings"

	"tracking_ivr/src/model"

	"github.com/rs/zerolog"
)

type Section string

const (
	SectionGeneral   Section = "general"
	SectionCosts     Section = "costs"
	SectionSchedule  Section = "schedule"
	SectionLocation  Section = "location"
	SectionUnit      Section = "unit"
	SectionNewRecord Section = "new_record"
	SectionAgent     Section = "agent"
)

// IsTopic reports whether selecting the section speaks record data
func (s Section) IsTopic() bool {
	switch s {
	case SectionGeneral, SectionCosts, SectionSchedule, SectionLocation, SectionUnit:
		return true
	}
	return false
}

const (
	KeyNewRecord = "9"
	KeyAgent     = "0"
)

type Option struct {
	Key     string
	Section Section
	Label   string
}

// Menu is the derived option set for one record. It is never persisted.
type Menu struct {
	Options   []Option
	ValidKeys string
}

// Lookup returns the section bound to key
func (m Menu) Lookup(key string) (Section, bool) {
	for _, o := range m.Options {
		if o.Key == key {
			return o.Section, true
		}
	}
	return "", false
}

// Offers reports whether the section is one of the options
func (m Menu) Offers(s Section) bool {
	for _, o := range m.Options {
		if o.Section == s {
			return true
		}
	}
	return false
}

type Composer struct {
	labels map[string]string
	log    zerolog.Logger
}

func NewComposer(labels map[string]string, log zerolog.Logger) *Composer {
	return &Composer{labels: labels, log: log}
}

// Compose builds the menu for rec: general(1), costs(2), schedule or location
// on 3, location on 4 only when schedule already took 3, unit(5), then the
// fixed new record(9) and agent(0) entries.
func (c *Composer) Compose(rec *model.Record) Menu {
	var m Menu
	if rec == nil {
		c.add(&m, KeyNewRecord, SectionNewRecord)
		c.add(&m, KeyAgent, SectionAgent)
		return m
	}

	avail, known := AvailabilityFor(rec.Status)
	if !known {
		c.log.Warn().Str("record_id", rec.ID).Str("status", string(rec.Status)).Msg("unknown record status, offering base menu")
	}

	offerSchedule := avail.Schedule && !rec.Schedule.IsEmpty()
	offerLocation := avail.Location && !rec.Location.IsEmpty()

	if !rec.General.IsEmpty() {
		c.add(&m, "1", SectionGeneral)
	}
	if !rec.Costs.IsEmpty() {
		c.add(&m, "2", SectionCosts)
	}
	switch {
	case offerSchedule:
		c.add(&m, "3", SectionSchedule)
		if offerLocation {
			c.add(&m, "4", SectionLocation)
		}
	case offerLocation:
		c.add(&m, "3", SectionLocation)
	}
	if !rec.Unit.IsEmpty() {
		c.add(&m, "5", SectionUnit)
	}
	c.add(&m, KeyNewRecord, SectionNewRecord)
	c.add(&m, KeyAgent, SectionAgent)
	return m
}

func (c *Composer) add(m *Menu, key string, s Section) {
	label := c.labels[string(s)]
	if label == "" {
		label = strings.ReplaceAll(string(s), "_", " ")
	}
	m.Options = append(m.Options, Option{Key: key, Section: s, Label: label})
	m.ValidKeys += key
}
