package record

import (
	"context"
	"fmt"

	"tracking_ivr/src/model"

	"github.com/rs/zerolog"
)

// Service looks records up by id. Failures come back as *errs.Error.
type Service interface {
	Lookup(ctx context.Context, id string) (*model.Record, error)
}

// New picks the HTTP client when a base URL is configured, else the fixture
func New(cfg model.RecordServiceConfig, log zerolog.Logger) (Service, error) {
	if cfg.BaseURL != "" {
		return NewHTTPService(HTTPOptions{
			BaseURL: cfg.BaseURL,
			Token:   cfg.Token,
			Timeout: cfg.Timeout,
			Logger:  log,
		}), nil
	}
	if cfg.FixturePath != "" {
		return LoadStaticService(cfg.FixturePath)
	}
	return nil, fmt.Errorf("record: no backend configured")
}

// normalize drops sections that carry no data so the menu never offers them
func normalize(r *model.Record) *model.Record {
	if r.General.IsEmpty() {
		r.General = nil
	}
	if r.Costs.IsEmpty() {
		r.Costs = nil
	}
	if r.Unit.IsEmpty() {
		r.Unit = nil
	}
	if r.Location.IsEmpty() {
		r.Location = nil
	}
	if r.Schedule.IsEmpty() {
		r.Schedule = nil
	}
	r.Status = model.ParseStatus(string(r.Status))
	return r
}
