package record

import (
	"context"
	"fmt"
	"os"

	"tracking_ivr/src/errs"
	"tracking_ivr/src/model"

	"gopkg.in/yaml.v3"
)

type fixtureFile struct {
	Records []model.Record `yaml:"records"`
}

// StaticService serves records from memory, loaded from a YAML fixture
type StaticService struct {
	records map[string]model.Record
}

func NewStaticService(records ...model.Record) *StaticService {
	s := &StaticService{records: make(map[string]model.Record, len(records))}
	for _, r := range records {
		r := r
		s.records[r.ID] = *normalize(&r)
	}
	return s
}

func LoadStaticService(path string) (*StaticService, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("record: read fixture %s: %w", path, err)
	}
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("record: parse fixture %s: %w", path, err)
	}
	return NewStaticService(f.Records...), nil
}

func (s *StaticService) Lookup(ctx context.Context, id string) (*model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(errs.ServiceUnavailable, "record: lookup cancelled", err)
	}
	r, ok := s.records[id]
	if !ok {
		return nil, errs.New(errs.RecordNotFound, "record: "+id)
	}
	return &r, nil
}
