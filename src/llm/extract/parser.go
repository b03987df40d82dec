package extract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tracking_ivr/src/model"

	"github.com/bytedance/sonic"
)

var ErrNoJSON = errors.New("extract: no JSON object in model output")

type rawFields struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Brand     string   `json:"brand"`
	Model     string   `json:"model"`
	Year      any      `json:"year"`
}

// ParseFields decodes the model output for stage. A well-formed but empty or
// invalid answer yields (nil, nil); only unreadable output is an error.
func ParseFields(stage model.Stage, output string) (*model.QuotationFields, error) {
	start := strings.Index(output, "{")
	end := strings.LastIndex(output, "}")
	if start < 0 || end <= start {
		return nil, ErrNoJSON
	}

	var raw rawFields
	if err := sonic.UnmarshalString(output[start:end+1], &raw); err != nil {
		return nil, fmt.Errorf("extract: malformed JSON: %w", err)
	}

	switch stage {
	case model.StageOrigin, model.StageDestination:
		if raw.Latitude == nil || raw.Longitude == nil {
			return nil, nil
		}
		c := &model.Coordinates{Latitude: *raw.Latitude, Longitude: *raw.Longitude}
		if !c.Valid() {
			return nil, nil
		}
		if stage == model.StageOrigin {
			return &model.QuotationFields{Origin: c}, nil
		}
		return &model.QuotationFields{Destination: c}, nil

	case model.StageVehicle:
		v := &model.Vehicle{
			Brand: strings.TrimSpace(raw.Brand),
			Model: strings.TrimSpace(raw.Model),
			Year:  parseYear(raw.Year),
		}
		if !v.Valid() {
			return nil, nil
		}
		return &model.QuotationFields{Vehicle: v}, nil
	}
	return nil, nil
}

func parseYear(v any) int {
	switch y := v.(type) {
	case float64:
		return int(y)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(y))
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}
