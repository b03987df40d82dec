package quotation

import (
	"regexp"
	"strconv"
	"strings"

	"tracking_ivr/src/model"
	"tracking_ivr/src/nlu"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// A pair split only by spaces needs decimals on both numbers, otherwise street
// numbers and dates would read as coordinates. Each number must stand alone:
// no digit, dot or minus directly before it and no digit after it.
var (
	coordPairRe = regexp.MustCompile(`(?:^|[^\d.\-])(?:(-?\d{1,3}\.\d+)\s+(-?\d{1,3}\.\d+)|(-?\d{1,3}(?:\.\d+)?)\s*[,;]\s*(-?\d{1,3}(?:\.\d+)?))(?:\D|$)`)
	yearRe      = regexp.MustCompile(`^(19|20)\d{2}$`)

	spokenNumberForms = strings.NewReplacer(
		" punto ", ".",
		" coma ", ", ",
		"menos ", "-",
	)

	vehicleFillers = map[string]struct{}{
		"es": {}, "un": {}, "una": {}, "el": {}, "la": {}, "mi": {}, "de": {}, "del": {},
		"modelo": {}, "ano": {}, "marca": {}, "auto": {}, "carro": {}, "coche": {},
	}
)

// FallbackExtract is the deterministic extractor used when AI extraction
// yields nothing: a coordinate pair for the location stages, "brand model
// year" for the vehicle stage.
func FallbackExtract(stage model.Stage, transcript string) *model.QuotationFields {
	switch stage {
	case model.StageOrigin:
		if c := ParseCoordinates(transcript); c != nil {
			return &model.QuotationFields{Origin: c}
		}
	case model.StageDestination:
		if c := ParseCoordinates(transcript); c != nil {
			return &model.QuotationFields{Destination: c}
		}
	case model.StageVehicle:
		if v := ParseVehicle(transcript); v != nil {
			return &model.QuotationFields{Vehicle: v}
		}
	}
	return nil
}

// ParseCoordinates finds the first valid "lat, lon" pair in text
func ParseCoordinates(text string) *model.Coordinates {
	s := " " + nlu.StripDiacritics(strings.ToLower(text)) + " "
	s = spokenNumberForms.Replace(s)

	for _, m := range coordPairRe.FindAllStringSubmatch(s, -1) {
		latRaw, lonRaw := m[1], m[2]
		if latRaw == "" {
			latRaw, lonRaw = m[3], m[4]
		}
		lat, err1 := strconv.ParseFloat(latRaw, 64)
		lon, err2 := strconv.ParseFloat(lonRaw, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		c := &model.Coordinates{Latitude: lat, Longitude: lon}
		if c.Valid() {
			return c
		}
	}
	return nil
}

// ParseVehicle reads "brand model year" from the two words before the year
func ParseVehicle(text string) *model.Vehicle {
	tokens := nlu.Tokens(text)
	for i := len(tokens) - 1; i >= 0; i-- {
		if !yearRe.MatchString(tokens[i]) {
			continue
		}
		var words []string
		for _, tok := range tokens[:i] {
			if _, filler := vehicleFillers[tok]; !filler {
				words = append(words, tok)
			}
		}
		if len(words) < 2 {
			return nil
		}
		year, _ := strconv.Atoi(tokens[i])
		v := &model.Vehicle{
			Brand: title(words[len(words)-2]),
			Model: title(words[len(words)-1]),
			Year:  year,
		}
		if !v.Valid() {
			return nil
		}
		return v
	}
	return nil
}

// title upper-cases the first letter. A Caser is stateful, so one is built per call.
func title(s string) string {
	return cases.Title(language.Spanish).String(s)
}
