package quotation

import (
	"errors"
	"math"
	"strings"
	"time"

	"tracking_ivr/src/model"
	"tracking_ivr/src/nlu"
)

const earthRadiusKm = 6371.0

var ErrIncompleteDraft = errors.New("quotation: draft is missing origin, destination or vehicle")

// Pricer computes a quote for a completed draft
type Pricer interface {
	Quote(d *model.QuotationDraft) (*model.Quote, error)
}

type Tariff struct {
	Class    string
	Base     float64
	PerKm    float64
	Keywords []string
}

// Tariffs are checked in order; the last one is the fallback class
var Tariffs = []Tariff{
	{Class: "heavy", Base: 2500, PerKm: 45, Keywords: []string{"camion", "tractocamion", "autobus", "torton", "rabon", "volteo", "trailer"}},
	{Class: "medium", Base: 1100, PerKm: 24, Keywords: []string{"pickup", "camioneta", "van", "suv", "hilux", "ranger", "lobo", "ram", "tacoma", "frontier", "np300", "urvan", "sprinter"}},
	{Class: "light", Base: 800, PerKm: 18},
}

// TariffPricer prices by great-circle distance and vehicle class/age
type TariffPricer struct {
	currency string
	now      func() time.Time
}

func NewTariffPricer(currency string) *TariffPricer {
	if currency == "" {
		currency = "MXN"
	}
	return &TariffPricer{currency: currency, now: time.Now}
}

func (p *TariffPricer) Quote(d *model.QuotationDraft) (*model.Quote, error) {
	if d == nil || !d.Origin.Valid() || !d.Destination.Valid() || !d.Vehicle.Valid() {
		return nil, ErrIncompleteDraft
	}

	km := Haversine(*d.Origin, *d.Destination)
	t := ClassOf(d.Vehicle)
	amount := t.Base + t.PerKm*km
	amount *= 1 + AgeSurcharge(p.now().Year()-d.Vehicle.Year)

	return &model.Quote{
		DistanceKm: round2(km),
		Class:      t.Class,
		Amount:     round2(amount),
		Currency:   p.currency,
	}, nil
}

// DefaultQuote is returned when pricing is impossible
func DefaultQuote(amount float64, currency string) *model.Quote {
	return &model.Quote{Class: "default", Amount: amount, Currency: currency, Default: true}
}

// Haversine is the great-circle distance in kilometres
func Haversine(a, b model.Coordinates) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func ClassOf(v *model.Vehicle) Tariff {
	words := nlu.Tokens(v.Brand + " " + v.Model)
	for _, t := range Tariffs[:len(Tariffs)-1] {
		for _, k := range t.Keywords {
			for _, w := range words {
				if w == k || strings.HasPrefix(w, k) {
					return t
				}
			}
		}
	}
	return Tariffs[len(Tariffs)-1]
}

// AgeSurcharge is 25% past twenty years and 10% past ten
func AgeSurcharge(age int) float64 {
	switch {
	case age > 20:
		return 0.25
	case age > 10:
		return 0.10
	}
	return 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
