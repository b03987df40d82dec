package quotation

import (
	"testing"
	"time"

	"tracking_ivr/src/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		in   string
		want *model.Coordinates
	}{
		{"19.4,-99.1", &model.Coordinates{Latitude: 19.4, Longitude: -99.1}},
		{"19.4326, -99.1332", &model.Coordinates{Latitude: 19.4326, Longitude: -99.1332}},
		{"origen 20.67 -103.35 por favor", &model.Coordinates{Latitude: 20.67, Longitude: -103.35}},
		{"19 punto 4 coma menos 99 punto 1", &model.Coordinates{Latitude: 19.4, Longitude: -99.1}},
		{"95.0, 10.0", nil},
		{"en la colonia centro", nil},
		{"vivo en la calle 1045 20 de noviembre", nil},
		{"calle 1045, 20 de noviembre", nil},
		{"lote 12 45 manzana 3", nil},
		{"mi telefono es 55 1234 5678", nil},
		{"numero 1045.20, 30.1", nil},
		{"5-12, 30", nil},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseCoordinates(tt.in), tt.in)
	}
}

func TestParseVehicle(t *testing.T) {
	tests := []struct {
		in   string
		want *model.Vehicle
	}{
		{"nissan tsuru 2010", &model.Vehicle{Brand: "Nissan", Model: "Tsuru", Year: 2010}},
		{"Es un Ford Ranger modelo 2018.", &model.Vehicle{Brand: "Ford", Model: "Ranger", Year: 2018}},
		{"tsuru 2010", nil},
		{"nissan tsuru", nil},
		{"nissan tsuru 1890", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseVehicle(tt.in), tt.in)
	}
}

func TestFallbackExtractByStage(t *testing.T) {
	f := FallbackExtract(model.StageDestination, "19.4,-99.1")
	require.NotNil(t, f)
	assert.Nil(t, f.Origin)
	assert.NotNil(t, f.Destination)

	assert.Nil(t, FallbackExtract(model.StageVehicle, "19.4,-99.1"))
	assert.Nil(t, FallbackExtract(model.StageCompleted, "19.4,-99.1"))
}

func TestHaversine(t *testing.T) {
	cdmx := model.Coordinates{Latitude: 19.4326, Longitude: -99.1332}
	puebla := model.Coordinates{Latitude: 19.0414, Longitude: -98.2063}

	assert.InDelta(t, 106.6, Haversine(cdmx, puebla), 0.5)
	assert.Equal(t, 0.0, Haversine(cdmx, cdmx))
}

func TestClassOf(t *testing.T) {
	assert.Equal(t, "heavy", ClassOf(&model.Vehicle{Brand: "Kenworth", Model: "Tractocamión"}).Class)
	assert.Equal(t, "medium", ClassOf(&model.Vehicle{Brand: "Ford", Model: "Ranger"}).Class)
	assert.Equal(t, "light", ClassOf(&model.Vehicle{Brand: "Nissan", Model: "Tsuru"}).Class)
}

func TestAgeSurcharge(t *testing.T) {
	assert.Equal(t, 0.0, AgeSurcharge(10))
	assert.Equal(t, 0.10, AgeSurcharge(11))
	assert.Equal(t, 0.10, AgeSurcharge(20))
	assert.Equal(t, 0.25, AgeSurcharge(21))
}

func TestTariffPricer(t *testing.T) {
	p := NewTariffPricer("MXN")
	p.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }

	d := &model.QuotationDraft{
		Origin:      &model.Coordinates{Latitude: 19.4326, Longitude: -99.1332},
		Destination: &model.Coordinates{Latitude: 19.0414, Longitude: -98.2063},
		Vehicle:     &model.Vehicle{Brand: "Nissan", Model: "Tsuru", Year: 2012},
	}
	q, err := p.Quote(d)
	require.NoError(t, err)
	assert.Equal(t, "light", q.Class)
	assert.Equal(t, "MXN", q.Currency)
	assert.InDelta(t, (800+18*q.DistanceKm)*1.10, q.Amount, 0.1)

	_, err = p.Quote(&model.QuotationDraft{Origin: d.Origin})
	assert.ErrorIs(t, err, ErrIncompleteDraft)
}
