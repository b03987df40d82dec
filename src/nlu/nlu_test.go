package nlu

import (
	"testing"

	"tracking_ivr/src/catalog"

	"github.com/stretchr/testify/assert"
)

func defaultClassifier() *Classifier {
	c := catalog.Default()
	return NewClassifier(c.Commands, c.DenyList)
}

func TestNormalizeDigits(t *testing.T) {
	tests := []struct {
		raw, term, want string
	}{
		{"54321#", "#", "54321"},
		{" 5-4 3 2 1 ", "#", "54321"},
		{"123", "", "123"},
		{"#", "#", ""},
		{"", "#", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDigits(tt.raw, tt.term), tt.raw)
	}
}

func TestNormalizeSpeech(t *testing.T) {
	assert.Equal(t, "ubicacion de la grua", NormalizeSpeech("¿Ubicación de la GRÚA?"))
	assert.Equal(t, "", NormalizeSpeech("  ...  "))
}

func TestSpokenDigits(t *testing.T) {
	assert.Equal(t, "54321", SpokenDigits("cinco cuatro tres dos uno"))
	assert.Equal(t, "54321", SpokenDigits("54,321"))
	assert.Equal(t, "105", SpokenDigits("Uno cero 5"))
	assert.Equal(t, "", SpokenDigits("mi expediente es cinco"))
	assert.Equal(t, "", SpokenDigits(""))
}

func TestClassify(t *testing.T) {
	c := defaultClassifier()

	tests := map[string]Intent{
		"costos":                        IntentCostTopic,
		"COSTOS":                        IntentCostTopic,
		"quiero saber el precio":        IntentCostTopic,
		"algo completamente diferente":  IntentUnrecognized,
		"":                              IntentUnrecognized,
		"¿Dónde está la grúa?":          IntentLocationTopic,
		"quiero hablar con una persona": IntentAgent,
		"otro expediente por favor":     IntentNewRecord,
		"a qué hora llega":              IntentScheduleTopic,
		"cotización":                    IntentQuotation,
		"no":                            IntentUnrecognized,
		"No sé":                         IntentUnrecognized,
	}
	for in, want := range tests {
		assert.Equal(t, want, c.Classify(in), in)
	}
}

func TestClassifyTableOrderWins(t *testing.T) {
	c := defaultClassifier()
	// agent precedes cost_topic in the table
	assert.Equal(t, IntentAgent, c.Classify("asesor de costos"))
}

func TestClassifyTokenNotSubstring(t *testing.T) {
	c := defaultClassifier()
	// "ahora" must not match the single-token command "hora"
	assert.Equal(t, IntentUnrecognized, c.Classify("ahora mismo"))
}

func TestConversationClassifier(t *testing.T) {
	c := NewConversationClassifier(catalog.Default().Conversation)

	assert.Equal(t, CategoryAgent, c.Classify("comuníqueme con un asesor"))
	assert.Equal(t, CategoryNewRecord, c.Classify("quiero otra consulta"))
	assert.Equal(t, CategoryHangup, c.Classify("eso es todo, adiós"))
	assert.Equal(t, CategoryContinueQuery, c.Classify("menú"))
	assert.Equal(t, CategoryContinueQuery, c.Classify(""))
}
