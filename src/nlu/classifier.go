package nlu

import (
	"strings"

	"tracking_ivr/src/catalog"
)

type Intent string

const (
	IntentUnrecognized  Intent = "unrecognized"
	IntentAgent         Intent = "agent"
	IntentNewRecord     Intent = "new_record"
	IntentHangup        Intent = "hangup"
	IntentCostTopic     Intent = "cost_topic"
	IntentScheduleTopic Intent = "schedule_topic"
	IntentLocationTopic Intent = "location_topic"
	IntentUnitTopic     Intent = "unit_topic"
	IntentGeneralTopic  Intent = "general_topic"
	IntentMenu          Intent = "menu"
	IntentTracking      Intent = "tracking"
	IntentQuotation     Intent = "quotation"
)

type command struct {
	intent Intent
	tokens map[string]struct{}
	multi  []string
}

// Classifier maps free speech onto the command vocabulary. It is
// deterministic: deny list first, then the command table in order.
type Classifier struct {
	deny     map[string]struct{}
	commands []command
}

func NewClassifier(commands []catalog.Command, deny []string) *Classifier {
	c := &Classifier{deny: make(map[string]struct{}, len(deny))}
	for _, d := range deny {
		c.deny[NormalizeSpeech(d)] = struct{}{}
	}
	for _, cmd := range commands {
		cc := command{intent: Intent(cmd.Intent), tokens: map[string]struct{}{}}
		for _, p := range cmd.Phrases {
			p = NormalizeSpeech(p)
			if p == "" {
				continue
			}
			if strings.Contains(p, " ") {
				cc.multi = append(cc.multi, p)
			} else {
				cc.tokens[p] = struct{}{}
			}
		}
		c.commands = append(c.commands, cc)
	}
	return c
}

func (c *Classifier) Classify(text string) Intent {
	tokens := Tokens(text)
	if len(tokens) == 0 {
		return IntentUnrecognized
	}
	normalized := strings.Join(tokens, " ")
	if _, denied := c.deny[normalized]; denied {
		return IntentUnrecognized
	}

	for _, cmd := range c.commands {
		for _, tok := range tokens {
			if _, ok := cmd.tokens[tok]; ok {
				return cmd.intent
			}
		}
		for _, phrase := range cmd.multi {
			if strings.Contains(normalized, phrase) {
				return cmd.intent
			}
		}
	}
	return IntentUnrecognized
}
