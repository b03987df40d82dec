package nlu

import (
	"strings"

	"tracking_ivr/src/catalog"
)

type Category string

const (
	CategoryContinueQuery Category = "continue_query"
	CategoryNewRecord     Category = "new_record"
	CategoryAgent         Category = "agent"
	CategoryHangup        Category = "hangup"
)

type rule struct {
	category Category
	keywords []string
}

// ConversationClassifier buckets follow-up speech by keyword containment.
// The first rule with a hit wins and everything else is CategoryContinueQuery.
type ConversationClassifier struct {
	rules []rule
}

func NewConversationClassifier(rules []catalog.ConversationRule) *ConversationClassifier {
	c := &ConversationClassifier{}
	for _, r := range rules {
		rr := rule{category: Category(r.Category)}
		for _, k := range r.Keywords {
			if k = NormalizeSpeech(k); k != "" {
				rr.keywords = append(rr.keywords, k)
			}
		}
		c.rules = append(c.rules, rr)
	}
	return c
}

func (c *ConversationClassifier) Classify(text string) Category {
	normalized := NormalizeSpeech(text)
	if normalized == "" {
		return CategoryContinueQuery
	}
	for _, r := range c.rules {
		for _, k := range r.keywords {
			if strings.Contains(normalized, k) {
				return r.category
			}
		}
	}
	return CategoryContinueQuery
}
