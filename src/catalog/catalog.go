package catalog

import (
	"fmt"
	"os"
	"strings"

	"tracking_ivr/src/errs"

	"gopkg.in/yaml.v3"
)

// Prompt keys
const (
	PromptWelcome          = "welcome"
	PromptRecordRequest    = "record_request"
	PromptMenuIntro        = "menu_intro"
	PromptMenuOption       = "menu_option"
	PromptTopicFollowUp    = "topic_follow_up"
	PromptTopicGeneral     = "topic_general"
	PromptTopicCosts       = "topic_costs"
	PromptTopicSchedule    = "topic_schedule"
	PromptTopicLocation    = "topic_location"
	PromptTopicUnit        = "topic_unit"
	PromptAgentTransfer    = "agent_transfer"
	PromptCallback         = "callback"
	PromptGoodbye          = "goodbye"
	PromptQuoteOrigin      = "quote_origin"
	PromptQuoteDestination = "quote_destination"
	PromptQuoteVehicle     = "quote_vehicle"
	PromptQuoteHold        = "quote_hold"
	PromptQuoteRetry       = "quote_retry"
	PromptQuoteResult      = "quote_result"
	PromptQuoteDefault     = "quote_default"
	PromptQuoteFollowUp    = "quote_follow_up"
)

// Command maps a set of spoken phrases to an intent name. Phrases of a single
// word match by token, longer phrases by substring.
type Command struct {
	Intent  string   `yaml:"intent"`
	Phrases []string `yaml:"phrases"`
}

// ConversationRule maps keywords to a conversational category
type ConversationRule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// Catalog holds every piece of wording and dialogue policy data
type Catalog struct {
	Prompts       map[string]string    `yaml:"prompts"`
	StatusLabels  map[string]string    `yaml:"status_labels"`
	MenuLabels    map[string]string    `yaml:"menu_labels"`
	ErrorMessages map[errs.Kind]string `yaml:"error_messages"`
	RetryBudgets  map[errs.Kind]int    `yaml:"retry_budgets"`
	Commands      []Command            `yaml:"commands"`
	DenyList      []string             `yaml:"deny_list"`
	Conversation  []ConversationRule   `yaml:"conversation"`
}

// Load returns the compiled-in catalog, overridden key by key by the YAML
// file at path when path is not empty.
func Load(path string) (*Catalog, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var override Catalog
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	if err := override.checkKinds(); err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	c.merge(&override)
	return c, nil
}

// checkKinds rejects error kinds that are misspelled in an override file,
// which would otherwise be silently ignored.
func (c *Catalog) checkKinds() error {
	for k := range c.ErrorMessages {
		if errs.ParseKind(string(k)) != k {
			return fmt.Errorf("unknown error kind %q in error_messages", k)
		}
	}
	for k, n := range c.RetryBudgets {
		if errs.ParseKind(string(k)) != k {
			return fmt.Errorf("unknown error kind %q in retry_budgets", k)
		}
		if n < 1 {
			return fmt.Errorf("retry budget for %s must be at least 1", k)
		}
	}
	return nil
}

func (c *Catalog) merge(o *Catalog) {
	for k, v := range o.Prompts {
		c.Prompts[k] = v
	}
	for k, v := range o.StatusLabels {
		c.StatusLabels[k] = v
	}
	for k, v := range o.MenuLabels {
		c.MenuLabels[k] = v
	}
	for k, v := range o.ErrorMessages {
		c.ErrorMessages[k] = v
	}
	for k, v := range o.RetryBudgets {
		c.RetryBudgets[k] = v
	}
	if len(o.Commands) > 0 {
		c.Commands = o.Commands
	}
	if len(o.DenyList) > 0 {
		c.DenyList = o.DenyList
	}
	if len(o.Conversation) > 0 {
		c.Conversation = o.Conversation
	}
}

// Prompt returns the raw text for key
func (c *Catalog) Prompt(key string) string {
	return c.Prompts[key]
}

// Render fills {name} placeholders of the prompt key from vars
func (c *Catalog) Render(key string, vars map[string]string) string {
	text := c.Prompts[key]
	if len(vars) == 0 {
		return text
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Message is the spoken text for an error kind
func (c *Catalog) Message(kind errs.Kind) string {
	if m, ok := c.ErrorMessages[kind]; ok {
		return m
	}
	return c.ErrorMessages[errs.SystemError]
}

// Budget is the maximum attempt count for kind. Unknown kinds get one attempt.
func (c *Catalog) Budget(kind errs.Kind) int {
	if n, ok := c.RetryBudgets[kind]; ok && n > 0 {
		return n
	}
	return 1
}

// StatusLabel is the spoken name of a record status
func (c *Catalog) StatusLabel(status string) string {
	if l, ok := c.StatusLabels[status]; ok {
		return l
	}
	return c.StatusLabels["unknown"]
}
