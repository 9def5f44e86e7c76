// Package chatbot answers support questions from a fixed keyword rule table.
//
// The table is compiled into the binary from rules.yaml. Nothing a user types
// is stored or logged by this package.
package chatbot

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultCategory is reported when no rule matches.
const DefaultCategory = "default"

//go:embed rules.yaml
var defaultRules []byte

// Category is one keyword rule.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Response string   `yaml:"response"`
	FollowUp string   `yaml:"follow_up"`
}

// QuickResource is an always-visible emergency contact.
type QuickResource struct {
	Name        string `yaml:"name" json:"name"`
	Contact     string `yaml:"contact" json:"contact"`
	Description string `yaml:"description" json:"description"`
	Type        string `yaml:"type" json:"type"`
}

// Rules is the full rule table.
type Rules struct {
	Categories     []Category      `yaml:"categories"`
	Default        string          `yaml:"default"`
	Suggestions    []string        `yaml:"suggestions"`
	QuickResources []QuickResource `yaml:"quick_resources"`
}

// Reply is the answer to one message. FollowUp is nil when the matched
// category has no follow-up question.
type Reply struct {
	Response  string    `json:"response"`
	Category  string    `json:"category"`
	FollowUp  *string   `json:"follow_up,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ParseRules decodes and checks a rule table.
func ParseRules(data []byte) (*Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse chatbot rules: %w", err)
	}
	if rules.Default == "" {
		return nil, fmt.Errorf("chatbot rules: default response is empty")
	}
	seen := make(map[string]bool, len(rules.Categories))
	for i, c := range rules.Categories {
		if c.Name == "" || c.Response == "" || len(c.Keywords) == 0 {
			return nil, fmt.Errorf("chatbot rules: category %d is incomplete", i)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("chatbot rules: duplicate category %q", c.Name)
		}
		seen[c.Name] = true
		for j, kw := range c.Keywords {
			rules.Categories[i].Keywords[j] = strings.ToLower(kw)
		}
	}
	return &rules, nil
}

// Bot matches messages against a rule table.
type Bot struct {
	rules *Rules
	now   func() time.Time
}

// New returns a bot using the embedded rule table.
func New() (*Bot, error) {
	rules, err := ParseRules(defaultRules)
	if err != nil {
		return nil, err
	}
	return NewWithRules(rules), nil
}

// NewWithRules returns a bot using rules.
func NewWithRules(rules *Rules) *Bot {
	return &Bot{rules: rules, now: time.Now}
}

// Match returns the first category whose keyword occurs in message, or nil.
func (b *Bot) Match(message string) *Category {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return nil
	}
	for i := range b.rules.Categories {
		c := &b.rules.Categories[i]
		for _, kw := range c.Keywords {
			if strings.Contains(msg, kw) {
				return c
			}
		}
	}
	return nil
}

// Respond answers message. An empty or unmatched message gets the default response.
func (b *Bot) Respond(message string) Reply {
	reply := Reply{Timestamp: b.now().UTC()}

	c := b.Match(message)
	if c == nil {
		reply.Response = b.rules.Default
		reply.Category = DefaultCategory
		return reply
	}

	reply.Response = c.Response
	reply.Category = c.Name
	if c.FollowUp != "" {
		followUp := c.FollowUp
		reply.FollowUp = &followUp
	}
	return reply
}

// Suggestions returns example questions for the chat window.
func (b *Bot) Suggestions() []string {
	return append([]string(nil), b.rules.Suggestions...)
}

// QuickResources returns the emergency contacts shown beside the chat.
func (b *Bot) QuickResources() []QuickResource {
	return append([]QuickResource(nil), b.rules.QuickResources...)
}
