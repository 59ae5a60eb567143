// Package intent maps free-text channel questions onto a closed set of query intents.
package intent

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Type is the classified purpose of a query
type Type string

const (
	ChannelList      Type = "channel_list"
	ChannelHealth    Type = "channel_health"
	ChannelLiquidity Type = "channel_liquidity"
	ChannelUnhealthy Type = "channel_unhealthy"
	Unknown          Type = "unknown"
)

// All returns every intent type, most specific first
func All() []Type {
	return []Type{ChannelUnhealthy, ChannelList, ChannelHealth, ChannelLiquidity, Unknown}
}

// Parse converts a string such as "channel_health" into a Type
func Parse(s string) (Type, error) {
	for _, t := range All() {
		if string(t) == s {
			return t, nil
		}
	}
	return Unknown, fmt.Errorf("unknown intent type %q", s)
}

// Valid reports whether t is one of the known intent types
func (t Type) Valid() bool {
	_, err := Parse(string(t))
	return err == nil
}

// Intent is a classified query
type Intent struct {
	Type  Type   `json:"type"`
	Query string `json:"query"`
}

// group is one ordered rule: the first group whose matcher accepts the query wins
type group struct {
	typ   Type
	match func(query string) bool
}

func patterns(exprs ...string) func(string) bool {
	res := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		res[i] = regexp.MustCompile(e)
	}
	return func(q string) bool {
		for _, re := range res {
			if re.MatchString(q) {
				return true
			}
		}
		return false
	}
}

// defaultGroups encodes precedence. Unhealthy is checked before list so that
// "list unhealthy channels" does not fall into the broader list phrasing.
func defaultGroups() []group {
	return []group{
		{ChannelUnhealthy, patterns(
			`\bunhealthy\b`,
			`\bneed(s|ing)?\s+(some\s+)?attention\b`,
			`\bbroken\b`,
			`\binactive\b`,
			`\boffline\b`,
			`\b(with|having|that have)\s+(any\s+)?(issues|problems)\b`,
			`\bnot\s+working\b`,
			`\b(disabled|down)\s+channels?\b`,
		)},
		{ChannelList, patterns(
			`\b(show|list|display|get|give)\s+(me\s+)?(all\s+)?(of\s+)?(my\s+|the\s+)?channels\b`,
			`\bwhat\s+channels\b`,
			`\bchannel\s+list\b`,
			`\ball\s+(of\s+)?(my\s+|the\s+)?channels\b`,
		)},
		{ChannelHealth, patterns(
			`\bchannels?\s+(status|health)\b`,
			`\b(status|health|healthy)\b`,
			`\bactive\s+channels?\b`,
			`\bproblematic\b`,
			`\b(issues|problems)\b`,
		)},
		{ChannelLiquidity, patterns(
			`\bbalances?\b`,
			`\bliquidity\b`,
			`\bimbalanced?\b`,
			`\brebalanc(e|ing)\b`,
			`\b(local|remote)\s+balances?\b`,
			`\bliquidity\s+distribution\b`,
			`\bcapacity\b`,
			`\b(inbound|outbound)\b`,
		)},
	}
}

// Classifier evaluates the ordered pattern groups
type Classifier struct {
	groups []group
	logger *slog.Logger
}

// NewClassifier creates a classifier with the built-in phrase patterns
func NewClassifier(lg *slog.Logger) *Classifier {
	if lg == nil {
		lg = slog.Default()
	}
	return &Classifier{groups: defaultGroups(), logger: lg}
}

var defaultClassifier = NewClassifier(nil)

// Classify classifies query with the default classifier
func Classify(query string) Intent {
	return defaultClassifier.Classify(query)
}

// Classify never fails: an evaluation error degrades to Unknown and is logged.
func (c *Classifier) Classify(query string) Intent {
	t, err := c.evaluate(query)
	if err != nil {
		c.logger.Error("intent classification failed", "query", query, "error", err)
		t = Unknown
	}
	return Intent{Type: t, Query: query}
}

func (c *Classifier) evaluate(query string) (t Type, err error) {
	defer func() {
		if r := recover(); r != nil {
			t, err = Unknown, fmt.Errorf("pattern evaluation: %v", r)
		}
	}()

	q := strings.ToLower(strings.TrimSpace(query))
	for _, g := range c.groups {
		if g.match(q) {
			return g.typ, nil
		}
	}
	return Unknown, nil
}
