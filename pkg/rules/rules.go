// Package rules classifies counter names into groups using ordered regex rules.
package rules

import (
	"fmt"
	"regexp"
)

// Group and description reported for counters no rule matches.
const (
	UngroupedGroup       = "UNGROUPED"
	UngroupedDescription = "No description"
)

// Rule maps counter names matching Pattern onto a group.
type Rule struct {
	// Source is the pattern as written in the rules file.
	Source      string
	Pattern     *regexp.Regexp
	Group       string
	Description string
}

// NewRule compiles pattern case-insensitively and anchors it at the start of
// the counter name. The pattern may match only a prefix of the name.
func NewRule(pattern, group, description string) (Rule, error) {
	re, err := regexp.Compile(`(?i)^(?:` + pattern + `)`)
	if err != nil {
		return Rule{}, fmt.Errorf("compiling rule %q: %w", pattern, err)
	}
	return Rule{Source: pattern, Pattern: re, Group: group, Description: description}, nil
}

// MustRule is like NewRule but panics on an invalid pattern.
func MustRule(pattern, group, description string) Rule {
	r, err := NewRule(pattern, group, description)
	if err != nil {
		panic(err)
	}
	return r
}

// Matcher holds an ordered rule list. The first matching rule wins.
// A Matcher is immutable and safe for concurrent use.
type Matcher struct {
	rules []Rule
}

// NewMatcher creates a matcher over rules in the given order.
func NewMatcher(rules []Rule) *Matcher {
	return &Matcher{rules: append([]Rule(nil), rules...)}
}

// Classify returns the group and description of the first rule matching name,
// or UNGROUPED / No description when none does.
func (m *Matcher) Classify(name string) (group, description string) {
	if m != nil {
		for _, r := range m.rules {
			if r.Pattern.MatchString(name) {
				return r.Group, r.Description
			}
		}
	}
	return UngroupedGroup, UngroupedDescription
}

// Rules returns a copy of the rule list in evaluation order.
func (m *Matcher) Rules() []Rule {
	if m == nil {
		return nil
	}
	return append([]Rule(nil), m.rules...)
}

// Len returns the number of rules.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}
