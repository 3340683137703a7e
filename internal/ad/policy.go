package ad

import (
	"fmt"
	"strings"
)

// MissingAction decides what happens to an ad lacking a required field
type MissingAction string

const (
	// Discard drops the ad before it reaches storage
	Discard MissingAction = "discard"
	// Placeholder keeps the ad and fills the field with a marker text
	Placeholder MissingAction = "placeholder"
)

// DefaultPlaceholder is the marker stored for missing fields under the Placeholder action
const DefaultPlaceholder = "NONE FOUND"

// Policy is the completeness filter of one source
type Policy struct {
	Required    []Field
	OnMissing   MissingAction
	Placeholder string
}

// ParseMissingAction parses "discard" or "placeholder"
func ParseMissingAction(s string) (MissingAction, error) {
	switch a := MissingAction(strings.ToLower(strings.TrimSpace(s))); a {
	case Discard, Placeholder:
		return a, nil
	}
	return "", fmt.Errorf("unknown missing field policy %q", s)
}

// WithAction returns a copy of p using the given action and placeholder
func (p Policy) WithAction(action MissingAction, placeholder string) Policy {
	p.OnMissing = action
	p.Placeholder = placeholder
	return p
}

func (p Policy) placeholder() string {
	if p.Placeholder == "" {
		return DefaultPlaceholder
	}
	return p.Placeholder
}
