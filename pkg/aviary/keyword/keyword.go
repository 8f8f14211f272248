// Package keyword implements keyword-based tweet classification: deciding
// whether a tweet matches a configured keyword list and whether it should
// be kept at all.
package keyword

import (
	"fmt"
	"strings"

	"github.com/perchlab/aviary/pkg/aviary/entities"
	"github.com/perchlab/aviary/pkg/aviary/tweet"
)

// Field names one tweet surface a Rule can inspect.
type Field string

const (
	FieldAuthor   Field = "author"
	FieldText     Field = "text"
	FieldEntities Field = "entities"
)

// AllFields lists every inspectable surface.
var AllFields = []Field{FieldAuthor, FieldText, FieldEntities}

// Rule configures keyword classification.
type Rule struct {
	// Keywords are compared literally; each surface applies its own
	// comparison semantics.
	Keywords []string
	// FlagColumn, when non-empty, names an extra output column recording
	// the match result per record.
	FlagColumn string
	// Retain drops non-matching tweets when true. When false the rule
	// only flags.
	Retain bool
	// Fields selects which surfaces to inspect; empty means all.
	Fields []Field
}

// Filter applies a Rule to decoded tweets. A nil *Filter means no rule is
// configured: every tweet is retained and nothing is flagged.
type Filter struct {
	rule   Rule
	checks []func(tweet.Raw) (bool, error)
}

// New builds a Filter, rejecting unknown field names up front.
func New(rule Rule) (*Filter, error) {
	f := &Filter{rule: rule}
	fields := rule.Fields
	if len(fields) == 0 {
		fields = AllFields
	}
	for _, field := range fields {
		switch field {
		case FieldAuthor:
			f.checks = append(f.checks, f.checkAuthor)
		case FieldText:
			f.checks = append(f.checks, f.checkText)
		case FieldEntities:
			f.checks = append(f.checks, f.checkEntities)
		default:
			return nil, fmt.Errorf("unknown keyword field %q", field)
		}
	}
	return f, nil
}

// FlagColumn returns the configured flag column name, "" when no rule is
// configured.
func (f *Filter) FlagColumn() string {
	if f == nil {
		return ""
	}
	return f.rule.FlagColumn
}

// Matches reports whether any enabled surface of the tweet matches a
// keyword. The tweet is never modified.
func (f *Filter) Matches(t tweet.Raw) (bool, error) {
	if f == nil {
		return false, nil
	}
	for _, check := range f.checks {
		ok, err := check(t)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// ShouldRetain reports whether the tweet should be kept. Without a rule,
// or with filtering disabled, everything is kept.
func (f *Filter) ShouldRetain(t tweet.Raw) (bool, error) {
	if f == nil || !f.rule.Retain {
		return true, nil
	}
	return f.Matches(t)
}

// checkAuthor compares the author's screen name against each keyword,
// exactly and case-sensitively, with spaces removed from both sides.
// Screen names never contain spaces; stripping guards against formatting
// noise in the keyword list.
func (f *Filter) checkAuthor(t tweet.Raw) (bool, error) {
	user, err := t.Child("user")
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	name, ok := user.Str("screen_name")
	if !ok {
		return false, nil
	}
	name = strings.ReplaceAll(name, " ", "")
	for _, kw := range f.rule.Keywords {
		if strings.ReplaceAll(kw, " ", "") == name {
			return true, nil
		}
	}
	return false, nil
}

// checkText scans the effective text for any keyword as a
// case-insensitive substring.
func (f *Filter) checkText(t tweet.Raw) (bool, error) {
	text, err := t.FullText()
	if err != nil {
		return false, err
	}
	text = strings.ToLower(text)
	for _, kw := range f.rule.Keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true, nil
		}
	}
	return false, nil
}

// checkEntities intersects the tweet's hashtags and mention screen names,
// across the base and extended containers, with the keyword set.
// Hashtags are lower-cased for the comparison; mention screen names are
// compared as-is.
func (f *Filter) checkEntities(t tweet.Raw) (bool, error) {
	bundle, err := entities.Extract(t)
	if err != nil {
		return false, err
	}
	seen := make(map[string]struct{}, len(bundle.Hashtags)+len(bundle.MentionNames))
	for _, h := range bundle.Hashtags {
		seen[strings.ToLower(h)] = struct{}{}
	}
	for _, m := range bundle.MentionNames {
		seen[m] = struct{}{}
	}
	for _, kw := range f.rule.Keywords {
		if _, ok := seen[kw]; ok {
			return true, nil
		}
	}
	return false, nil
}
