package text

import (
	"context"

	"github.com/bmatcuk/doublestar/v4"
)

// RuleKind selects how FromText is matched
type RuleKind string

const (
	// KindLiteral replaces every non-overlapping occurrence of FromText
	KindLiteral RuleKind = "literal"

	// KindPrefix treats FromText as the start of a dotted address and
	// replaces the whole address
	KindPrefix RuleKind = "prefix"

	// KindMarker finds addresses like KindPrefix but never replaces them
	KindMarker RuleKind = "marker"
)

// ReplacementRule defines a single text replacement operation
type ReplacementRule struct {
	// FromText is the text to replace
	FromText string

	// ToText is the replacement text, already expanded
	ToText string

	// Kind selects the matching strategy, empty means KindLiteral
	Kind RuleKind

	// FileFilterGlob is an optional glob pattern, matched against the
	// slash-separated path relative to the scan root
	FileFilterGlob string
}

// AppliesTo reports whether the rule should run against relPath
func (r ReplacementRule) AppliesTo(relPath string) bool {
	if r.FileFilterGlob == "" {
		return true
	}
	matched, err := doublestar.Match(r.FileFilterGlob, relPath)
	return err == nil && matched
}

// RuleMatch records how often one rule fired
type RuleMatch struct {
	Rule  ReplacementRule
	Count int
}

// ReplacementResult contains the results of a text replacement operation
type ReplacementResult struct {
	// WasModified is true only if ModifiedContent differs from OriginalContent
	WasModified bool

	// ReplacementCount is the number of replacements made
	ReplacementCount int

	// MarkerCount is the number of marker hits, which never change content
	MarkerCount int

	// Matches lists every rule that matched at least once, in rule order
	Matches []RuleMatch

	// OriginalContent is the content before replacements
	OriginalContent string

	// ModifiedContent is the content after replacements
	ModifiedContent string
}

// TextReplacer defines the interface for text replacement operations
type TextReplacer interface {
	// ReplaceText applies rules in order to content. path is the
	// root-relative path used for rule file filters.
	ReplaceText(ctx context.Context, path string, content string, rules []ReplacementRule) (*ReplacementResult, error)

	// ValidateRules checks that all rules are valid
	ValidateRules(rules []ReplacementRule) error
}
