// Package lint checks posts for authoring mistakes: missing or empty
// front-matter, unterminated code fences, and untagged code blocks.
package lint

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vellumkit/vellum/pkg/core"
)

// Rule identifies a single check.
type Rule string

const (
	RuleMissingTitle      Rule = "missing-title"
	RuleEmptyValue        Rule = "empty-value"
	RuleUnterminatedFence Rule = "unterminated-fence"
	RuleBareFence         Rule = "bare-fence"
	RuleMissingRequired   Rule = "missing-required"
)

// AllRules lists every rule in the order issues are reported.
var AllRules = []Rule{
	RuleMissingTitle,
	RuleMissingRequired,
	RuleEmptyValue,
	RuleUnterminatedFence,
	RuleBareFence,
}

// Severity grades an issue. Errors make a post unpublishable; warnings
// are style nits.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single finding on a post. Line is 1-based within the body
// and zero when the issue has no line (metadata issues).
type Issue struct {
	Slug     string
	Rule     Rule
	Severity Severity
	Line     int
	Message  string
}

func (i Issue) String() string {
	if i.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %s [%s]", i.Slug, i.Line, i.Severity, i.Message, i.Rule)
	}
	return fmt.Sprintf("%s: %s: %s [%s]", i.Slug, i.Severity, i.Message, i.Rule)
}

// HasErrors reports whether any issue is error-grade.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Checker runs lint rules against posts. Required lists front-matter
// keys every post must declare beyond title, usually taken from the
// site manifest.
type Checker struct {
	Required []string
}

// New builds a checker with the given required front-matter keys.
func New(required ...string) *Checker {
	return &Checker{Required: required}
}

// Check runs the given rules against one post. No rules means all rules.
func (c *Checker) Check(post core.Post, rules ...Rule) []Issue {
	if len(rules) == 0 {
		rules = AllRules
	}

	var issues []Issue
	for _, rule := range rules {
		switch rule {
		case RuleMissingTitle:
			issues = append(issues, c.checkTitle(post)...)
		case RuleMissingRequired:
			issues = append(issues, c.checkRequired(post)...)
		case RuleEmptyValue:
			issues = append(issues, c.checkEmptyValues(post)...)
		case RuleUnterminatedFence, RuleBareFence:
			// Both come out of the same segment scan; run it once.
		}
	}
	if wantsFenceRules(rules) {
		issues = append(issues, c.checkFences(post, rules)...)
	}
	return issues
}

// CheckAll lints every post in the repository. Listing may serve
// metadata-only posts from the index cache, so each post is re-read in
// full before the body rules run.
func (c *Checker) CheckAll(ctx context.Context, repo core.Repository, rules ...Rule) ([]Issue, error) {
	posts, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	var issues []Issue
	for _, p := range posts {
		full, err := repo.Get(ctx, p.Slug)
		if err != nil {
			return nil, fmt.Errorf("failed to read post %s: %w", p.Slug, err)
		}
		issues = append(issues, c.Check(full, rules...)...)
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Slug != issues[j].Slug {
			return issues[i].Slug < issues[j].Slug
		}
		return issues[i].Line < issues[j].Line
	})
	return issues, nil
}

// Check runs the given rules against one post with no required keys
// configured.
func Check(post core.Post, rules ...Rule) []Issue {
	return (&Checker{}).Check(post, rules...)
}

func (c *Checker) checkTitle(post core.Post) []Issue {
	err := post.Metadata.Validate()
	if err == nil {
		return nil
	}

	var malformed *core.MalformedMetadataError
	msg := err.Error()
	if errors.As(err, &malformed) {
		msg = fmt.Sprintf("front-matter key %q %s", malformed.Field, malformed.Reason)
	}
	return []Issue{{
		Slug:     post.Slug,
		Rule:     RuleMissingTitle,
		Severity: SeverityError,
		Message:  msg,
	}}
}

func (c *Checker) checkRequired(post core.Post) []Issue {
	var issues []Issue
	for _, key := range c.Required {
		if _, ok := post.Metadata[key]; ok {
			continue
		}
		issues = append(issues, Issue{
			Slug:     post.Slug,
			Rule:     RuleMissingRequired,
			Severity: SeverityError,
			Message:  fmt.Sprintf("front-matter key %q is required by the site manifest", key),
		})
	}
	return issues
}

func (c *Checker) checkEmptyValues(post core.Post) []Issue {
	keys := make([]string, 0, len(post.Metadata))
	for k := range post.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var issues []Issue
	for _, k := range keys {
		if !isEmptyValue(post.Metadata[k]) {
			continue
		}
		issues = append(issues, Issue{
			Slug:     post.Slug,
			Rule:     RuleEmptyValue,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("front-matter key %q is declared but empty", k),
		})
	}
	return issues
}

func (c *Checker) checkFences(post core.Post, rules []Rule) []Issue {
	segs, err := core.SplitSegments(post.Body)
	if err != nil {
		if !ruleEnabled(rules, RuleUnterminatedFence) {
			return nil
		}
		var unterminated *core.UnterminatedFenceError
		line := 0
		if errors.As(err, &unterminated) {
			line = unterminated.Line
		}
		return []Issue{{
			Slug:     post.Slug,
			Rule:     RuleUnterminatedFence,
			Severity: SeverityError,
			Line:     line,
			Message:  "code fence is never closed",
		}}
	}

	if !ruleEnabled(rules, RuleBareFence) {
		return nil
	}

	var issues []Issue
	line := 1
	for _, s := range segs {
		if s.Kind == core.SegmentCode && s.Lang == "" {
			issues = append(issues, Issue{
				Slug:     post.Slug,
				Rule:     RuleBareFence,
				Severity: SeverityWarning,
				Line:     line,
				Message:  "code block has no language tag",
			})
		}
		line += strings.Count(s.Raw, "\n")
	}
	return issues
}

func wantsFenceRules(rules []Rule) bool {
	return ruleEnabled(rules, RuleUnterminatedFence) || ruleEnabled(rules, RuleBareFence)
}

func ruleEnabled(rules []Rule, rule Rule) bool {
	for _, r := range rules {
		if r == rule {
			return true
		}
	}
	return false
}

func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}
	return false
}
