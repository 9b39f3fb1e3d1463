// Package fuzzy implements the Fuzzy Rule Engine: an ordered list of
// regex-based rewrites applied to canonical paths, shared verbatim between
// the offline Static Rewriter and the in-browser Dynamic Helper.
package fuzzy

import "regexp"

// Rule is one (match, replace) pair. Replace uses Go's regexp replacement
// syntax ($1, $2, ...) rather than the \1/\2 backreference notation named
// in spec.md §3 — see DESIGN.md for why: Go's RE2 engine has no
// backreferences in match patterns, only replacement templates, and
// ReplaceAllString already implements exactly the substitution spec.md
// asks for.
type Rule struct {
	Name    string
	Match   *regexp.Regexp
	Replace string
}

// Engine holds an ordered, immutable rule list. It is constructed once and
// injected into the Canonicalizer and the Dynamic Helper — spec.md §9
// requires the core never read rules from a process-wide singleton.
type Engine struct {
	rules []Rule
}

// NewEngine returns an Engine over the given rules, in the order given.
func NewEngine(rules []Rule) *Engine {
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	return &Engine{rules: cp}
}

// Apply iterates the rule list in order and returns the result of the
// first rule whose substitution changes the input. If no rule changes the
// input, it is returned unchanged.
func (e *Engine) Apply(path string) string {
	if e == nil {
		return path
	}
	for _, r := range e.rules {
		if !r.Match.MatchString(path) {
			continue
		}
		out := r.Match.ReplaceAllString(path, r.Replace)
		if out != path {
			return out
		}
	}
	return path
}

// Rules returns a copy of the engine's ordered rule list, for callers that
// need to re-serialize it. (The Dynamic Helper asset generator reads
// DefaultRules directly and does not call it.)
func (e *Engine) Rules() []Rule {
	if e == nil {
		return nil
	}
	cp := make([]Rule, len(e.rules))
	copy(cp, e.rules)
	return cp
}
