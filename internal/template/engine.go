// Package template implements the campaign templating grammar: `{{key}}`
// placeholder substitution and `{{#key}}...{{/key}}` conditional sections.
//
// Rendering is two passes, substitute-then-filter: the substitution pass runs
// over the whole raw template first (so placeholders inside conditional blocks
// are resolved whether or not the block survives), then the conditional pass
// keeps or drops each block on the truthiness of its key. A plain `{{key}}`
// placeholder sharing its name with a conditional key is therefore substituted
// before block filtering; the block tags themselves are never treated as
// placeholders.
//
// Nested conditional blocks and literal `{{` sequences are out of contract.
// No HTML escaping is performed: templates and values are trusted, callers
// sanitize learner-supplied input before it reaches the variables map.
package template

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)
	openTagRe     = regexp.MustCompile(`\{\{#\s*([A-Za-z0-9_]+)\s*\}\}`)
)

// Engine renders campaign templates. It is pure and safe for concurrent use.
type Engine struct{}

// NewEngine creates a template engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Render substitutes placeholders and evaluates conditional sections.
func (e *Engine) Render(tmpl string, vars map[string]interface{}) string {
	out := substitute(tmpl, vars)
	return filterConditionals(out, vars)
}

// substitute replaces every `{{key}}` occurrence with the stringified value,
// or the empty string when the key is absent or nil. Replacement is global.
func substitute(tmpl string, vars map[string]interface{}) string {
	return placeholderRe.ReplaceAllStringFunc(tmpl, func(match string) string {
		key := placeholderRe.FindStringSubmatch(match)[1]
		value, ok := vars[key]
		if !ok || value == nil {
			return ""
		}
		return stringify(value)
	})
}

// filterConditionals resolves each `{{#key}}...{{/key}}` block: kept verbatim
// (minus the delimiters) when the key is truthy, removed entirely otherwise.
func filterConditionals(tmpl string, vars map[string]interface{}) string {
	seen := map[string]bool{}
	for _, match := range openTagRe.FindAllStringSubmatch(tmpl, -1) {
		key := match[1]
		if seen[key] {
			continue
		}
		seen[key] = true

		// Go's regexp has no backreferences, so each key gets its own
		// block pattern.
		blockRe := regexp.MustCompile(`(?s)\{\{#\s*` + regexp.QuoteMeta(key) + `\s*\}\}(.*?)\{\{/\s*` + regexp.QuoteMeta(key) + `\s*\}\}`)
		if truthy(vars[key]) {
			tmpl = blockRe.ReplaceAllString(tmpl, "${1}")
		} else {
			tmpl = blockRe.ReplaceAllString(tmpl, "")
		}
	}
	return tmpl
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func truthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int32:
		return v != 0
	case int64:
		return v != 0
	case float32:
		return v != 0
	case float64:
		return v != 0
	default:
		return true
	}
}
