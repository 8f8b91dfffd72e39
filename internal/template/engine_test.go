package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPlainTextIdentity(t *testing.T) {
	e := NewEngine()
	for _, tmpl := range []string{"", "hello", "no placeholders here\nat all", "single { brace }"} {
		assert.Equal(t, tmpl, e.Render(tmpl, map[string]interface{}{"a": "x"}))
	}
}

func TestRenderSubstitution(t *testing.T) {
	e := NewEngine()

	assert.Equal(t, "x", e.Render("{{a}}", map[string]interface{}{"a": "x"}))
	assert.Equal(t, "", e.Render("{{a}}", map[string]interface{}{}))
	assert.Equal(t, "", e.Render("{{a}}", map[string]interface{}{"a": nil}))
}

func TestRenderSubstitutionIsGlobal(t *testing.T) {
	e := NewEngine()
	out := e.Render("{{name}} and {{name}} again", map[string]interface{}{"name": "Ada"})
	assert.Equal(t, "Ada and Ada again", out)
}

func TestRenderSubstitutionStringifies(t *testing.T) {
	e := NewEngine()
	out := e.Render("{{count}} seats, late: {{late}}", map[string]interface{}{
		"count": 3,
		"late":  true,
	})
	assert.Equal(t, "3 seats, late: true", out)
}

func TestRenderSubstitutionAllowsWhitespace(t *testing.T) {
	e := NewEngine()
	assert.Equal(t, "x", e.Render("{{ a }}", map[string]interface{}{"a": "x"}))
}

func TestRenderConditionalTruthy(t *testing.T) {
	e := NewEngine()
	assert.Equal(t, "Y", e.Render("{{#a}}Y{{/a}}", map[string]interface{}{"a": true}))
}

func TestRenderConditionalFalsy(t *testing.T) {
	e := NewEngine()
	assert.Equal(t, "", e.Render("{{#a}}Y{{/a}}", map[string]interface{}{"a": false}))
	assert.Equal(t, "", e.Render("{{#a}}Y{{/a}}", map[string]interface{}{}))
	assert.Equal(t, "", e.Render("{{#a}}Y{{/a}}", map[string]interface{}{"a": ""}))
	assert.Equal(t, "", e.Render("{{#a}}Y{{/a}}", map[string]interface{}{"a": 0}))
}

func TestRenderConditionalKeepsSurroundings(t *testing.T) {
	e := NewEngine()
	out := e.Render("before {{#flag}}inside{{/flag}} after", map[string]interface{}{"flag": true})
	assert.Equal(t, "before inside after", out)

	out = e.Render("before {{#flag}}inside{{/flag}} after", map[string]interface{}{"flag": false})
	assert.Equal(t, "before  after", out)
}

func TestRenderSubstitutesInsideRetainedBlock(t *testing.T) {
	e := NewEngine()
	out := e.Render("{{#verbose}}detail: {{detail}}{{/verbose}}", map[string]interface{}{
		"verbose": true,
		"detail":  "all of it",
	})
	require.Equal(t, "detail: all of it", out)
}

func TestRenderDroppedBlockDiscardsSubstitutedContent(t *testing.T) {
	e := NewEngine()
	out := e.Render("{{#verbose}}detail: {{detail}}{{/verbose}}", map[string]interface{}{
		"verbose": false,
		"detail":  "all of it",
	})
	assert.Equal(t, "", out)
}

func TestRenderMultipleBlocksSameKey(t *testing.T) {
	e := NewEngine()
	out := e.Render("{{#a}}one{{/a}} mid {{#a}}two{{/a}}", map[string]interface{}{"a": true})
	assert.Equal(t, "one mid two", out)
}

func TestRenderPlaceholderSharingConditionalKey(t *testing.T) {
	// Substitution runs first, so a bare {{a}} resolves to the value while
	// the {{#a}} block is still filtered on truthiness.
	e := NewEngine()
	out := e.Render("{{a}}: {{#a}}yes{{/a}}", map[string]interface{}{"a": "x"})
	assert.Equal(t, "x: yes", out)
}

func TestRenderMixedDocument(t *testing.T) {
	e := NewEngine()
	tmpl := "Hi {{name}},\n" +
		"your course {{course_name}} starts soon.\n" +
		"{{#has_survey}}Please complete {{survey_name}} first.{{/has_survey}}\n" +
		"See you!"
	out := e.Render(tmpl, map[string]interface{}{
		"name":        "Ada",
		"course_name": "Go 101",
		"has_survey":  true,
		"survey_name": "Intake Survey",
	})
	assert.Equal(t, "Hi Ada,\nyour course Go 101 starts soon.\nPlease complete Intake Survey first.\nSee you!", out)
}
