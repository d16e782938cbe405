package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeHTMLStripsScripts(t *testing.T) {
	out := sanitizeHTML(`<p>Hello</p><script>alert("x")</script>`)

	assert.Contains(t, out, "<p>Hello</p>")
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "alert")
}

func TestSanitizeHTMLDropsStyleContent(t *testing.T) {
	out := sanitizeHTML(`<style>body { display: none }</style><p>kept</p>`)

	assert.NotContains(t, out, "display: none")
	assert.Contains(t, out, "<p>kept</p>")
}

func TestSanitizeHTMLKeepsAllowedAttributes(t *testing.T) {
	out := sanitizeHTML(`<a href="https://example.com" onclick="steal()">link</a>`)

	assert.Contains(t, out, `href="https://example.com"`)
	assert.NotContains(t, out, "onclick")
}

func TestSanitizeHTMLUnwrapsDisallowedTags(t *testing.T) {
	out := sanitizeHTML(`<form><strong>inner</strong></form>`)

	assert.NotContains(t, out, "<form")
	assert.Contains(t, out, "<strong>inner</strong>")
}

func TestSanitizeHTMLKeepsTables(t *testing.T) {
	out := sanitizeHTML(`<table border="1"><tr><td colspan="2">cell</td></tr></table>`)

	assert.Contains(t, out, `border="1"`)
	assert.Contains(t, out, `colspan="2"`)
	assert.Contains(t, out, "cell")
}

func TestIsValidTemplateType(t *testing.T) {
	assert.True(t, isValidTemplateType("welcome_agent"))
	assert.True(t, isValidTemplateType("quote_expiring"))
	assert.False(t, isValidTemplateType("newsletter"))
	assert.False(t, isValidTemplateType(""))
}
