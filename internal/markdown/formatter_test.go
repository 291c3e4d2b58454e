package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMarkdownPromotesSectionLabels(t *testing.T) {
	f := NewFormatter()

	md := f.ToMarkdown("Overview: This is a test.\n\nDetails: more info.")

	overview := strings.Index(md, "## Overview This is a test.")
	details := strings.Index(md, "## Details more info.")
	require.NotEqual(t, -1, overview)
	require.NotEqual(t, -1, details)
	assert.Less(t, overview, details)
}

func TestToMarkdownLeavesUnlabeledTextAlone(t *testing.T) {
	f := NewFormatter()

	md := f.ToMarkdown("Just a plain sentence.\n\nAnother paragraph here.")

	assert.NotContains(t, md, "#")
}

func TestToMarkdownSkipsNumericLabels(t *testing.T) {
	f := NewFormatter()

	// "3:00" starts with a digit and must never become a heading
	md := f.ToMarkdown("3:00 is when the meeting starts.")

	assert.NotContains(t, md, "#")
}

func TestToMarkdownNormalizesBulletGlyphs(t *testing.T) {
	f := NewFormatter()

	md := f.ToMarkdown("• first item\n● second item\n○ third item")

	for _, line := range strings.Split(md, "\n") {
		if line == "" {
			continue
		}
		assert.True(t, strings.HasPrefix(line, "* "), "line %q should be a list item", line)
	}
}

func TestToMarkdownWrapsBareURLs(t *testing.T) {
	f := NewFormatter()

	md := f.ToMarkdown("Sources include, among others, https://example.com/docs for details.")

	assert.Contains(t, md, "[https://example.com/docs](https://example.com/docs)")
}

func TestToMarkdownLeavesExistingLinksAlone(t *testing.T) {
	f := NewFormatter()

	md := f.ToMarkdown("Already linked: [docs](https://example.com/docs) here.")

	assert.Equal(t, 1, strings.Count(md, "(https://example.com/docs)"))
}

func TestToMarkdownNormalizesLineEndings(t *testing.T) {
	f := NewFormatter()

	md := f.ToMarkdown("Overview: windows text\r\nsecond line")

	assert.NotContains(t, md, "\r")
}

func TestRenderProducesHeadings(t *testing.T) {
	f := NewFormatter()

	html, err := f.Render("Overview: This is a test.\n\nDetails: more info.")
	require.NoError(t, err)

	overview := strings.Index(html, "<h2>Overview This is a test.</h2>")
	details := strings.Index(html, "<h2>Details more info.</h2>")
	require.NotEqual(t, -1, overview, "output: %s", html)
	require.NotEqual(t, -1, details, "output: %s", html)
	assert.Less(t, overview, details)
}

func TestRenderEmptyInput(t *testing.T) {
	f := NewFormatter()

	html, err := f.Render("")
	require.NoError(t, err)
	assert.Empty(t, html)
}

func TestRenderIsDeterministic(t *testing.T) {
	f := NewFormatter()

	input := "Summary: deterministic output\n\n• point one\n• point two"
	first, err := f.Render(input)
	require.NoError(t, err)
	second, err := f.Render(input)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRenderSanitizesScriptTags(t *testing.T) {
	f := NewFormatter()

	html, err := f.Render("hello <script>alert(1)</script> world")
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
}
