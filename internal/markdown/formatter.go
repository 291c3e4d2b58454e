// Package markdown turns raw model text into HTML. The model answers in
// loosely structured prose, so the formatter first infers markdown structure
// from heuristic line patterns and then renders it with GitHub-flavored
// markdown rules.
package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"fsearch/internal/apperr"
)

var (
	// sectionRe matches a line-start label whose colon is followed by
	// whitespace or end of line, e.g. "Overview: ..." or "Details:".
	sectionRe = regexp.MustCompile(`^([A-Za-z][A-Za-z ]+):([ \t].*|)$`)

	// subSectionRe matches remaining line-start labels. The colon must not
	// be followed by a digit so time-like patterns ("3:00" tails) stay
	// untouched.
	subSectionRe = regexp.MustCompile(`^([A-Za-z][A-Za-z ]+):([^0-9].*)$`)

	// bulletRe matches unicode bullet glyphs at line start.
	bulletRe = regexp.MustCompile(`^[•●○]\s*`)

	// bareURLRe matches http(s) URLs not already inside markdown link
	// syntax (preceded by "(" or "[").
	bareURLRe = regexp.MustCompile(`(^|[^(\[])(https?://[^\s()\[\]]+)`)
)

// Formatter converts raw model text to sanitized HTML.
type Formatter struct {
	renderer  goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// NewFormatter creates a formatter with GFM rules and soft line breaks
// rendered as hard breaks.
func NewFormatter() *Formatter {
	return &Formatter{
		renderer: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// ToMarkdown applies the heuristic structuring rules to raw model text and
// returns markdown. The rules are inherently ambiguous (a sentence like
// "Note: see below" is promoted to a heading); they are kept behind this
// interface so a structured-output strategy can replace them later.
func (f *Formatter) ToMarkdown(text string) string {
	if text == "" {
		return ""
	}

	// Normalize line endings
	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		// Main sections: "Label: rest" becomes "## Label rest"
		if m := sectionRe.FindStringSubmatch(line); m != nil {
			lines[i] = "## " + m[1] + m[2]
			continue
		}

		// Remaining labels become sub-section headings. Never re-fires on
		// lines converted above.
		if m := subSectionRe.FindStringSubmatch(line); m != nil {
			lines[i] = "### " + m[1] + m[2]
			continue
		}

		// Normalize bullet glyphs to standard list markers
		if bulletRe.MatchString(line) {
			lines[i] = bulletRe.ReplaceAllString(line, "* ")
		}
	}
	text = strings.Join(lines, "\n")

	// Wrap bare URLs as markdown links
	text = bareURLRe.ReplaceAllString(text, "$1[$2]($2)")

	return joinParagraphs(text)
}

// joinParagraphs re-joins text on blank-line boundaries, giving plain
// paragraphs a trailing newline for spacing.
func joinParagraphs(text string) string {
	chunks := strings.Split(text, "\n\n")
	paragraphs := make([]string, 0, len(chunks))
	for _, p := range chunks {
		if p == "" {
			continue
		}
		if strings.HasPrefix(p, "#") || strings.HasPrefix(p, "*") || strings.HasPrefix(p, "-") {
			paragraphs = append(paragraphs, p)
			continue
		}
		paragraphs = append(paragraphs, p+"\n")
	}
	return strings.Join(paragraphs, "\n\n")
}

// Render converts raw model text to sanitized HTML suitable for direct
// injection into a document. Output is deterministic for a given input.
// Render is not idempotent; it is called exactly once per raw response.
func (f *Formatter) Render(text string) (string, error) {
	return f.RenderMarkdown(f.ToMarkdown(text))
}

// RenderMarkdown converts already-structured markdown to sanitized HTML.
func (f *Formatter) RenderMarkdown(md string) (string, error) {
	if md == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := f.renderer.Convert([]byte(md), &buf); err != nil {
		return "", apperr.Wrap(err, "failed to render markdown")
	}

	return f.sanitizer.Sanitize(buf.String()), nil
}
