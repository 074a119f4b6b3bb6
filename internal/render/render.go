// Package render converts generated markdown into HTML that is safe to
// place into the page.
package render

import (
	"bytes"
	"html"
	"html/template"

	"github.com/gohugoio/hugo-goldmark-extensions/passthrough"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"go.uber.org/zap"

	"github.com/young1lin/learnflow/pkg/logger"
)

// Renderer turns markdown into sanitized HTML. It is safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New creates a renderer with GitHub flavoured markdown, TeX passthrough and
// a UGC sanitizer policy
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM, mathPassthrough()),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)

	policy := bluemonday.UGCPolicy()
	// Keep fenced code language hints (class="language-go") for highlighting
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre", "span")

	return &Renderer{md: md, policy: policy}
}

// mathPassthrough leaves TeX untouched for the typesetting engine. The
// delimiters match the ones the page configures.
func mathPassthrough() goldmark.Extender {
	return passthrough.New(passthrough.Config{
		InlineDelimiters: []passthrough.Delimiters{
			{Open: "$", Close: "$"},
			{Open: `\(`, Close: `\)`},
		},
		BlockDelimiters: []passthrough.Delimiters{
			{Open: "$$", Close: "$$"},
			{Open: `\[`, Close: `\]`},
		},
	})
}

// Render converts markdown to sanitized HTML. Conversion is always followed
// by sanitization, so the output never carries executable markup.
func (r *Renderer) Render(markdown string) string {
	if markdown == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		logger.Warn("markdown conversion failed, falling back to preformatted text", zap.Error(err))
		buf.Reset()
		buf.WriteString("<pre>")
		buf.WriteString(html.EscapeString(markdown))
		buf.WriteString("</pre>")
	}

	return r.policy.Sanitize(buf.String())
}

// RenderHTML is Render typed for direct use in html/template
func (r *Renderer) RenderHTML(markdown string) template.HTML {
	return template.HTML(r.Render(markdown))
}
