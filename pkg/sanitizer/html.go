// Package sanitizer cleans caller-supplied HTML before it is emailed.
package sanitizer

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	emailPolicy  *bluemonday.Policy
	initOnce     sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()

		// Email bodies lean on tables and inline styles for layout.
		emailPolicy = bluemonday.UGCPolicy()
		emailPolicy.AllowElements("center", "font", "span", "div")
		emailPolicy.AllowAttrs("align", "valign", "width", "height", "bgcolor", "cellpadding", "cellspacing", "border", "colspan", "rowspan").
			OnElements("table", "tr", "td", "th", "tbody", "thead", "tfoot", "img")
		emailPolicy.AllowAttrs("color", "face", "size").OnElements("font")
		emailPolicy.AllowStyles(
			"color", "background", "background-color",
			"font", "font-family", "font-size", "font-style", "font-weight",
			"text-align", "text-decoration", "line-height", "vertical-align",
			"margin", "margin-top", "margin-bottom", "margin-left", "margin-right",
			"padding", "padding-top", "padding-bottom", "padding-left", "padding-right",
			"border", "border-top", "border-bottom", "border-left", "border-right", "border-collapse",
			"width", "max-width", "height",
		).Globally()
		emailPolicy.RequireNoFollowOnLinks(true)
	})
}

// SanitizeEmailHTML keeps the markup email clients render (tables, inline
// styles, images, links) and removes scripts, event handlers, forms and
// javascript: URLs.
func SanitizeEmailHTML(s string) string {
	initPolicies()
	return emailPolicy.Sanitize(s)
}

// StripHTML removes all markup and returns readable plain text.
// Block-level closing tags become line breaks so paragraphs stay apart.
func StripHTML(s string) string {
	initPolicies()

	s = blockBreaks.Replace(s)
	text := html.UnescapeString(strictPolicy.Sanitize(s))

	lines := strings.Split(text, "\n")
	out := lines[:0]
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

var blockBreaks = strings.NewReplacer(
	"<br>", "\n", "<br/>", "\n", "<br />", "\n",
	"</p>", "\n\n", "</div>", "\n", "</tr>", "\n", "</li>", "\n",
	"</h1>", "\n\n", "</h2>", "\n\n", "</h3>", "\n\n", "</table>", "\n\n",
)
