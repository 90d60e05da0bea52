// internal/template/template.go
package template

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/unclebandit/taxleopard-backend/internal/model"
)

// Recognized is the closed set of placeholders admins may use in campaign
// and notification templates. Every entry is supplied by the dispatcher at
// send time; a name validation accepts but dispatch cannot fill would
// silently render empty in real mail.
var Recognized = map[string]bool{
	"name":            true,
	"first_name":      true,
	"last_name":       true,
	"email":           true,
	"company_name":    true,
	"unsubscribe_url": true,
	"current_year":    true,
}

// UnsubscribePlaceholder must appear somewhere in every marketing template.
const UnsubscribePlaceholder = "unsubscribe_url"

var (
	tripleRe = regexp.MustCompile(`\{\{\{\s*([a-zA-Z0-9_]+)\s*\}\}\}`)
	doubleRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)
)

// Render substitutes {{key}} (HTML-escaped) and {{{key}}} (raw) tokens from
// vars. Rendering is deliberately permissive: a token with no matching
// variable becomes the empty string so drafts can always be previewed.
func Render(src string, vars map[string]string) string {
	out := tripleRe.ReplaceAllStringFunc(src, func(m string) string {
		key := tripleRe.FindStringSubmatch(m)[1]
		return vars[key]
	})
	return doubleRe.ReplaceAllStringFunc(out, func(m string) string {
		key := doubleRe.FindStringSubmatch(m)[1]
		return html.EscapeString(vars[key])
	})
}

// Rendered is the per-recipient content snapshot stored alongside a send.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

// RenderAll renders the three bodies of a campaign with one variable map.
func RenderAll(subject, htmlBody, textBody string, vars map[string]string) Rendered {
	return Rendered{
		Subject: Render(subject, vars),
		HTML:    Render(htmlBody, vars),
		Text:    Render(textBody, vars),
	}
}

// Placeholders returns the distinct placeholder names used in src, in
// sorted order.
func Placeholders(src string) []string {
	seen := map[string]bool{}
	stripped := tripleRe.ReplaceAllStringFunc(src, func(m string) string {
		seen[tripleRe.FindStringSubmatch(m)[1]] = true
		return ""
	})
	for _, m := range doubleRe.FindAllStringSubmatch(stripped, -1) {
		seen[m[1]] = true
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate is the strict counterpart of Render, run before a template is
// saved or sent. Any placeholder outside the recognized set is rejected,
// and marketing-category templates must carry the unsubscribe link.
func Validate(category, subject, htmlBody, textBody string) error {
	var unknown []string
	hasUnsub := false

	for _, src := range []string{subject, htmlBody, textBody} {
		for _, name := range Placeholders(src) {
			if name == UnsubscribePlaceholder {
				hasUnsub = true
			}
			if !Recognized[name] {
				unknown = append(unknown, name)
			}
		}
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unrecognized placeholder(s): %s", strings.Join(unknown, ", "))
	}
	if category == model.CategoryMarketing && !hasUnsub {
		return fmt.Errorf("marketing templates must contain the {{%s}} placeholder", UnsubscribePlaceholder)
	}
	return nil
}
