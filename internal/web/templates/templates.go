// Package templates holds the HTML fragments the web layer swaps into the
// import page over HTMX.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/PeopleImport/internal/core"
	"github.com/a-h/templ"
)

// ErrorAlert renders a dismissible alert for a failed request.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert alert-error" role="alert">`)
		b.WriteString(`<p class="alert-message">` + templ.EscapeString(message) + `</p>`)
		if action != "" {
			b.WriteString(`<p class="alert-action">` + templ.EscapeString(action) + `</p>`)
		}
		b.WriteString(`<small class="alert-code">` + templ.EscapeString(code) + `</small>`)
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ErrorList renders grouped row errors as a table. Row numbers are shown
// 1-based. total is the number of rows with errors across every page.
func ErrorList(sessionID string, rows []core.GroupedRow, total int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<section id="errors-%s" class="error-list">`, templ.EscapeString(sessionID))
		if total == 0 {
			b.WriteString(`<p class="empty">No validation errors</p></section>`)
			_, err := io.WriteString(w, b.String())
			return err
		}

		fmt.Fprintf(&b, `<p class="summary">%d rows with errors</p>`, total)
		b.WriteString(`<table><thead><tr><th>Row</th><th>Field</th><th>Value</th><th>Problem</th></tr></thead><tbody>`)
		for _, row := range rows {
			for _, f := range row.Fields {
				fmt.Fprintf(&b, `<tr data-row="%d" data-field="%s">`, row.Row, templ.EscapeString(string(f.Field)))
				fmt.Fprintf(&b, `<td>%d</td>`, row.Row+1)
				b.WriteString(`<td>` + templ.EscapeString(core.Label(f.Field)) + `</td>`)
				b.WriteString(`<td>` + templ.EscapeString(valueText(f.Value)) + `</td>`)
				b.WriteString(`<td>` + templ.EscapeString(strings.Join(f.Messages, "; ")) + `</td>`)
				b.WriteString(`</tr>`)
			}
		}
		b.WriteString(`</tbody></table></section>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func valueText(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
