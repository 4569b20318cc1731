package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f6f7f9;color:#1f2328}
header{background:#24292f;color:#fff;padding:.8rem 1.5rem}
main{max-width:1200px;margin:0 auto;padding:1rem 1.5rem}
section{background:#fff;border:1px solid #d0d7de;border-radius:6px;padding:1rem;margin-bottom:1rem}
h2{margin-top:0;font-size:1.1rem}
table{border-collapse:collapse;font-size:.85rem;width:100%}
th,td{border:1px solid #d0d7de;padding:.25rem .5rem;text-align:left}
th small{color:#57606a;font-weight:normal}
.scroll{overflow-x:auto}
.alert{padding:.75rem 1rem;border-radius:6px;margin-bottom:1rem}
.alert-error{background:#ffebe9;border:1px solid #ff8182}
.alert-notice{background:#fff8c5;border:1px solid #d4a72c}
.alert-success{background:#dafbe1;border:1px solid #4ac26b}
.panels{display:grid;grid-template-columns:1fr 1fr;gap:1rem}
.muted{color:#57606a}
`

// Layout wraps body in the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		out.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		out.raw(`<title>`)
		out.text(title)
		out.raw(`</title><style>` + styles + `</style></head><body>`)
		out.raw(`<header><strong>Cleanlytics</strong> <span class="muted">clean, rename, encode and chart tabular data</span></header><main>`)
		out.component(ctx, body)
		out.raw(`</main></body></html>`)
		return out.err
	})
}

// ErrorAlert renders an error message with its suggested action and code.
func ErrorAlert(message, action, code string) templ.Component {
	return Alert(&Flash{Kind: "error", Message: message, Action: action, Code: code})
}

// Alert renders a flash message; nil renders nothing.
func Alert(f *Flash) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if f == nil {
			return nil
		}
		out := &writer{w: w}
		kind := f.Kind
		if kind == "" {
			kind = "notice"
		}
		out.rawf(`<div class="alert alert-%s" role="alert"><strong>`, templ.EscapeString(kind))
		out.text(f.Message)
		out.raw(`</strong>`)
		if f.Action != "" {
			out.raw(` `)
			out.text(f.Action)
		}
		if f.Code != "" {
			out.raw(` <small class="muted">(`)
			out.text(f.Code)
			out.raw(`)</small>`)
		}
		out.raw(`</div>`)
		return out.err
	})
}
