package templates

import (
	"context"
	"io"
	"net/url"
	"strconv"

	"github.com/JonMunkholm/cleanlytics/internal/core"
	"github.com/a-h/templ"
)

// Page renders the single-page workflow: upload, clean, rename, map,
// visualize and export.
func Page(d PageData) templ.Component {
	return Layout("Cleanlytics", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.component(ctx, Alert(d.Flash))
		out.component(ctx, uploadSection(d))
		if !d.Loaded {
			out.raw(`<section><p class="muted">Upload a CSV or XLSX file to begin.</p></section>`)
			return out.err
		}
		out.component(ctx, previewSection("Raw data", d.FileName, d.Raw))
		out.component(ctx, cleanSection(d))
		out.component(ctx, renameSection(d))
		out.component(ctx, mappingSection(d))
		out.component(ctx, previewSection("Cleaned data", "", d.Working))
		out.component(ctx, exportSection(d))
		out.component(ctx, dashboardSection(d))
		return out.err
	}))
}

func uploadSection(d PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.raw(`<section><h2>Upload</h2>`)
		out.raw(`<form method="post" action="/upload" enctype="multipart/form-data">`)
		out.raw(`<input type="file" name="file" accept=".csv,.txt,.xlsx,.xlsm" required> `)
		out.raw(`<button type="submit">Upload</button>`)
		out.rawf(` <small class="muted">up to %d MB; a new upload replaces the current data</small>`, d.MaxUploadMB)
		out.raw(`</form>`)
		if d.Loaded {
			out.raw(`<form method="post" action="/recipe" enctype="multipart/form-data" style="margin-top:.5rem">`)
			out.raw(`<input type="file" name="recipe" accept=".yaml,.yml" required> `)
			out.raw(`<button type="submit">Apply recipe</button></form>`)
		}
		out.raw(`</section>`)
		return out.err
	})
}

func previewSection(title, fileName string, p Preview) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.raw(`<section><h2>`)
		out.text(title)
		if fileName != "" {
			out.raw(` <small class="muted">`)
			out.text(fileName)
			out.raw(`</small>`)
		}
		out.rawf(`</h2><p class="muted">%d rows, %d columns`, p.Total, len(p.Columns))
		if len(p.Rows) < p.Total {
			out.rawf(`; showing the first %d`, len(p.Rows))
		}
		out.raw(`</p><div class="scroll"><table><thead><tr>`)
		for _, c := range p.Columns {
			out.raw(`<th>`)
			out.text(c.Name)
			out.rawf(`<br><small>%s, %d missing</small></th>`, c.Kind, c.Missing)
		}
		out.raw(`</tr></thead><tbody>`)
		for _, row := range p.Rows {
			out.raw(`<tr>`)
			for _, cell := range row {
				out.raw(`<td>`)
				out.text(cell)
				out.raw(`</td>`)
			}
			out.raw(`</tr>`)
		}
		out.raw(`</tbody></table></div></section>`)
		return out.err
	})
}

func cleanSection(d PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.raw(`<section><h2>Cleaning</h2><form method="post" action="/clean">`)
		out.rawf(`<label><input type="checkbox" name="remove_duplicates" value="true"%s> Remove duplicate rows</label><br>`,
			checked(d.Flags.RemoveDuplicates))
		out.rawf(`<label><input type="checkbox" name="remove_incomplete_rows" value="true"%s> Remove rows with missing values</label><br>`,
			checked(d.Flags.RemoveIncomplete))
		out.raw(`<button type="submit">Apply</button></form>`)
		out.rawf(`<p class="muted">%d rows in, %d duplicates dropped, %d incomplete dropped, %d rows out</p>`,
			d.Stats.RowsIn, d.Stats.DuplicatesDropped, d.Stats.IncompleteDropped, d.Stats.RowsOut)
		out.raw(`</section>`)
		return out.err
	})
}

func renameSection(d PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.raw(`<section><h2>Rename columns</h2><form method="post" action="/rename"><table><tbody>`)
		for _, c := range d.Working.Columns {
			out.raw(`<tr><td>`)
			out.text(c.Name)
			out.raw(`<input type="hidden" name="from" value="`)
			out.text(c.Name)
			out.raw(`"></td><td><input type="text" name="to" placeholder="`)
			out.text(c.Name)
			out.raw(`"></td></tr>`)
		}
		out.raw(`</tbody></table><button type="submit">Confirm rename</button></form></section>`)
		return out.err
	})
}

func mappingSection(d PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.raw(`<section><h2>Categorical mapping</h2>`)
		if len(d.Mappable) == 0 {
			out.raw(`<p class="muted">No categorical columns to map.</p>`)
		} else {
			out.raw(`<form method="get" action="/">`)
			selectedCols := make(map[string]bool, len(d.Mappings))
			for _, m := range d.Mappings {
				selectedCols[m.Column] = true
			}
			for _, col := range d.Mappable {
				out.raw(`<label><input type="checkbox" name="map" value="`)
				out.text(col)
				out.rawf(`"%s> `, checked(selectedCols[col]))
				out.text(col)
				out.raw(`</label> `)
			}
			out.raw(`<button type="submit">Select</button></form>`)
		}

		for _, m := range d.Mappings {
			out.raw(`<form method="post" action="/mapping/`)
			out.text(url.PathEscape(m.Column))
			out.raw(`">`)
			for _, sel := range d.Mappings {
				out.raw(`<input type="hidden" name="map" value="`)
				out.text(sel.Column)
				out.raw(`">`)
			}
			out.raw(`<h3>`)
			out.text(m.Column)
			out.raw(`</h3><table><tbody>`)
			for _, v := range m.Values {
				out.raw(`<tr><td>`)
				out.text(v)
				out.raw(`<input type="hidden" name="value" value="`)
				out.text(v)
				out.raw(`"></td><td><input type="number" step="any" name="code" value="`)
				if code, ok := m.Pending[v]; ok {
					out.text(core.FormatNumber(code))
				}
				out.raw(`"></td></tr>`)
			}
			out.raw(`</tbody></table>`)
			out.raw(`<button type="submit" name="action" value="apply">Apply mapping</button> `)
			out.raw(`<button type="submit" name="action" value="save">Save for later</button> `)
			out.raw(`<button type="submit" name="action" value="discard">Discard</button></form>`)
		}

		if len(d.Applied) > 0 {
			out.raw(`<p class="muted">Mapped columns: `)
			for i, col := range d.Applied {
				if i > 0 {
					out.raw(`, `)
				}
				out.text(col)
			}
			out.raw(`</p>`)
		}
		out.raw(`</section>`)
		return out.err
	})
}

func exportSection(d PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.raw(`<section><h2>Export</h2><p>`)
		out.raw(`<a href="/export.csv">Download CSV</a> | <a href="/export.xlsx">Download XLSX</a> | <a href="/recipe.yaml">Download recipe</a>`)
		if d.DownloadURI != "" {
			out.raw(` | <a download="` + core.ExportBaseName + `.csv" href="`)
			out.text(d.DownloadURI)
			out.raw(`">Direct download link</a>`)
		}
		out.raw(`</p>`)
		if d.LoaderEnabled {
			out.raw(`<form method="post" action="/load">`)
			out.raw(`<input type="text" name="table" placeholder="schema.table" required> `)
			out.raw(`<select name="mode"><option value="append">append</option><option value="replace">replace</option></select> `)
			out.raw(`<button type="submit">Load into database</button></form>`)
		}
		out.raw(`</section>`)
		return out.err
	})
}

func dashboardSection(d PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.raw(`<section><h2>Dashboard</h2><form method="get" action="/">`)
		for _, m := range d.Mappings {
			out.raw(`<input type="hidden" name="map" value="`)
			out.text(m.Column)
			out.raw(`">`)
		}
		out.raw(`<div class="panels">`)
		out.component(ctx, panelView(d.Numeric, "num", func(out *writer) {
			out.raw(` <select name="kind">`)
			for _, k := range d.ChartKinds {
				out.rawf(`<option value="%s"%s>%s</option>`, k, selected(k == d.Numeric.Chart), k)
			}
			out.raw(`</select>`)
		}))
		out.component(ctx, panelView(d.Categorical, "cat", nil))
		out.raw(`</div><button type="submit">Update charts</button></form></section>`)
		return out.err
	})
}

func panelView(p PanelView, param string, extra func(*writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.raw(`<div><h3>`)
		if p.Kind == core.PanelNumeric {
			out.raw(`Numeric`)
		} else {
			out.raw(`Categorical`)
		}
		out.raw(`</h3>`)
		if len(p.Eligible) > 0 {
			out.rawf(`<select name="%s">`, param)
			for _, col := range p.Eligible {
				out.raw(`<option value="`)
				out.text(col)
				out.rawf(`"%s>`, selected(col == p.Column))
				out.text(col)
				out.raw(`</option>`)
			}
			out.raw(`</select>`)
			if extra != nil {
				extra(out)
			}
		}
		if p.Empty {
			out.raw(`<p class="muted">`)
			out.text(p.Message)
			out.raw(`</p>`)
		} else {
			out.raw(`<p><img alt="`)
			out.text(string(p.Chart) + " of " + p.Column)
			out.raw(`" src="`)
			out.text(p.ImageURL)
			out.raw(`"></p><p class="muted">`)
			out.raw(strconv.Itoa(len(p.Points)))
			out.raw(` points</p>`)
		}
		out.raw(`</div>`)
		return out.err
	})
}
