package engine

import (
	"fmt"
	"strings"

	"go.starlark.net/starlark"
)

// Chart is a lightweight chart value. Charts render to inline SVG so the
// browser needs no plotting runtime, and they are auto-detected after each
// run: any chart still bound to a namespace variable is appended to the HTML
// output even if never displayed.
type Chart struct {
	Kind   string // "bar" or "line"
	Title  string
	Labels []string
	Values []float64
}

func (c *Chart) String() string        { return fmt.Sprintf("<chart %s %q>", c.Kind, c.Title) }
func (c *Chart) Type() string          { return "chart" }
func (c *Chart) Freeze()               {}
func (c *Chart) Truth() starlark.Bool  { return starlark.Bool(len(c.Values) > 0) }
func (c *Chart) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: chart") }

const (
	chartWidth  = 640
	chartHeight = 320
	chartPad    = 40
)

// HTMLFragment renders the chart as a standalone SVG fragment.
func (c *Chart) HTMLFragment() string {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg class="nb-chart" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`, chartWidth, chartHeight)
	if c.Title != "" {
		fmt.Fprintf(&b, `<text x="%d" y="20" text-anchor="middle" font-size="14">%s</text>`, chartWidth/2, escape(c.Title))
	}
	if len(c.Values) > 0 {
		max := c.Values[0]
		for _, v := range c.Values {
			if v > max {
				max = v
			}
		}
		if max <= 0 {
			max = 1
		}
		plotW := float64(chartWidth - 2*chartPad)
		plotH := float64(chartHeight - 2*chartPad)
		switch c.Kind {
		case "line":
			points := make([]string, len(c.Values))
			for i, v := range c.Values {
				x := float64(chartPad)
				if len(c.Values) > 1 {
					x += plotW * float64(i) / float64(len(c.Values)-1)
				}
				y := float64(chartHeight-chartPad) - plotH*(v/max)
				points[i] = fmt.Sprintf("%.1f,%.1f", x, y)
			}
			fmt.Fprintf(&b, `<polyline fill="none" stroke="#1f77b4" stroke-width="2" points="%s"/>`, strings.Join(points, " "))
		default:
			barW := plotW / float64(len(c.Values))
			for i, v := range c.Values {
				h := plotH * (v / max)
				x := float64(chartPad) + barW*float64(i)
				y := float64(chartHeight-chartPad) - h
				fmt.Fprintf(&b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="#1f77b4"/>`, x+barW*0.1, y, barW*0.8, h)
			}
		}
	}
	for i, label := range c.Labels {
		if i >= len(c.Values) {
			break
		}
		step := float64(chartWidth-2*chartPad) / float64(len(c.Labels))
		x := float64(chartPad) + step*(float64(i)+0.5)
		fmt.Fprintf(&b, `<text x="%.1f" y="%d" text-anchor="middle" font-size="11">%s</text>`, x, chartHeight-chartPad+16, escape(label))
	}
	b.WriteString(`</svg>`)
	return b.String()
}

// Table is a tabular value rendered as an HTML table.
type Table struct {
	Columns []string
	Rows    [][]string
}

func (t *Table) String() string        { return fmt.Sprintf("<table %d×%d>", len(t.Rows), len(t.Columns)) }
func (t *Table) Type() string          { return "table" }
func (t *Table) Freeze()               {}
func (t *Table) Truth() starlark.Bool  { return starlark.Bool(len(t.Rows) > 0) }
func (t *Table) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: table") }

func (t *Table) HTMLFragment() string {
	var b strings.Builder
	b.WriteString(`<table class="dataframe"><thead><tr>`)
	for _, col := range t.Columns {
		fmt.Fprintf(&b, "<th>%s</th>", escape(col))
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range t.Rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			fmt.Fprintf(&b, "<td>%s</td>", escape(cell))
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

func makeTable(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var columnsV, rowsV starlark.Iterable
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "columns", &columnsV, "rows", &rowsV); err != nil {
		return nil, err
	}
	columns, err := stringSlice(columnsV)
	if err != nil {
		return nil, fmt.Errorf("%s: columns: %w", b.Name(), err)
	}
	var rows [][]string
	iter := rowsV.Iterate()
	defer iter.Done()
	var rowV starlark.Value
	for iter.Next(&rowV) {
		rowIter, ok := rowV.(starlark.Iterable)
		if !ok {
			return nil, fmt.Errorf("%s: rows must be iterables, got %s", b.Name(), rowV.Type())
		}
		row, err := stringSlice(rowIter)
		if err != nil {
			return nil, fmt.Errorf("%s: row: %w", b.Name(), err)
		}
		rows = append(rows, row)
	}
	return &Table{Columns: columns, Rows: rows}, nil
}

func makeBarChart(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return makeChart("bar", b, args, kwargs)
}

func makeLineChart(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return makeChart("line", b, args, kwargs)
}

func makeChart(kind string, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var labelsV, valuesV starlark.Iterable
	var title string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "labels", &labelsV, "values", &valuesV, "title?", &title); err != nil {
		return nil, err
	}
	labels, err := stringSlice(labelsV)
	if err != nil {
		return nil, fmt.Errorf("%s: labels: %w", b.Name(), err)
	}
	values, err := floatSlice(valuesV)
	if err != nil {
		return nil, fmt.Errorf("%s: values: %w", b.Name(), err)
	}
	return &Chart{Kind: kind, Title: title, Labels: labels, Values: values}, nil
}

func stringSlice(it starlark.Iterable) ([]string, error) {
	var out []string
	iter := it.Iterate()
	defer iter.Done()
	var v starlark.Value
	for iter.Next(&v) {
		out = append(out, plainString(v))
	}
	return out, nil
}

func floatSlice(it starlark.Iterable) ([]float64, error) {
	var out []float64
	iter := it.Iterate()
	defer iter.Done()
	var v starlark.Value
	for iter.Next(&v) {
		f, ok := starlark.AsFloat(v)
		if !ok {
			return nil, fmt.Errorf("want a number, got %s", v.Type())
		}
		out = append(out, f)
	}
	return out, nil
}
