package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exec(t *testing.T, e *Engine, src string) Result {
	t.Helper()
	return e.Execute(src, nil, 30*time.Second)
}

func TestExecutePersistsNamespace(t *testing.T) {
	e := New("")

	res := exec(t, e, "x = 42")
	require.True(t, res.OK(), res.Error)

	res = exec(t, e, "print(x)")
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, "42\n", res.Output)
}

func TestExecuteMutableStateAcrossCells(t *testing.T) {
	e := New("")

	require.True(t, exec(t, e, "items = []").OK())
	require.True(t, exec(t, e, `items.append("a")`).OK())
	res := exec(t, e, "print(len(items))")
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, "1\n", res.Output)
}

func TestEnginesAreIsolated(t *testing.T) {
	a := New("")
	b := New("")

	require.True(t, exec(t, a, "x = 1").OK())

	res := exec(t, b, "print(x)")
	require.False(t, res.OK())
	assert.Contains(t, res.Error, "undefined: x")
}

func TestExecuteParamOverride(t *testing.T) {
	e := New("")
	src := "n = 10  # @param\nprint(n * 2)"

	res := e.Execute(src, map[string]any{"n": float64(20)}, 30*time.Second)
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, "40\n", res.Output)
}

func TestExecuteErrorIsDataNotFailure(t *testing.T) {
	e := New("")

	res := exec(t, e, "y = 1\nfail(\"ValueError: boom\")")
	require.False(t, res.OK())
	assert.Contains(t, res.Error, "ValueError: boom")

	// Bindings made before the failure survive.
	res = exec(t, e, "print(y)")
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, "1\n", res.Output)
}

func TestExecuteErrorSuppressesHTML(t *testing.T) {
	e := New("")

	res := exec(t, e, "display(html(\"<b>hi</b>\"))\nfail(\"boom\")")
	require.False(t, res.OK())
	assert.Empty(t, res.HTML)

	// The next successful run still emits rich output.
	res = exec(t, e, `display(html("<i>ok</i>"))`)
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, "<i>ok</i>", res.HTML)
}

func TestExecuteSyntaxError(t *testing.T) {
	e := New("")
	res := exec(t, e, "def broken(:\n")
	require.False(t, res.OK())
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, res.HTML)
}

func TestReset(t *testing.T) {
	e := New("base/")

	require.True(t, exec(t, e, "x = 1").OK())
	e.Reset()

	res := exec(t, e, "print(x)")
	require.False(t, res.OK())

	// Seeded names survive a reset.
	res = exec(t, e, "print(BASE_PATH)")
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, "base/\n", res.Output)
}

func TestDisplayHTMLCapture(t *testing.T) {
	e := New("")

	res := exec(t, e, `display(html("<b>hi</b>"))`)
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, "<b>hi</b>", res.HTML)
	assert.Empty(t, res.Output)
}

func TestDisplayPlainValueGoesToText(t *testing.T) {
	e := New("")

	res := exec(t, e, `display("plain")`)
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, "plain\n", res.Output)
	assert.Empty(t, res.HTML)
}

func TestDisplayMarkdown(t *testing.T) {
	e := New("")

	res := exec(t, e, `display(markdown("# Title"))`)
	require.True(t, res.OK(), res.Error)
	assert.Contains(t, res.HTML, `markdown-content`)
	assert.Contains(t, res.HTML, "# Title")
}

func TestClearOutput(t *testing.T) {
	e := New("")

	res := exec(t, e, "display(html(\"<b>A</b>\"))\nclear_output()\ndisplay(html(\"<i>B</i>\"))")
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, "<i>B</i>", res.HTML)
}

func TestChartAutoCollected(t *testing.T) {
	e := New("")

	res := exec(t, e, `c = bar_chart(["a", "b"], [1, 2], title="T")`)
	require.True(t, res.OK(), res.Error)
	assert.Contains(t, res.HTML, "<svg")
	assert.Contains(t, res.HTML, ">T</text>")
}

func TestTableDisplay(t *testing.T) {
	e := New("")

	res := exec(t, e, `display(table(["name"], [["ada"]]))`)
	require.True(t, res.OK(), res.Error)
	assert.Contains(t, res.HTML, `<table class="dataframe">`)
	assert.Contains(t, res.HTML, "ada")
}

func TestStderrCombined(t *testing.T) {
	e := New("")

	res := exec(t, e, "print(\"out\")\neprint(\"warn\")")
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, "out\n\n[stderr]\nwarn\n", res.Output)
}

func TestSetVarGetVar(t *testing.T) {
	e := New("")

	e.SetVar("k", int64(5))
	res := exec(t, e, "k2 = k + 1")
	require.True(t, res.OK(), res.Error)

	v, ok := e.GetVar("k2")
	require.True(t, ok)
	assert.Equal(t, int64(6), v)

	_, ok = e.GetVar("missing")
	assert.False(t, ok)
}

func TestSeededModules(t *testing.T) {
	e := New("")

	res := exec(t, e, `print(json.encode({"a": 1}))`)
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, "{\"a\":1}\n", res.Output)

	res = exec(t, e, "print(int(math.floor(2.9)))")
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, "2\n", res.Output)
}

func TestElapsedRecorded(t *testing.T) {
	e := New("")
	res := exec(t, e, "x = 1")
	assert.GreaterOrEqual(t, res.Elapsed, 0.0)
}
