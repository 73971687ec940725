package view

import (
	"strings"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// ResultsList shows one detection per line.
type ResultsList interface {
	SetLines(lines []string)
}

type resultsList struct {
	text *TextWidget
}

// NewResultsList creates a read-only text area at (row, 0) spanning cols columns.
func NewResultsList(row, cols int) ResultsList {
	t := Text(Height(6), Width(80), Wrap("none"))
	Grid(t, Row(row), Column(0), Columnspan(cols), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	t.Configure(State("disabled"))
	return &resultsList{text: t}
}

func (r *resultsList) SetLines(lines []string) {
	if r == nil || r.text == nil {
		return
	}
	r.text.Configure(State("normal"))
	r.text.Delete("1.0", END)
	if len(lines) > 0 {
		r.text.Insert("1.0", strings.Join(lines, "\n"))
	}
	r.text.Configure(State("disabled"))
}
