// Package table holds the tabular result handed to the presentation layer:
// named columns, rows of typed cells, and in-place ordering by one column.
package table

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	jsoniter "github.com/json-iterator/go"
)

var ErrUnknownColumn = errors.New("unknown column")

// Row is one record of a Table.
type Row []Cell

// At returns the cell in column col, or a null cell when the row is too short.
func (r Row) At(col int) Cell {
	if col < 0 || col >= len(r) {
		return NullCell()
	}
	return r[col]
}

// Table is an ordered list of named columns and an ordered list of rows.
type Table struct {
	Columns []string
	Rows    []Row
}

// New returns an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: columns, Rows: []Row{}}
}

// Append adds a row. The caller keeps cell order aligned with Columns.
func (t *Table) Append(cells ...Cell) {
	t.Rows = append(t.Rows, Row(cells))
}

func (t *Table) Len() int { return len(t.Rows) }

// ColumnIndex resolves a column name case-insensitively.
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, c := range t.Columns {
		if strings.EqualFold(c, strings.TrimSpace(name)) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
}

// SortBy orders the rows ascending by column col.
func (t *Table) SortBy(col int) error {
	if col < 0 || col >= len(t.Columns) {
		return fmt.Errorf("%w: index %d", ErrUnknownColumn, col)
	}
	HeapSort(t.Rows, col)
	return nil
}

// SortByName orders the rows ascending by the named column.
func (t *Table) SortByName(name string) error {
	col, err := t.ColumnIndex(name)
	if err != nil {
		return err
	}
	return t.SortBy(col)
}

// WriteText renders the table with a bordered grid. Colors are used only when
// w is a terminal.
func (t *Table) WriteText(w io.Writer) error {
	re := lipgloss.NewRenderer(w)
	headerStyle := re.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := re.NewStyle().Padding(0, 1)

	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		rows[r] = make([]string, len(t.Columns))
		for i := range t.Columns {
			rows[r][i] = row.At(i).String()
		}
	}

	grid := lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(re.NewStyle().Foreground(lipgloss.Color("#64748B"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(t.Columns...).
		Rows(rows...)

	_, err := fmt.Fprintln(w, grid.String())
	return err
}

// WriteJSON renders the table as a JSON array of objects keyed by column name.
// Objects keep the column order of the table.
func (t *Table) WriteJSON(w io.Writer) error {
	stream := jsoniter.ConfigCompatibleWithStandardLibrary.BorrowStream(w)
	defer jsoniter.ConfigCompatibleWithStandardLibrary.ReturnStream(stream)

	stream.WriteArrayStart()
	for r, row := range t.Rows {
		if r > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectStart()
		for i, col := range t.Columns {
			if i > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(col)
			stream.WriteVal(row.At(i).Value())
		}
		stream.WriteObjectEnd()
	}
	stream.WriteArrayEnd()
	stream.WriteRaw("\n")
	return stream.Flush()
}
