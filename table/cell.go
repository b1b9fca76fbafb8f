package table

import (
	"strconv"
	"strings"
)

// Kind tags the value held by a Cell.
type Kind uint8

const (
	Null Kind = iota
	Int
	Text
)

// Cell is one typed value of a result row.
type Cell struct {
	Kind Kind
	I    int64
	S    string
}

func NullCell() Cell { return Cell{Kind: Null} }
func IntCell(v int64) Cell { return Cell{Kind: Int, I: v} }
func TextCell(v string) Cell { return Cell{Kind: Text, S: v} }
func (c Cell) IsNull() bool { return c.Kind == Null }

// OptionalText yields a Null cell for the empty string.
func OptionalText(v string) Cell {
	if v == "" {
		return NullCell()
	}
	return TextCell(v)
}

// String renders the cell for display. Null renders as the empty string.
func (c Cell) String() string {
	switch c.Kind {
	case Int:
		return strconv.FormatInt(c.I, 10)
	case Text:
		return c.S
	default:
		return ""
	}
}

// Value returns the cell as a plain Go value (nil, int64 or string), which is
// what encoders want.
func (c Cell) Value() any {
	switch c.Kind {
	case Int:
		return c.I
	case Text:
		return c.S
	default:
		return nil
	}
}

// Compare orders two cells: null before any non-null value, integers
// numerically, everything else by case-insensitive text.
func Compare(a, b Cell) int {
	switch {
	case a.IsNull() && b.IsNull():
		return 0
	case a.IsNull():
		return -1
	case b.IsNull():
		return 1
	case a.Kind == Int && b.Kind == Int:
		switch {
		case a.I < b.I:
			return -1
		case a.I > b.I:
			return 1
		}
		return 0
	}
	return strings.Compare(strings.ToLower(a.String()), strings.ToLower(b.String()))
}
