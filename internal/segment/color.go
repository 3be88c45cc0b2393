package segment

import "fmt"

// colorReset terminates a colored run in the statuscolors escape format.
const colorReset = "\x01"

// Color is an optional status-bar color code.
// The zero value is Uncolored.
type Color struct {
	code uint8
	set  bool
}

// Uncolored leaves text unchanged.
var Uncolored = Color{}

// Colored returns a Color for the given escape code.
func Colored(code uint8) Color {
	return Color{code: code, set: true}
}

// IsSet reports whether c carries a color code.
func (c Color) IsSet() bool {
	return c.set
}

// Code returns the escape code and whether one is set.
func (c Color) Code() (uint8, bool) {
	return c.code, c.set
}

// Or returns c if it is set and def otherwise.
func (c Color) Or(def Color) Color {
	if c.set {
		return c
	}
	return def
}

// Apply wraps text in the color's escape sequence.
// Uncolored and empty text are returned verbatim.
func (c Color) Apply(text string) string {
	if !c.set || text == "" {
		return text
	}
	return string(rune(c.code)) + text + colorReset
}

// String implements fmt.Stringer.
func (c Color) String() string {
	if !c.set {
		return "uncolored"
	}
	return fmt.Sprintf("color(%d)", c.code)
}

// Coloring holds one color slot per decorated field of a segment.
// A colored field that renders empty is emitted without an escape pair, so
// an empty icon or separator never leaves a bare color code in the line.
type Coloring struct {
	Text           Color
	LeftSeparator  Color
	RightSeparator Color
	Icon           Color
}

// Or fills every unset slot of c from def.
func (c Coloring) Or(def Coloring) Coloring {
	return Coloring{
		Text:           c.Text.Or(def.Text),
		LeftSeparator:  c.LeftSeparator.Or(def.LeftSeparator),
		RightSeparator: c.RightSeparator.Or(def.RightSeparator),
		Icon:           c.Icon.Or(def.Icon),
	}
}
