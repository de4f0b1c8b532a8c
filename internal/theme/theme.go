// Package theme provides the lipgloss styles used by dbschema's terminal
// output: highlighted exports, summary tables and the table picker. Every
// visual element references a style held in a Theme so that the whole look
// can be swapped with a single flag.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme holds lipgloss.Style values for every styled element.
type Theme struct {
	Name string

	// Headings
	Title    lipgloss.Style
	Subtitle lipgloss.Style

	// Syntax highlighting of SQL, JSON and YAML exports
	SyntaxKeyword    lipgloss.Style
	SyntaxString     lipgloss.Style
	SyntaxNumber     lipgloss.Style
	SyntaxComment    lipgloss.Style
	SyntaxOperator   lipgloss.Style
	SyntaxFunction   lipgloss.Style
	SyntaxType       lipgloss.Style
	SyntaxIdentifier lipgloss.Style

	// Summary tables (list, history)
	TableBorder lipgloss.Style
	TableHeader lipgloss.Style
	TableCell   lipgloss.Style

	// Table picker
	PickerCursor   lipgloss.Style
	PickerItem     lipgloss.Style
	PickerSelected lipgloss.Style
	PickerMatch    lipgloss.Style
	PickerPrompt   lipgloss.Style

	// Key/value status lines
	StatusKey   lipgloss.Style
	StatusValue lipgloss.Style

	// General
	ErrorText   lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	MutedText   lipgloss.Style
}

// palette is the set of colours a theme is derived from.
type palette struct {
	name string

	accent   string
	fg       string
	muted    string
	border   string
	headerBg string
	selectFg string
	selectBg string

	keyword  string
	str      string
	number   string
	comment  string
	operator string
	function string
	typ      string
	ident    string

	errorFg   string
	successFg string
	warningFg string
}

// ---------------------------------------------------------------------------
// Theme definitions
// ---------------------------------------------------------------------------

var defaultPalette = palette{
	name:      "default",
	accent:    "#569CD6",
	fg:        "#D4D4D4",
	muted:     "#808080",
	border:    "#3C3C3C",
	headerBg:  "#252526",
	selectFg:  "#FFFFFF",
	selectBg:  "#264F78",
	keyword:   "#569CD6",
	str:       "#CE9178",
	number:    "#B5CEA8",
	comment:   "#6A9955",
	operator:  "#D4D4D4",
	function:  "#DCDCAA",
	typ:       "#4EC9B0",
	ident:     "#9CDCFE",
	errorFg:   "#F44747",
	successFg: "#6A9955",
	warningFg: "#CCA700",
}

var lightPalette = palette{
	name:      "light",
	accent:    "#0451A5",
	fg:        "#1E1E1E",
	muted:     "#A0A0A0",
	border:    "#D4D4D4",
	headerBg:  "#F3F3F3",
	selectFg:  "#FFFFFF",
	selectBg:  "#0060C0",
	keyword:   "#0000FF",
	str:       "#A31515",
	number:    "#098658",
	comment:   "#008000",
	operator:  "#1E1E1E",
	function:  "#795E26",
	typ:       "#267F99",
	ident:     "#001080",
	errorFg:   "#CD3131",
	successFg: "#008000",
	warningFg: "#BF8803",
}

var monokaiPalette = palette{
	name:      "monokai",
	accent:    "#F92672",
	fg:        "#F8F8F2",
	muted:     "#75715E",
	border:    "#49483E",
	headerBg:  "#3E3D32",
	selectFg:  "#F8F8F2",
	selectBg:  "#49483E",
	keyword:   "#F92672",
	str:       "#E6DB74",
	number:    "#AE81FF",
	comment:   "#75715E",
	operator:  "#F92672",
	function:  "#A6E22E",
	typ:       "#66D9EF",
	ident:     "#F8F8F2",
	errorFg:   "#F92672",
	successFg: "#A6E22E",
	warningFg: "#E6DB74",
}

func newTheme(p palette) *Theme {
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}

	return &Theme{
		Name: p.name,

		Title: fg(p.accent).
			Bold(true),
		Subtitle: fg(p.muted).
			Italic(true),

		SyntaxKeyword: fg(p.keyword).
			Bold(true),
		SyntaxString: fg(p.str),
		SyntaxNumber: fg(p.number),
		SyntaxComment: fg(p.comment).
			Italic(true),
		SyntaxOperator:   fg(p.operator),
		SyntaxFunction:   fg(p.function),
		SyntaxType:       fg(p.typ),
		SyntaxIdentifier: fg(p.ident),

		TableBorder: fg(p.border),
		TableHeader: fg(p.accent).
			Bold(true).
			Background(lipgloss.Color(p.headerBg)).
			PaddingLeft(1).
			PaddingRight(1),
		TableCell: fg(p.fg).
			PaddingLeft(1).
			PaddingRight(1),

		PickerCursor: fg(p.accent).
			Bold(true),
		PickerItem: fg(p.fg),
		PickerSelected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.selectFg)).
			Background(lipgloss.Color(p.selectBg)),
		PickerMatch: fg(p.function).
			Underline(true),
		PickerPrompt: fg(p.accent),

		StatusKey: fg(p.accent).
			Bold(true),
		StatusValue: fg(p.fg),

		ErrorText: fg(p.errorFg).
			Bold(true),
		SuccessText: fg(p.successFg),
		WarningText: fg(p.warningFg),
		MutedText:   fg(p.muted),
	}
}

// ---------------------------------------------------------------------------
// Registry and accessors
// ---------------------------------------------------------------------------

// Themes maps theme names to their Theme definitions.
var Themes = map[string]*Theme{
	"default": newTheme(defaultPalette),
	"light":   newTheme(lightPalette),
	"monokai": newTheme(monokaiPalette),
}

// Current is the currently active theme. It is initialized to Default.
var Current = Themes["default"]

// Default returns the default dark theme.
func Default() *Theme {
	return Themes["default"]
}

// Get returns the theme identified by name. If no theme with that name exists
// it falls back to the default theme.
func Get(name string) *Theme {
	if t, ok := Themes[name]; ok {
		return t
	}
	return Default()
}
