// Package highlight colours exported SQL, JSON and YAML for terminal output.
package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/dbschema/internal/theme"
)

// lexerNames maps an export format or dialect id to the chroma lexer that
// tokenises it.
var lexerNames = map[string]string{
	"sql":      "SQL",
	"mysql":    "MySQL",
	"postgres": "postgresql",
	"sqlite":   "SQL",
	"json":     "JSON",
	"yaml":     "YAML",
}

// Highlighter tokenises text using chroma and renders it with lipgloss
// styles from a theme.
type Highlighter struct {
	lexer chroma.Lexer
}

// New creates a Highlighter for the given format ("json", "yaml", "sql") or
// SQL dialect ("mysql", "postgres", "sqlite"). Unknown formats fall back to
// the generic SQL lexer.
func New(format string) *Highlighter {
	var l chroma.Lexer
	if name, ok := lexerNames[strings.ToLower(format)]; ok {
		l = lexers.Get(name)
	}
	if l == nil {
		l = lexers.Get("SQL")
	}
	if l == nil {
		l = lexers.Fallback
	}
	// Coalesce runs of identical token types so the loop below processes
	// fewer, larger chunks.
	l = chroma.Coalesce(l)

	return &Highlighter{lexer: l}
}

// Render tokenises text and returns it with each token styled from th.
// Newlines are preserved so multi-line output renders correctly. A nil
// theme returns text unchanged.
func (h *Highlighter) Render(text string, th *theme.Theme) string {
	if th == nil {
		return text
	}

	iter, err := h.lexer.Tokenise(nil, text)
	if err != nil {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) * 2)

	for _, tok := range iter.Tokens() {
		value := tok.Value
		if value == "" {
			continue
		}

		style, ok := styleFor(tok.Type, th)
		if !ok {
			b.WriteString(value)
			continue
		}

		// Style each line of a multi-line token separately so that a
		// newline is always emitted as-is.
		if strings.Contains(value, "\n") {
			lines := strings.Split(value, "\n")
			for i, line := range lines {
				if line != "" {
					b.WriteString(style.Render(line))
				}
				if i < len(lines)-1 {
					b.WriteByte('\n')
				}
			}
		} else {
			b.WriteString(style.Render(value))
		}
	}

	return b.String()
}

// styleFor maps a chroma token type to the corresponding lipgloss.Style from
// the theme. The second return value is false when the token should pass
// through unstyled.
func styleFor(tt chroma.TokenType, th *theme.Theme) (lipgloss.Style, bool) {
	switch {
	// KeywordType is a subtype of Keyword, so check it first to give SQL
	// types (e.g. INT, VARCHAR) their own colour.
	case tt == chroma.KeywordType:
		return th.SyntaxType, true
	case tt == chroma.NameFunction || tt == chroma.NameBuiltin:
		return th.SyntaxFunction, true
	// JSON object keys and YAML mapping keys.
	case tt == chroma.NameTag || tt == chroma.NameAttribute:
		return th.SyntaxIdentifier, true
	case tt.InCategory(chroma.Keyword):
		return th.SyntaxKeyword, true
	case tt.InSubCategory(chroma.LiteralString):
		return th.SyntaxString, true
	case tt.InSubCategory(chroma.LiteralNumber):
		return th.SyntaxNumber, true
	case tt.InCategory(chroma.Comment):
		return th.SyntaxComment, true
	case tt == chroma.Operator || tt == chroma.OperatorWord:
		return th.SyntaxOperator, true
	default:
		return lipgloss.Style{}, false
	}
}
