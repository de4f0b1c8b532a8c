package theme

import (
	"testing"
)

func TestThemes_AllRegistered(t *testing.T) {
	expected := []string{"default", "light", "monokai"}
	for _, name := range expected {
		if _, ok := Themes[name]; !ok {
			t.Errorf("expected theme %q to be registered", name)
		}
	}
}

func TestThemes_NamesMatch(t *testing.T) {
	for name, th := range Themes {
		if th.Name != name {
			t.Errorf("theme registered as %q has Name=%q", name, th.Name)
		}
	}
}

func TestDefault(t *testing.T) {
	d := Default()
	if d == nil {
		t.Fatal("Default() returned nil")
	}
	if d.Name != "default" {
		t.Errorf("Default().Name = %q, want %q", d.Name, "default")
	}
}

func TestGet_ExistingTheme(t *testing.T) {
	tests := []string{"default", "light", "monokai"}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			th := Get(name)
			if th == nil {
				t.Fatalf("Get(%q) returned nil", name)
			}
			if th.Name != name {
				t.Errorf("Get(%q).Name = %q", name, th.Name)
			}
		})
	}
}

func TestGet_UnknownTheme_FallsBackToDefault(t *testing.T) {
	th := Get("nonexistent")
	if th == nil {
		t.Fatal("Get(nonexistent) returned nil")
	}
	if th.Name != "default" {
		t.Errorf("Get(nonexistent).Name = %q, want %q", th.Name, "default")
	}
}

func TestGet_EmptyString_FallsBackToDefault(t *testing.T) {
	th := Get("")
	if th == nil {
		t.Fatal("Get(\"\") returned nil")
	}
	if th.Name != "default" {
		t.Errorf("Get(\"\").Name = %q, want %q", th.Name, "default")
	}
}

func TestCurrent_InitialValue(t *testing.T) {
	if Current == nil {
		t.Fatal("Current is nil at init")
	}
	if Current.Name != "default" {
		t.Errorf("Current.Name = %q, want %q", Current.Name, "default")
	}
}

func TestCurrent_CanBeSwapped(t *testing.T) {
	original := Current
	defer func() { Current = original }()

	Current = Themes["monokai"]
	if Current.Name != "monokai" {
		t.Errorf("Current.Name = %q after swap, want %q", Current.Name, "monokai")
	}
}

func TestDefaultTheme_SyntaxStyles(t *testing.T) {
	d := Default()
	// Verify that syntax styles render non-empty output (styles are properly initialised).
	tests := []struct {
		name  string
		style func() string
	}{
		{"SyntaxKeyword", func() string { return d.SyntaxKeyword.Render("CREATE") }},
		{"SyntaxString", func() string { return d.SyntaxString.Render("'active'") }},
		{"SyntaxNumber", func() string { return d.SyntaxNumber.Render("42") }},
		{"SyntaxComment", func() string { return d.SyntaxComment.Render("-- SQL DDL Export") }},
		{"SyntaxOperator", func() string { return d.SyntaxOperator.Render("=") }},
		{"SyntaxFunction", func() string { return d.SyntaxFunction.Render("now") }},
		{"SyntaxType", func() string { return d.SyntaxType.Render("INTEGER") }},
		{"SyntaxIdentifier", func() string { return d.SyntaxIdentifier.Render("users") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.style()
			if out == "" {
				t.Errorf("%s rendered empty string", tt.name)
			}
		})
	}
}

func TestTheme_Styles_NotZeroValue(t *testing.T) {
	for name, th := range Themes {
		t.Run(name, func(t *testing.T) {
			// Verify key styles produce non-empty output.
			pairs := []struct {
				label string
				out   string
			}{
				{"Title", th.Title.Render("dbschema")},
				{"Subtitle", th.Subtitle.Render("shop.db")},
				{"TableHeader", th.TableHeader.Render("TABLE")},
				{"TableCell", th.TableCell.Render("users")},
				{"TableBorder", th.TableBorder.Render("|")},
				{"PickerCursor", th.PickerCursor.Render(">")},
				{"PickerItem", th.PickerItem.Render("orders")},
				{"PickerSelected", th.PickerSelected.Render("users")},
				{"PickerMatch", th.PickerMatch.Render("us")},
				{"PickerPrompt", th.PickerPrompt.Render("/")},
				{"StatusKey", th.StatusKey.Render("tables")},
				{"StatusValue", th.StatusValue.Render("2")},
				{"ErrorText", th.ErrorText.Render("error")},
				{"SuccessText", th.SuccessText.Render("ok")},
				{"WarningText", th.WarningText.Render("warn")},
				{"MutedText", th.MutedText.Render("muted")},
			}
			for _, p := range pairs {
				if p.out == "" {
					t.Errorf("%s: %s rendered empty", name, p.label)
				}
			}
		})
	}
}

func TestPalettes_Distinct(t *testing.T) {
	seen := map[string]string{}
	for _, p := range []palette{defaultPalette, lightPalette, monokaiPalette} {
		if other, ok := seen[p.accent+p.fg]; ok {
			t.Errorf("palette %q reuses the colours of %q", p.name, other)
		}
		seen[p.accent+p.fg] = p.name
	}
}

func TestThemes_AreDistinct(t *testing.T) {
	d := Themes["default"]
	l := Themes["light"]
	m := Themes["monokai"]

	// Themes should be different objects.
	if d == l {
		t.Error("default and light are the same pointer")
	}
	if d == m {
		t.Error("default and monokai are the same pointer")
	}
	if l == m {
		t.Error("light and monokai are the same pointer")
	}
}
