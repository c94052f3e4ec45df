package tabular

import (
	"errors"
	"testing"
)

func TestNewTemplate(t *testing.T) {
	tests := []struct {
		columns int
		want    string
	}{
		{1, `"{0}"`},
		{3, `"{0}","{1}","{2}"`},
	}

	for _, tt := range tests {
		tmpl, err := NewTemplate(tt.columns)
		if err != nil {
			t.Fatalf("NewTemplate(%d) failed: %v", tt.columns, err)
		}
		if tmpl.String() != tt.want {
			t.Errorf("NewTemplate(%d) = %s, want %s", tt.columns, tmpl.String(), tt.want)
		}
		if tmpl.Slots() != tt.columns {
			t.Errorf("Slots() = %d, want %d", tmpl.Slots(), tt.columns)
		}
	}

	if _, err := NewTemplate(0); !errors.Is(err, ErrNoColumns) {
		t.Errorf("NewTemplate(0) error = %v, want ErrNoColumns", err)
	}
}

func TestTemplate_Format(t *testing.T) {
	tmpl, err := NewTemplate(3)
	if err != nil {
		t.Fatalf("NewTemplate() failed: %v", err)
	}

	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"plain", []string{"a", "b", "c"}, `"a","b","c"`},
		{"empty values", []string{"", "", ""}, `"","",""`},
		{"value looks like placeholder", []string{"{1}", "x", "y"}, `"{1}","x","y"`},
		{"extra values ignored", []string{"a", "b", "c", "d"}, `"a","b","c"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tmpl.Format(tt.values)
			if err != nil {
				t.Fatalf("Format() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Format() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTemplate_FormatTooFewValues(t *testing.T) {
	tmpl, _ := NewTemplate(2)
	if _, err := tmpl.Format([]string{"only"}); !errors.Is(err, ErrTemplateArity) {
		t.Errorf("Format() error = %v, want ErrTemplateArity", err)
	}
}

func TestDuplicateQuotes(t *testing.T) {
	tests := map[string]string{
		``:         ``,
		`plain`:    `plain`,
		`A"B`:      `A""B`,
		`"quoted"`: `""quoted""`,
		`""`:       `""""`,
	}
	for in, want := range tests {
		if got := DuplicateQuotes(in); got != want {
			t.Errorf("DuplicateQuotes(%q) = %q, want %q", in, got, want)
		}
	}
}
