package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestPrompter_Ask(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   string
		want  string
	}{
		{"answer", "acme\n", "www", "acme"},
		{"default on empty line", "\n", "www", "www"},
		{"trims whitespace", "  acme  \n", "", "acme"},
		{"repeats until answered", "\n\nBob\n", "", "Bob"},
		{"last line without newline", "acme", "", "acme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := newPrompter(strings.NewReader(tt.input), &out)

			got, err := p.ask("Subdomain", tt.def)
			if err != nil {
				t.Fatalf("ask() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ask() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrompter_AskShowsDefault(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("\n"), &out)

	if _, err := p.ask("Small Improvements subdomain", "www"); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "Small Improvements subdomain [www]: " {
		t.Errorf("prompt = %q", got)
	}
}

func TestPrompter_AskEOF(t *testing.T) {
	p := newPrompter(strings.NewReader(""), &bytes.Buffer{})

	if _, err := p.ask("Nickname", ""); !errors.Is(err, errAborted) {
		t.Errorf("ask() error = %v, want errAborted", err)
	}
}

func TestPrompter_Confirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   bool
		want  bool
	}{
		{"yes", "y\n", false, true},
		{"YES", "YES\n", false, true},
		{"no", "n\n", true, false},
		{"default true", "\n", true, true},
		{"default false", "\n", false, false},
		{"repeats on junk", "maybe\nyes\n", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPrompter(strings.NewReader(tt.input), &bytes.Buffer{})

			got, err := p.confirm("Continue?", tt.def)
			if err != nil {
				t.Fatalf("confirm() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("confirm() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrompter_ConfirmHint(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("\n\n"), &out)

	p.confirm("A", true)
	p.confirm("B", false)

	if got := out.String(); got != "A [Y/n]: B [y/N]: " {
		t.Errorf("prompts = %q", got)
	}
}

func TestPrompter_MustConfirm(t *testing.T) {
	p := newPrompter(strings.NewReader("n\n"), &bytes.Buffer{})
	if err := p.mustConfirm("Overwrite?", false); !errors.Is(err, errAborted) {
		t.Errorf("mustConfirm() error = %v, want errAborted", err)
	}

	p = newPrompter(strings.NewReader("y\n"), &bytes.Buffer{})
	if err := p.mustConfirm("Overwrite?", false); err != nil {
		t.Errorf("mustConfirm() error = %v", err)
	}
}

func TestReadToken_FromEnvironment(t *testing.T) {
	t.Setenv("ACME_TOKEN", "secret")

	got, err := readToken("ACME_TOKEN")
	if err != nil {
		t.Fatalf("readToken() error = %v", err)
	}
	if got != "secret" {
		t.Errorf("readToken() = %q, want %q", got, "secret")
	}
}

func TestEditorCommand(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "")
	if got := editorCommand(); got != "vi" {
		t.Errorf("editorCommand() = %q, want vi", got)
	}

	t.Setenv("EDITOR", "nano")
	if got := editorCommand(); got != "nano" {
		t.Errorf("editorCommand() = %q, want nano", got)
	}

	t.Setenv("VISUAL", "code --wait")
	if got := editorCommand(); got != "code --wait" {
		t.Errorf("editorCommand() = %q, want VISUAL to win", got)
	}
}
