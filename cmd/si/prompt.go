package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

var errAborted = errors.New("aborted")

// prompter asks questions on a line-oriented terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// ask prints label and reads one line. An empty answer yields def; without
// a default the question is repeated until something is entered.
func (p *prompter) ask(label, def string) (string, error) {
	for {
		if def != "" {
			fmt.Fprintf(p.out, "%s [%s]: ", label, def)
		} else {
			fmt.Fprintf(p.out, "%s: ", label)
		}

		line, err := p.in.ReadString('\n')
		answer := strings.TrimSpace(line)
		if err != nil && (err != io.EOF || answer == "") {
			if err == io.EOF {
				return "", errAborted
			}
			return "", fmt.Errorf("reading answer: %w", err)
		}

		if answer != "" {
			return answer, nil
		}
		if def != "" {
			return def, nil
		}
	}
}

// confirm asks a yes/no question. Anything but yes or no repeats the question.
func (p *prompter) confirm(label string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}

	for {
		fmt.Fprintf(p.out, "%s [%s]: ", label, hint)

		line, err := p.in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		if err != nil && (err != io.EOF || answer == "") {
			if err == io.EOF {
				return false, errAborted
			}
			return false, fmt.Errorf("reading answer: %w", err)
		}

		switch answer {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

// mustConfirm is confirm where "no" aborts the command.
func (p *prompter) mustConfirm(label string, def bool) error {
	ok, err := p.confirm(label, def)
	if err != nil {
		return err
	}
	if !ok {
		return errAborted
	}
	return nil
}

// readToken returns the API token from envName, or asks for it without echo
// when stdin is a terminal.
func readToken(envName string) (string, error) {
	if token := os.Getenv(envName); token != "" {
		return token, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no API token: run `export %s=<your_token>`", envName)
	}

	fmt.Fprintf(os.Stderr, "%s is not set. API token: ", envName)
	token, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}

	if t := strings.TrimSpace(string(token)); t != "" {
		return t, nil
	}
	return "", fmt.Errorf("no API token: run `export %s=<your_token>`", envName)
}

// editorCommand returns the user's editor, preferring $VISUAL over $EDITOR.
func editorCommand() string {
	if v := os.Getenv("VISUAL"); v != "" {
		return v
	}
	if e := os.Getenv("EDITOR"); e != "" {
		return e
	}
	return "vi"
}

// editText opens the user's editor on an empty file and returns what was
// written, without trailing whitespace.
func editText() (string, error) {
	f, err := os.CreateTemp("", "si-note-*.txt")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	parts := strings.Fields(editorCommand())
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running editor: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading edited text: %w", err)
	}
	return strings.TrimRight(string(data), " \t\r\n"), nil
}
