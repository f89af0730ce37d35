package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"si-go/internal/si"
)

// printTeam lists the roster with 1-based numbers, the numbers accepted by
// the selection prompt. The manager, when present, always comes first.
func printTeam(w io.Writer, team []*si.Teammate) error {
	if len(team) == 0 {
		return errors.New("could not load team, run setup")
	}

	r := lipgloss.NewRenderer(w)
	header := r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	nickname := r.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))

	managerFirst := team[0].Relationship == si.RelationshipManager
	for i, t := range team {
		if i == 0 {
			if managerFirst {
				fmt.Fprintln(w, header.Render("=== Manager ==="))
			} else {
				fmt.Fprintln(w, header.Render("=== Team ==="))
			}
		}

		line := fmt.Sprintf("%d. %s", i+1, t.Name)
		if t.Nickname != "" {
			line += " " + nickname.Render("("+t.Nickname+")")
		}
		fmt.Fprintln(w, line)

		if i == 0 && managerFirst && len(team) > 1 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, header.Render("=== Team ==="))
		}
	}
	return nil
}

// promptTeammates shows the roster and resolves the answer. A roster of one
// is selected without asking.
func promptTeammates(p *prompter, message string, team []*si.Teammate) ([]*si.Teammate, []string, error) {
	if len(team) == 1 {
		return []*si.Teammate{team[0]}, nil, nil
	}

	fmt.Fprintln(p.out, message)
	if err := printTeam(p.out, team); err != nil {
		return nil, nil, err
	}

	selection, err := p.ask("Selection (ex. `alice`, `1,2,5`, `team`, `1,2,alice`)", "")
	if err != nil {
		return nil, nil, err
	}

	found, missing := si.ResolveSelection(selection, team)
	return found, missing, nil
}

// selectTeammates resolves --teammate values, or prompts when there are none.
// Unmatched input is an error.
func selectTeammates(p *prompter, desired []string, team []*si.Teammate, message string) ([]*si.Teammate, error) {
	var found []*si.Teammate
	var missing []string

	if len(desired) > 0 {
		found, missing = si.ResolveTokens(desired, team)
	} else {
		var err error
		found, missing, err = promptTeammates(p, message, team)
		if err != nil {
			return nil, err
		}
	}

	if err := checkSelection(found, missing); err != nil {
		return nil, err
	}
	return found, nil
}

func checkSelection(found []*si.Teammate, missing []string) error {
	if len(missing) > 0 {
		return fmt.Errorf("%q did not match anybody on your team", strings.Join(missing, ", "))
	}
	if len(found) == 0 {
		return errors.New("nobody was selected")
	}
	return nil
}

// confirmTeammates asks before acting on the selected teammates.
func confirmTeammates(p *prompter, prefix string, teammates []*si.Teammate) error {
	names := make([]string, 0, len(teammates))
	for _, t := range teammates {
		names = append(names, t.DisplayName())
	}
	return p.mustConfirm(prefix+" "+strings.Join(names, ", "), true)
}

// chooseTeammates selects teammates and asks before acting on them. The
// confirmation is asked whether the selection came from flags or the prompt.
func chooseTeammates(p *prompter, desired []string, team []*si.Teammate, message, confirmPrefix string) ([]*si.Teammate, error) {
	teammates, err := selectTeammates(p, desired, team, message)
	if err != nil {
		return nil, err
	}
	if err := confirmTeammates(p, confirmPrefix, teammates); err != nil {
		return nil, err
	}
	return teammates, nil
}
