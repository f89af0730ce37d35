package si

import (
	"strconv"
	"strings"
)

// Selection keywords. They are matched case-insensitively.
const (
	SelectAll     = "all"
	SelectTeam    = "team"
	SelectManager = "manager"
)

// ResolveSelection maps a free-form selection such as "alice", "1,3",
// "team" or "2, bob" onto teammates in team. team must be in the order it
// was shown to the user, since numbers are 1-based positions in it.
//
// If any comma-separated token is a keyword that selects somebody, the first
// such keyword decides the whole result and the remaining tokens are ignored.
// Otherwise each token, keywords included, is matched with MatchToken.
// Tokens that match nobody are returned verbatim in missing.
func ResolveSelection(expr string, team []*Teammate) (found []*Teammate, missing []string) {
	tokens := strings.Split(expr, ",")
	for _, tok := range tokens {
		if matched, ok := resolveKeyword(strings.TrimSpace(tok), team); ok {
			return matched, nil
		}
	}
	return ResolveTokens(tokens, team)
}

// ResolveTokens matches each token independently with MatchToken. Keywords
// have no special meaning here. Blank tokens are ignored.
func ResolveTokens(tokens []string, team []*Teammate) (found []*Teammate, missing []string) {
	for _, tok := range tokens {
		if strings.TrimSpace(tok) == "" {
			continue
		}
		if t := MatchToken(tok, team); t != nil {
			found = append(found, t)
		} else {
			missing = append(missing, tok)
		}
	}
	return found, missing
}

// MatchToken resolves a single token. A number is a 1-based index into team.
// Anything else is a case-insensitive name query: an exact nickname match
// wins outright, otherwise the last teammate whose name contains the token.
func MatchToken(token string, team []*Teammate) *Teammate {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	if isDigits(token) {
		index, err := strconv.Atoi(token)
		if err != nil || index < 1 || index > len(team) {
			return nil
		}
		return team[index-1]
	}

	for _, t := range team {
		if t.Nickname != "" && strings.EqualFold(t.Nickname, token) {
			return t
		}
	}

	needle := strings.ToLower(token)
	var match *Teammate
	for _, t := range team {
		if strings.Contains(strings.ToLower(t.Name), needle) {
			match = t
		}
	}
	return match
}

// resolveKeyword handles the all/team/manager shortcuts. ok is false when
// token is not a keyword or the keyword selects nobody.
func resolveKeyword(token string, team []*Teammate) ([]*Teammate, bool) {
	switch strings.ToLower(token) {
	case SelectAll:
		return append([]*Teammate(nil), team...), len(team) > 0
	case SelectTeam:
		var reports []*Teammate
		for _, t := range team {
			if t.Relationship == RelationshipReport {
				reports = append(reports, t)
			}
		}
		return reports, len(reports) > 0
	case SelectManager:
		for _, t := range team {
			if t.Relationship == RelationshipManager {
				return []*Teammate{t}, true
			}
		}
		return nil, false
	default:
		return nil, false
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
