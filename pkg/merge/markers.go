package merge

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/haierkeys/wicky/pkg/difftool"
)

// Canonical conflict markers written into every conflict blob.
const (
	MarkerMine      = "<<<<<<< mine"
	MarkerOriginal  = "||||||| original"
	MarkerSeparator = "======="
	MarkerOthers    = ">>>>>>> others"
)

type role int

const (
	roleNone role = iota
	roleMine
	roleOriginal
	roleOthers
)

var roleMarkers = map[role]string{
	roleMine:     MarkerMine,
	roleOriginal: MarkerOriginal,
	roleOthers:   MarkerOthers,
}

var delimiterRoles = map[byte]role{
	'<': roleMine,
	'|': roleOriginal,
	'>': roleOthers,
}

var delimiterLine = regexp.MustCompile(`^(<{5,}|\|{5,}|={5,}|>{5,})[ \t]*(.*)$`)

// RewriteMarkers replaces the tool's delimiter lines, which name the temporary
// inputs, with the canonical markers. Lines naming anything else are kept.
// Bare file names are only taken as delimiters when the tool printed no full
// path, and only where diff3 places its delimiters.
func RewriteMarkers(raw string, ids difftool.Identities) string {
	lines := strings.SplitAfter(raw, "\n")
	bareNames := !namesInputs(lines, ids)

	state := stateCommon
	for i, line := range lines {
		body := strings.TrimSuffix(line, "\n")
		eol := line[len(body):]
		body, cr := strings.CutSuffix(body, "\r")

		m := delimiterLine.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		delim, token := m[1][0], strings.TrimSpace(m[2])
		// bare runs are the tool's own separator or user text
		if token == "" || delim == '=' {
			continue
		}

		r, exact := resolveIdentity(token, ids)
		if !exact {
			if !expected(state, delim) {
				continue
			}
			switch {
			case r == roleNone && !inWorkspace(token, ids):
				continue
			case r != roleNone && (!bareNames || delimiterRoles[delim] != r):
				continue
			}
			r = delimiterRoles[delim]
		}

		marker := roleMarkers[r]
		if cr {
			marker += "\r"
		}
		lines[i] = marker + eol
		state = after(delim)
	}
	return strings.Join(lines, "")
}

// namesInputs reports whether any delimiter line carries a full input path.
func namesInputs(lines []string, ids difftool.Identities) bool {
	for _, line := range lines {
		m := delimiterLine.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
		if m == nil {
			continue
		}
		if token := strings.TrimSpace(m[2]); token != "" {
			if r, exact := resolveIdentity(token, ids); r != roleNone && exact {
				return true
			}
		}
	}
	return false
}

// expected reports whether diff3 could write delim in state.
func expected(state parseState, delim byte) bool {
	switch state {
	case stateCommon:
		return delim == '<'
	case stateMine:
		return delim == '|' || delim == '>'
	case stateOriginal:
		return delim == '>'
	}
	return false
}

func after(delim byte) parseState {
	switch delim {
	case '<':
		return stateMine
	case '|':
		return stateOriginal
	}
	return stateCommon
}

// tokenForms yields the raw token plus its unquoted and unescaped spellings.
func tokenForms(token string) []string {
	forms := []string{token}
	if len(token) >= 2 && (token[0] == '"' || token[0] == '\'') {
		if s, err := strconv.Unquote(token); err == nil {
			forms = append(forms, s)
		} else {
			forms = append(forms, strings.Trim(token, `"'`))
		}
	}
	for _, f := range forms {
		if strings.Contains(f, `\`) {
			forms = append(forms, unescape(f))
			break
		}
	}
	return forms
}

func unescape(s string) string {
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

// resolveIdentity maps token to an input. exact is false when only a bare file name matched.
func resolveIdentity(token string, ids difftool.Identities) (r role, exact bool) {
	candidates := []struct {
		r    role
		path string
	}{
		{roleMine, ids.Mine},
		{roleOriginal, ids.Original},
		{roleOthers, ids.Theirs},
	}

	for _, form := range tokenForms(token) {
		for _, c := range candidates {
			if form == c.path {
				return c.r, true
			}
		}

		// truncated
		if filepath.IsAbs(form) {
			if r := unique(candidates, func(path string) bool {
				return strings.HasPrefix(path, form)
			}); r != roleNone {
				return r, true
			}
		}

		// relative or base name
		if r := unique(candidates, func(path string) bool {
			return form == filepath.Base(path) || strings.HasSuffix(path, "/"+form)
		}); r != roleNone {
			return r, strings.Contains(form, "/")
		}
	}
	return roleNone, false
}

func unique(candidates []struct {
	r    role
	path string
}, match func(path string) bool) role {
	found := roleNone
	for _, c := range candidates {
		if c.path == "" || !match(c.path) {
			continue
		}
		if found != roleNone {
			return roleNone
		}
		found = c.r
	}
	return found
}

// inWorkspace reports whether token points into the directory holding the inputs,
// possibly truncated before reaching a file name.
func inWorkspace(token string, ids difftool.Identities) bool {
	if ids.Mine == "" {
		return false
	}
	dir := filepath.Dir(ids.Mine)
	for _, form := range tokenForms(token) {
		if strings.HasPrefix(form, dir) {
			return true
		}
		if len(form) > len(filepath.Dir(dir))+1 && strings.HasPrefix(dir, form) {
			return true
		}
	}
	return false
}
