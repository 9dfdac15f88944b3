package merge

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/haierkeys/wicky/pkg/difftool"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// hunk is one bracketed block of diff3 --show-all output.
// identical marks a block where both sides made the same change; diff3 writes no mine section for it.
type hunk struct {
	mine      []string
	original  []string
	theirs    []string
	identical bool
}

// segment is either common text or a hunk.
type segment struct {
	text string
	hunk *hunk
}

type parseState int

const (
	stateCommon parseState = iota
	stateMine
	stateOriginal
	stateTheirs
)

// parseMerge splits diff3 output into common text and hunks, using the input
// identities on the delimiter lines. ok is false when the output does not have
// the expected shape.
func parseMerge(raw string, ids difftool.Identities) (segments []segment, ok bool) {
	var (
		state  parseState
		common strings.Builder
		cur    *hunk
	)
	flush := func() {
		if common.Len() > 0 {
			segments = append(segments, segment{text: common.String()})
			common.Reset()
		}
	}

	for _, line := range splitLines(raw) {
		delim, r, isDelim := structuralDelimiter(line, ids)

		switch state {
		case stateCommon:
			if isDelim && delim == '<' && r == roleMine {
				flush()
				cur, state = &hunk{}, stateMine
				continue
			}
			if isDelim && delim == '<' && r == roleOriginal {
				flush()
				cur, state = &hunk{identical: true}, stateOriginal
				continue
			}
			common.WriteString(line)
		case stateMine:
			if isDelim && delim == '|' && r == roleOriginal {
				state = stateOriginal
				continue
			}
			cur.mine = append(cur.mine, line)
		case stateOriginal:
			if strings.TrimRight(line, "\r\n") == MarkerSeparator {
				state = stateTheirs
				continue
			}
			cur.original = append(cur.original, line)
		case stateTheirs:
			if isDelim && delim == '>' && r == roleOthers {
				if cur.identical {
					cur.mine = cur.theirs
				}
				segments = append(segments, segment{hunk: cur})
				cur, state = nil, stateCommon
				continue
			}
			cur.theirs = append(cur.theirs, line)
		}
	}
	if state != stateCommon {
		return nil, false
	}
	flush()
	return segments, true
}

// structuralDelimiter recognizes delimiter lines naming one of the inputs.
func structuralDelimiter(line string, ids difftool.Identities) (delim byte, r role, ok bool) {
	body := strings.TrimRight(line, "\r\n")
	m := delimiterLine.FindStringSubmatch(body)
	if m == nil {
		return 0, roleNone, false
	}
	token := strings.TrimSpace(m[2])
	if token == "" {
		return 0, roleNone, false
	}
	delim = m[1][0]

	r, exact := resolveIdentity(token, ids)
	if r != roleNone && !exact {
		return 0, roleNone, false
	}
	if r == roleNone {
		if !inWorkspace(token, ids) {
			return 0, roleNone, false
		}
		r = delimiterRoles[delim]
	}
	return delim, r, true
}

// resolve settles a hunk without the caller's help when both sides agree, or
// when their changes touch different lines of the original.
func (h *hunk) resolve() ([]string, bool) {
	if h.identical || equalLines(h.mine, h.theirs) {
		return h.theirs, true
	}
	return mergeLines(h.original, h.mine, h.theirs)
}

// conflictText renders an unresolved hunk with the canonical markers.
func (h *hunk) conflictText() string {
	var b strings.Builder
	section := func(marker string, lines []string) {
		b.WriteString(marker)
		b.WriteByte('\n')
		for _, l := range lines {
			b.WriteString(l)
		}
		// a final line without newline must not swallow the next marker
		if n := len(lines); n > 0 && !strings.HasSuffix(lines[n-1], "\n") {
			b.WriteByte('\n')
		}
	}
	section(MarkerMine, h.mine)
	section(MarkerOriginal, h.original)
	section(MarkerSeparator, h.theirs)
	b.WriteString(MarkerOthers)
	b.WriteByte('\n')
	return b.String()
}

// resolveMerge rebuilds the merged text from diff3 output. conflicted is true
// when a hunk still needs the caller; its text then carries canonical markers.
func resolveMerge(raw string, ids difftool.Identities) (text string, conflicted bool, ok bool) {
	segments, ok := parseMerge(raw, ids)
	if !ok {
		return "", false, false
	}

	var b strings.Builder
	for _, seg := range segments {
		if seg.hunk == nil {
			b.WriteString(seg.text)
			continue
		}
		if lines, merged := seg.hunk.resolve(); merged {
			for _, l := range lines {
				b.WriteString(l)
			}
			continue
		}
		conflicted = true
		b.WriteString(seg.hunk.conflictText())
	}
	return b.String(), conflicted, true
}

// edit replaces original lines [start, end) with lines.
type edit struct {
	start, end int
	lines      []string
}

func (e edit) insertion() bool { return e.start == e.end }

func (e edit) equal(o edit) bool {
	return e.start == o.start && e.end == o.end && equalLines(e.lines, o.lines)
}

// lineEdits lists the changes turning base into other, line by line.
func lineEdits(base, other []string) []edit {
	dmp := diffmatchpatch.New()
	r1, r2, _ := dmp.DiffLinesToRunes(strings.Join(base, ""), strings.Join(other, ""))
	diffs := dmp.DiffMainRunes(r1, r2, false)

	var (
		edits   []edit
		pending *edit
		pos     int
		opos    int
	)
	flush := func() {
		if pending != nil {
			pending.end = pos
			edits = append(edits, *pending)
			pending = nil
		}
	}
	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			pos += n
			opos += n
		case diffmatchpatch.DiffDelete:
			if pending == nil {
				pending = &edit{start: pos}
			}
			pos += n
		case diffmatchpatch.DiffInsert:
			if pending == nil {
				pending = &edit{start: pos}
			}
			pending.lines = append(pending.lines, other[opos:opos+n]...)
			opos += n
		}
	}
	flush()
	return edits
}

// mergeLines applies the edits of both sides to base. Edits on neighbouring
// lines merge; edits sharing an original line, or two different insertions at
// the same place, do not.
func mergeLines(base, mine, theirs []string) ([]string, bool) {
	edits := append(lineEdits(base, mine), lineEdits(base, theirs)...)
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].start != edits[j].start {
			return edits[i].start < edits[j].start
		}
		return edits[i].insertion() && !edits[j].insertion()
	})

	var out []string
	pos := 0
	for i, e := range edits {
		if i > 0 {
			prev := edits[i-1]
			if e.equal(prev) {
				continue
			}
			if e.start < pos || (e.insertion() && prev.insertion() && e.start == prev.start) {
				return nil, false
			}
		}
		out = append(out, base[pos:e.start]...)
		out = append(out, e.lines...)
		pos = e.end
	}
	out = append(out, base[pos:]...)
	return out, true
}

func splitLines(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
