package merge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// PatchStat summarizes a stored unified diff.
type PatchStat struct {
	Hunks   int `json:"hunks"`
	Added   int `json:"added"`
	Deleted int `json:"deleted"`
}

// Stat parses patch and counts its hunks and changed lines. An empty patch has a zero stat.
func Stat(patch string) (PatchStat, error) {
	var st PatchStat
	if strings.TrimSpace(patch) == "" {
		return st, nil
	}

	fd, err := diff.ParseFileDiff([]byte(patch))
	if err != nil {
		return st, err
	}

	st.Hunks = len(fd.Hunks)
	for _, hunk := range fd.Hunks {
		for _, line := range strings.Split(string(hunk.Body), "\n") {
			switch {
			case strings.HasPrefix(line, "+"):
				st.Added++
			case strings.HasPrefix(line, "-"):
				st.Deleted++
			}
		}
	}
	return st, nil
}

// ErrInvalidPatch marks patch text that is not a single-file unified diff.
var ErrInvalidPatch = errors.New("invalid patch")

// Validate reports whether patch parses as a single-file unified diff.
func Validate(patch string) error {
	if _, err := Stat(patch); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPatch, err)
	}
	return nil
}
