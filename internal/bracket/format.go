package bracket

import (
	"fmt"
	"regexp"
	"strconv"
)

// MatchFormat encodes the team size of a match, e.g. "1v1" or "2v2".
type MatchFormat string

const (
	Format1v1 MatchFormat = "1v1"
	Format2v2 MatchFormat = "2v2"
	Format4v4 MatchFormat = "4v4"
	Format8v8 MatchFormat = "8v8"
)

var formatPattern = regexp.MustCompile(`^(\d+)v(\d+)$`)

// TeamSize parses the K out of a "KvK" format string.
func (f MatchFormat) TeamSize() (int, error) {
	m := formatPattern.FindStringSubmatch(string(f))
	if m == nil || m[1] != m[2] {
		return 0, fmt.Errorf("unsupported match format %q", f)
	}
	size, err := strconv.Atoi(m[1])
	if err != nil || size < 1 {
		return 0, fmt.Errorf("unsupported match format %q", f)
	}
	return size, nil
}

// MinPlayers is the smallest registration pool that can hold a match:
// two full sides.
func (f MatchFormat) MinPlayers() (int, error) {
	size, err := f.TeamSize()
	if err != nil {
		return 0, err
	}
	return size * 2, nil
}
