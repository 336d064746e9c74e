package bracket

import "github.com/google/uuid"

// Side is one competing unit in a match: a single player for 1v1 formats,
// or an ordered team of K players for KvK formats. Sides are never
// persisted; they are re-derived from a match's participant list.
type Side []uuid.UUID

// Representative is the id stored in winner columns when a whole side
// cannot be: always the first member.
func (s Side) Representative() uuid.UUID {
	return s[0]
}

func (s Side) Contains(id uuid.UUID) bool {
	for _, member := range s {
		if member == id {
			return true
		}
	}
	return false
}

// GroupSides partitions ids into consecutive sides of teamSize members,
// preserving order. The caller must ensure len(ids) is a multiple of
// teamSize; draft validation enforces this before shuffling.
func GroupSides(ids []uuid.UUID, teamSize int) []Side {
	sides := make([]Side, 0, len(ids)/teamSize)
	for i := 0; i+teamSize <= len(ids); i += teamSize {
		sides = append(sides, Side(ids[i:i+teamSize]))
	}
	return sides
}
