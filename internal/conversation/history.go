package conversation

import "time"

// History is the append-only turn sequence for one session. It is the
// sole source of truth for context-window construction; turns are never
// edited, deleted, or reordered.
type History struct {
	turns  []Turn
	nextID int64
}

func NewHistory() *History {
	return &History{nextID: 1}
}

// Append adds a turn to the end of the sequence and returns it with its
// assigned ID. IDs are monotonically increasing within a session.
func (h *History) Append(role Role, text string, img *Image) Turn {
	t := Turn{
		ID:        h.nextID,
		Role:      role,
		Text:      text,
		Image:     img,
		CreatedAt: time.Now(),
	}
	h.nextID++
	h.turns = append(h.turns, t)
	return t
}

func (h *History) Len() int {
	return len(h.turns)
}

// LastBotTurnWithImage returns the most recent bot turn that carries an
// image, or false if no such turn exists.
func (h *History) LastBotTurnWithImage() (Turn, bool) {
	for i := len(h.turns) - 1; i >= 0; i-- {
		if h.turns[i].Role == RoleBot && h.turns[i].HasImage() {
			return h.turns[i], true
		}
	}
	return Turn{}, false
}

// RecentWindow returns the last n turns in original order, or fewer if
// the sequence is shorter.
func (h *History) RecentWindow(n int) []Turn {
	if n <= 0 {
		return nil
	}
	start := len(h.turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(h.turns)-start)
	copy(out, h.turns[start:])
	return out
}

// Turns returns a copy of the full sequence, oldest first.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}
