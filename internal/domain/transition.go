package domain

// transitions is a closed state machine: every allowed move is listed, every
// other move is rejected.
type transitions[S ~string] map[S][]S

func (t transitions[S]) allows(from, to S) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (t transitions[S]) check(entity, id string, from, to S) error {
	if !t.allows(from, to) {
		return InvalidState(entity, id, "cannot move from "+string(from)+" to "+string(to))
	}
	return nil
}
