package domain

// VoteTally counts confirmed or corrected votes per emotion for one normalized text.
// Counts only grow; a text without votes has no tally at all.
type VoteTally map[Emotion]int

// Winner returns the label with the highest count. Ties go to the label with the
// lowest ordinal so the answer never depends on map iteration order.
// ok is false for an empty tally.
func (t VoteTally) Winner() (label Emotion, count int, ok bool) {
	for _, e := range AllEmotions() {
		n := t[e]
		if n <= 0 {
			continue
		}
		if !ok || n > count {
			label, count, ok = e, n, true
		}
	}
	return label, count, ok
}

// Total returns the number of votes across all labels.
func (t VoteTally) Total() int {
	total := 0
	for _, n := range t {
		total += n
	}
	return total
}

// Clone returns an independent copy.
func (t VoteTally) Clone() VoteTally {
	out := make(VoteTally, len(t))
	for e, n := range t {
		out[e] = n
	}
	return out
}
