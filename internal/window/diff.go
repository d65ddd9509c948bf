package window

// Change describes how a new snapshot relates to the previous one.
type Change struct {
	// ListChanged is set when membership or order differs. The new snapshot
	// itself carries any content changes in that case, so Updated is empty.
	ListChanged bool
	// Updated holds records whose content changed while membership and
	// order stayed the same.
	Updated []Info
}

// Empty reports whether there is nothing to notify.
func (c Change) Empty() bool {
	return !c.ListChanged && len(c.Updated) == 0
}

// Diff compares two ordered snapshots. Windows are matched by ID.
func Diff(prev, curr []Info) Change {
	if len(prev) != len(curr) {
		return Change{ListChanged: true}
	}
	for i := range curr {
		if prev[i].ID != curr[i].ID {
			return Change{ListChanged: true}
		}
	}

	var change Change
	for i := range curr {
		if prev[i] != curr[i] {
			change.Updated = append(change.Updated, curr[i])
		}
	}
	return change
}
