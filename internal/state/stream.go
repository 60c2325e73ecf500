package state

// IsActive reports whether patchID is an active patch of the stream.
func (st *StreamState) IsActive(patchID string) bool {
	return indexOf(st.Patches, patchID) >= 0
}

// IsApplied reports whether patchID has history in the stream.
func (st *StreamState) IsApplied(patchID string) bool {
	return indexOf(st.Applied, patchID) >= 0
}

// Latest returns the most recently applied active patch, or "".
func (st *StreamState) Latest() string {
	if len(st.Patches) == 0 {
		return ""
	}
	return st.Patches[len(st.Patches)-1]
}

// AddPatch activates patchID and appends it to the application log.
func (st *StreamState) AddPatch(patchID string) {
	st.RemovePatch(patchID)
	st.Patches = append(st.Patches, patchID)
	st.Applied = append(st.Applied, patchID)
}

// RemovePatch removes patchID from the active patches and the application log.
func (st *StreamState) RemovePatch(patchID string) {
	st.Deactivate(patchID)
	if i := indexOf(st.Applied, patchID); i >= 0 {
		st.Applied = append(st.Applied[:i], st.Applied[i+1:]...)
	}
}

// Deactivate removes patchID from the active patches but keeps its history.
func (st *StreamState) Deactivate(patchID string) {
	if i := indexOf(st.Patches, patchID); i >= 0 {
		st.Patches = append(st.Patches[:i], st.Patches[i+1:]...)
	}
}

// Reactivate makes previously deactivated patches active again, restoring
// their application order.
func (st *StreamState) Reactivate(patchIDs ...string) {
	for _, id := range patchIDs {
		if st.IsApplied(id) && !st.IsActive(id) {
			st.Patches = append(st.Patches, id)
		}
	}
	ordered := make([]string, 0, len(st.Patches))
	for _, id := range st.Applied {
		if st.IsActive(id) {
			ordered = append(ordered, id)
		}
	}
	st.Patches = ordered
}

// AppliedAfter reports whether a was applied after b.
func (st *StreamState) AppliedAfter(a, b string) bool {
	return indexOf(st.Applied, a) > indexOf(st.Applied, b)
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
