package engine

import (
	"fmt"

	"github.com/danieljhkim/patchkit/internal/state"
)

// History returns the patch history of one or all streams, newest first.
// Superseded one-off patches are listed as inactive.
func (e *Engine) History(req *HistoryRequest) (*HistoryResult, error) {
	streams := e.manager.Streams()
	if req.Stream != "" {
		streams = []string{req.Stream}
	}

	result := &HistoryResult{Streams: make([]StreamHistory, 0, len(streams))}
	for _, name := range streams {
		st, err := e.manager.Stream(name)
		if err != nil {
			return nil, err
		}

		history := StreamHistory{
			Stream:  st.Name,
			Version: st.Version,
			Entries: make([]HistoryEntry, 0, len(st.Applied)),
		}
		for i := len(st.Applied) - 1; i >= 0; i-- {
			id := st.Applied[i]
			record, err := e.manager.Record(st.Name, id)
			if err != nil {
				return nil, fmt.Errorf("failed to load history of %s: %w", id, err)
			}
			history.Entries = append(history.Entries, historyEntry(st, record))
		}
		result.Streams = append(result.Streams, history)
	}
	return result, nil
}

func historyEntry(st *state.StreamState, record *state.PatchRecord) HistoryEntry {
	return HistoryEntry{
		PatchID:       record.PatchID,
		Type:          record.Type,
		Description:   record.Description,
		AppliedAt:     record.AppliedAt,
		Active:        st.IsActive(record.PatchID),
		VersionBefore: record.VersionBefore,
		VersionAfter:  record.VersionAfter,
		Invalidated:   record.Invalidated,
	}
}

// Info describes the installation and its streams.
func (e *Engine) Info() (*InfoResult, error) {
	result := &InfoResult{
		Name: e.manager.Name(),
		Home: e.manager.Home(),
	}
	for _, name := range e.manager.Streams() {
		st, err := e.manager.Stream(name)
		if err != nil {
			return nil, err
		}
		result.Streams = append(result.Streams, StreamInfo{
			Name:    st.Name,
			Version: st.Version,
			Patches: st.Patches,
		})
	}
	return result, nil
}
