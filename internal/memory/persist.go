package memory

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/danielpatrickdp/creativity-controller/internal/state"
)

// #region persist
// Persist writes the memory document to disk atomically (temp file +
// rename). Persisting immediately after Load with no intervening Ingest
// leaves the stored representation unchanged.
func (m *Manager) Persist() error {
	if m.path == "" {
		return nil
	}

	doc := document{ExploredIdeas: m.accepted, RejectedIdeas: m.rejected}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return state.Errorf(state.KindStorage, "marshal memory: %w", err)
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return state.Errorf(state.KindStorage, "write memory: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return state.Errorf(state.KindStorage, "rename memory: %w", err)
	}

	log.Printf("[MEM] persisted %d explored, %d rejected", len(m.accepted), len(m.rejected))
	return nil
}
// #endregion persist

// #region load
// Load replaces the in-process memory with the stored document. A
// missing file leaves the memory empty without error.
func (m *Manager) Load() error {
	if m.path == "" {
		return nil
	}

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return state.Errorf(state.KindStorage, "read memory: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return state.Errorf(state.KindStorage, "unmarshal memory: %w", err)
	}

	m.accepted = doc.ExploredIdeas
	m.rejected = doc.RejectedIdeas
	m.seen = make(map[string]bool, len(m.accepted)+len(m.rejected))
	for _, r := range m.accepted {
		m.seen[normalizeConcept(r.Concept)] = true
	}
	for _, r := range m.rejected {
		m.seen[normalizeConcept(r.Concept)] = true
	}

	log.Printf("[MEM] loaded %d explored, %d rejected from %s",
		len(m.accepted), len(m.rejected), filepath.Base(m.path))
	return nil
}
// #endregion load
