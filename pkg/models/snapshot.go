package models

import (
	"sort"
	"strings"
)

// Snapshot is an immutable capture of a Document at commit time, paired with
// the human-readable change summary computed against the previous snapshot.
// Snapshots for one artifact key form a strictly increasing sequence by
// revision number.
type Snapshot struct {
	Document *Document `json:"document"`
	Summary  []string  `json:"summary"`
}

// Revision returns the revision number stamped on the captured document.
func (s *Snapshot) Revision() int {
	if s == nil || s.Document == nil {
		return 0
	}

	return s.Document.Version.Revision
}

// ManualArtifactKey is the history identity used for documents that were not
// seeded from any source article.
const ManualArtifactKey = "manual"

// ArtifactKey derives the deterministic history identity for a document from
// the set of source-article ids that seeded it. The ids are de-duplicated and
// sorted, so the same logical set always resolves to the same key regardless
// of selection order. Changing the set starts a disjoint history.
func ArtifactKey(sourceIDs []string) string {
	seen := make(map[string]struct{}, len(sourceIDs))
	unique := make([]string, 0, len(sourceIDs))

	for _, id := range sourceIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}

		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}

		unique = append(unique, id)
	}

	if len(unique) == 0 {
		return ManualArtifactKey
	}

	sort.Strings(unique)

	return strings.Join(unique, "|")
}
