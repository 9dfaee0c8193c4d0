// Package diff computes human-readable change summaries between two schema
// document revisions. Keyed collections (variables, outcomes) are compared by
// stable id, never by position, so reordering is not misreported as
// remove-plus-add.
package diff

import (
	"fmt"
	"strings"

	"github.com/nstri/studyflow/pkg/models"
)

// InitialSummary is the summary of the very first revision.
const InitialSummary = "Initial draft."

// NoChangesSummary is the fallback when two revisions are structurally equal.
// Callers rely on every snapshot carrying at least one summary entry.
const NoChangesSummary = "No structural changes detected."

// Summarize describes the changes from prev to next. A nil prev means next is
// the first revision. The result is de-duplicated and never empty.
func Summarize(prev, next *models.Document) []string {
	if prev == nil {
		return []string{InitialSummary}
	}

	changes := make([]string, 0)

	changes = append(changes, scalarChanges(prev, next)...)
	changes = append(changes, metadataChanges(prev, next)...)
	changes = append(changes, criteriaChanges(prev.InclusionCriteria, next.InclusionCriteria, "inclusion")...)
	changes = append(changes, criteriaChanges(prev.ExclusionCriteria, next.ExclusionCriteria, "exclusion")...)
	changes = append(changes, variableChanges(prev.Variables, next.Variables)...)
	changes = append(changes, outcomeChanges(prev.Outcomes, next.Outcomes)...)

	changes = dedupe(changes)

	if len(changes) == 0 {
		return []string{NoChangesSummary}
	}

	return changes
}

func scalarChanges(prev, next *models.Document) []string {
	changes := make([]string, 0)

	if trimmed(prev.Title) != trimmed(next.Title) {
		changes = append(changes, "Title updated.")
	}

	if trimmed(prev.Objective) != trimmed(next.Objective) {
		changes = append(changes, "Objective updated.")
	}

	if trimmed(prev.Population) != trimmed(next.Population) {
		changes = append(changes, "Population updated.")
	}

	if trimmed(prev.Notes) != trimmed(next.Notes) {
		changes = append(changes, "Notes updated.")
	}

	return changes
}

func metadataChanges(prev, next *models.Document) []string {
	changes := make([]string, 0)

	if trimmed(prev.Metadata.Journal) != trimmed(next.Metadata.Journal) {
		changes = append(changes, "Source journal updated.")
	}

	if !yearEqual(prev.Metadata.Year, next.Metadata.Year) {
		changes = append(changes, "Publication year updated.")
	}

	if trimmed(prev.Metadata.Source) != trimmed(next.Metadata.Source) {
		changes = append(changes, "Source reference updated.")
	}

	if trimmed(prev.Metadata.PopulationSynopsis) != trimmed(next.Metadata.PopulationSynopsis) {
		changes = append(changes, "Population synopsis updated.")
	}

	return changes
}

func criteriaChanges(prev, next []string, kind string) []string {
	prevSet := normalizedSet(prev)
	nextSet := normalizedSet(next)

	added := 0

	for criterion := range nextSet {
		if _, ok := prevSet[criterion]; !ok {
			added++
		}
	}

	removed := 0

	for criterion := range prevSet {
		if _, ok := nextSet[criterion]; !ok {
			removed++
		}
	}

	changes := make([]string, 0, 2)

	if added > 0 {
		changes = append(changes, fmt.Sprintf("Added %d %s item(s).", added, kind))
	}

	if removed > 0 {
		changes = append(changes, fmt.Sprintf("Removed %d %s item(s).", removed, kind))
	}

	return changes
}

func variableChanges(prev, next []models.Variable) []string {
	prevByID := make(map[string]models.Variable, len(prev))
	for _, variable := range prev {
		prevByID[variable.ID] = variable
	}

	nextByID := make(map[string]models.Variable, len(next))
	for _, variable := range next {
		nextByID[variable.ID] = variable
	}

	changes := make([]string, 0)

	added := 0

	for id := range nextByID {
		if _, ok := prevByID[id]; !ok {
			added++
		}
	}

	removed := 0

	for id := range prevByID {
		if _, ok := nextByID[id]; !ok {
			removed++
		}
	}

	if added > 0 {
		changes = append(changes, fmt.Sprintf("Added %d variable(s).", added))
	}

	if removed > 0 {
		changes = append(changes, fmt.Sprintf("Removed %d variable(s).", removed))
	}

	// Walk next in order so the per-variable sentences are stable.
	for _, variable := range next {
		before, ok := prevByID[variable.ID]
		if !ok {
			continue
		}

		if before.Name != variable.Name {
			changes = append(changes, fmt.Sprintf("Variable %q renamed to %q.", before.Name, variable.Name))
		}

		if before.Type != variable.Type {
			changes = append(changes, fmt.Sprintf("Variable %q type changed to %s.", variable.Name, variable.Type))
		}

		if before.Required != variable.Required {
			if variable.Required {
				changes = append(changes, fmt.Sprintf("Variable %q is now required.", variable.Name))
			} else {
				changes = append(changes, fmt.Sprintf("Variable %q is no longer required.", variable.Name))
			}
		}
	}

	return changes
}

func outcomeChanges(prev, next []models.Outcome) []string {
	prevIDs := make(map[string]struct{}, len(prev))
	for _, outcome := range prev {
		prevIDs[outcome.ID] = struct{}{}
	}

	nextIDs := make(map[string]struct{}, len(next))
	for _, outcome := range next {
		nextIDs[outcome.ID] = struct{}{}
	}

	added := 0

	for id := range nextIDs {
		if _, ok := prevIDs[id]; !ok {
			added++
		}
	}

	removed := 0

	for id := range prevIDs {
		if _, ok := nextIDs[id]; !ok {
			removed++
		}
	}

	changes := make([]string, 0, 2)

	if added > 0 {
		changes = append(changes, fmt.Sprintf("Added %d outcome(s).", added))
	}

	if removed > 0 {
		changes = append(changes, fmt.Sprintf("Removed %d outcome(s).", removed))
	}

	return changes
}

func normalizedSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))

	for _, item := range items {
		normalized := strings.ToLower(strings.Join(strings.Fields(item), " "))
		if normalized == "" {
			continue
		}

		set[normalized] = struct{}{}
	}

	return set
}

func dedupe(changes []string) []string {
	seen := make(map[string]struct{}, len(changes))
	out := make([]string, 0, len(changes))

	for _, change := range changes {
		if _, ok := seen[change]; ok {
			continue
		}

		seen[change] = struct{}{}

		out = append(out, change)
	}

	return out
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

func yearEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}
