// Package validation checks schema documents against the study design rules
// and reports per-field issues. The engine is pure: same document in, same
// issues out, no side effects.
package validation

import (
	"fmt"
	"strings"

	"github.com/nstri/studyflow/pkg/models"
)

// Validate runs every rule against the document. Rules are independent; the
// returned order carries no meaning, callers must aggregate by severity or
// path.
func Validate(doc *models.Document) []models.ValidationIssue {
	if doc == nil {
		return []models.ValidationIssue{{
			ID:       "document-missing",
			Path:     "",
			Message:  "Document is missing.",
			Severity: models.SeverityError,
		}}
	}

	issues := make([]models.ValidationIssue, 0)

	issues = append(issues, requiredFields(doc)...)
	issues = append(issues, metadataRules(doc)...)
	issues = append(issues, criteriaRules(doc)...)
	issues = append(issues, variableRules(doc)...)

	return issues
}

// HasErrors reports whether any issue is error severity.
func HasErrors(issues []models.ValidationIssue) bool {
	for _, issue := range issues {
		if issue.Severity == models.SeverityError {
			return true
		}
	}

	return false
}

// CountWarnings returns the number of warning-severity issues.
func CountWarnings(issues []models.ValidationIssue) int {
	count := 0

	for _, issue := range issues {
		if issue.Severity == models.SeverityWarning {
			count++
		}
	}

	return count
}

func requiredFields(doc *models.Document) []models.ValidationIssue {
	issues := make([]models.ValidationIssue, 0)

	if strings.TrimSpace(doc.Title) == "" {
		issues = append(issues, errorIssue("title-required", "title", "Title must not be empty."))
	}

	if strings.TrimSpace(doc.Objective) == "" {
		issues = append(issues, errorIssue("objective-required", "objective", "Objective must not be empty."))
	}

	if strings.TrimSpace(doc.Population) == "" {
		issues = append(issues, errorIssue("population-required", "population", "Population must not be empty."))
	}

	return issues
}

func metadataRules(doc *models.Document) []models.ValidationIssue {
	issues := make([]models.ValidationIssue, 0)

	if strings.TrimSpace(doc.Metadata.Journal) == "" {
		issues = append(issues, errorIssue("metadata-journal-required", "metadata.journal", "Source journal must not be empty."))
	}

	if strings.TrimSpace(doc.Metadata.Source) == "" {
		issues = append(issues, errorIssue("metadata-source-required", "metadata.source", "Source reference must not be empty."))
	}

	if doc.Metadata.Year == nil {
		issues = append(issues, warningIssue("metadata-year-missing", "metadata.year", "Publication year is not set."))
	}

	return issues
}

func criteriaRules(doc *models.Document) []models.ValidationIssue {
	issues := make([]models.ValidationIssue, 0)

	if len(doc.InclusionCriteria) == 0 {
		issues = append(issues, errorIssue("inclusion-required", "inclusionCriteria", "At least one inclusion criterion is required."))
	}

	if len(doc.ExclusionCriteria) == 0 {
		issues = append(issues, warningIssue("exclusion-empty", "exclusionCriteria", "No exclusion criteria defined. Confirm that none apply."))
	}

	// A criterion cannot simultaneously include and exclude.
	exclusionIndex := make(map[string]int, len(doc.ExclusionCriteria))
	for j, criterion := range doc.ExclusionCriteria {
		exclusionIndex[normalize(criterion)] = j
	}

	for i, criterion := range doc.InclusionCriteria {
		j, ok := exclusionIndex[normalize(criterion)]
		if !ok {
			continue
		}

		issues = append(issues, models.ValidationIssue{
			ID:       "criteria-overlap",
			Path:     fmt.Sprintf("inclusionCriteria[%d]", i),
			Message:  fmt.Sprintf("Criterion %q appears in both inclusion (index %d) and exclusion (index %d) lists.", criterion, i, j),
			Severity: models.SeverityError,
		})
	}

	return issues
}

func variableRules(doc *models.Document) []models.ValidationIssue {
	issues := make([]models.ValidationIssue, 0)

	if len(doc.Variables) == 0 {
		issues = append(issues, errorIssue("variables-required", "variables", "At least one variable is required."))

		return issues
	}

	nameGroups := make(map[string][]string, len(doc.Variables))

	for i, variable := range doc.Variables {
		if strings.TrimSpace(variable.Name) == "" {
			issues = append(issues, errorIssue(
				"variable-name-required",
				fmt.Sprintf("variables[%d].name", i),
				fmt.Sprintf("Variable %d has no name.", i+1),
			))

			continue
		}

		if strings.TrimSpace(variable.Description) == "" {
			issues = append(issues, warningIssue(
				"variable-description-missing",
				fmt.Sprintf("variables[%d].description", i),
				fmt.Sprintf("Variable %q has no description.", variable.Name),
			))
		}

		normalized := normalize(variable.Name)
		nameGroups[normalized] = append(nameGroups[normalized], variable.Name)
	}

	for _, names := range nameGroups {
		if len(names) < 2 {
			continue
		}

		issues = append(issues, errorIssue(
			"variable-name-duplicate",
			"variables.duplicate",
			fmt.Sprintf("Variable name %q is used %d times. Names must be unique.", names[0], len(names)),
		))
	}

	return issues
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func errorIssue(id, path, message string) models.ValidationIssue {
	return models.ValidationIssue{ID: id, Path: path, Message: message, Severity: models.SeverityError}
}

func warningIssue(id, path, message string) models.ValidationIssue {
	return models.ValidationIssue{ID: id, Path: path, Message: message, Severity: models.SeverityWarning}
}
