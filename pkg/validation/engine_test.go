package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstri/studyflow/pkg/models"
)

func wellFormedDocument() *models.Document {
	year := 2020

	return &models.Document{
		Title:             "Beta blockers after myocardial infarction",
		Objective:         "Estimate the effect of beta blockers on 1-year mortality",
		Population:        "Adults admitted with acute MI",
		InclusionCriteria: []string{"age >= 18", "confirmed MI"},
		ExclusionCriteria: []string{"prior cardiac surgery"},
		Variables: []models.Variable{
			{ID: "v1", Name: "Age", Type: models.VariableTypeNumeric, Description: "Age at admission", Required: true},
			{ID: "v2", Name: "Beta blocker", Type: models.VariableTypeBoolean, Description: "Exposure flag"},
		},
		Outcomes: []models.Outcome{
			{ID: "o1", Name: "1-year mortality", Description: "Death within 365 days", Metric: "hazard ratio"},
		},
		Metadata: models.Metadata{
			Journal:            "NEJM",
			Year:               &year,
			Source:             "pmid-100",
			PopulationSynopsis: "Post-MI adults",
		},
	}
}

func issueByID(issues []models.ValidationIssue, id string) *models.ValidationIssue {
	for i := range issues {
		if issues[i].ID == id {
			return &issues[i]
		}
	}

	return nil
}

func TestValidate_WellFormedDocumentHasNoIssues(t *testing.T) {
	issues := Validate(wellFormedDocument())

	assert.Empty(t, issues)
}

func TestValidate_NilDocument(t *testing.T) {
	issues := Validate(nil)

	require.Len(t, issues, 1)
	assert.Equal(t, models.SeverityError, issues[0].Severity)
}

func TestValidate_EmptyRequiredFieldsAreErrors(t *testing.T) {
	doc := wellFormedDocument()
	doc.Title = "  "
	doc.Objective = ""
	doc.Population = ""

	issues := Validate(doc)

	for _, id := range []string{"title-required", "objective-required", "population-required"} {
		issue := issueByID(issues, id)
		require.NotNil(t, issue, "expected issue %s", id)
		assert.Equal(t, models.SeverityError, issue.Severity)
	}
}

func TestValidate_MetadataRules(t *testing.T) {
	doc := wellFormedDocument()
	doc.Metadata.Journal = ""
	doc.Metadata.Source = ""
	doc.Metadata.Year = nil

	issues := Validate(doc)

	journal := issueByID(issues, "metadata-journal-required")
	require.NotNil(t, journal)
	assert.Equal(t, models.SeverityError, journal.Severity)
	assert.Equal(t, "metadata.journal", journal.Path)

	source := issueByID(issues, "metadata-source-required")
	require.NotNil(t, source)
	assert.Equal(t, models.SeverityError, source.Severity)

	yearIssue := issueByID(issues, "metadata-year-missing")
	require.NotNil(t, yearIssue)
	assert.Equal(t, models.SeverityWarning, yearIssue.Severity)
}

func TestValidate_EmptyInclusionIsErrorEmptyExclusionIsWarning(t *testing.T) {
	doc := wellFormedDocument()
	doc.InclusionCriteria = nil
	doc.ExclusionCriteria = nil

	issues := Validate(doc)

	inclusion := issueByID(issues, "inclusion-required")
	require.NotNil(t, inclusion)
	assert.Equal(t, models.SeverityError, inclusion.Severity)

	exclusion := issueByID(issues, "exclusion-empty")
	require.NotNil(t, exclusion)
	assert.Equal(t, models.SeverityWarning, exclusion.Severity)
}

func TestValidate_CriterionInBothListsIsError(t *testing.T) {
	doc := wellFormedDocument()
	doc.InclusionCriteria = []string{"age >= 18", "Prior  Cardiac Surgery"}
	doc.ExclusionCriteria = []string{"prior cardiac surgery"}

	issues := Validate(doc)

	overlap := issueByID(issues, "criteria-overlap")
	require.NotNil(t, overlap)
	assert.Equal(t, models.SeverityError, overlap.Severity)
	assert.Equal(t, "inclusionCriteria[1]", overlap.Path)
	assert.Contains(t, overlap.Message, "exclusion (index 0)")
}

func TestValidate_NoVariablesIsError(t *testing.T) {
	doc := wellFormedDocument()
	doc.Variables = nil

	issues := Validate(doc)

	require.NotNil(t, issueByID(issues, "variables-required"))
}

func TestValidate_VariableNameAndDescriptionRules(t *testing.T) {
	doc := wellFormedDocument()
	doc.Variables = []models.Variable{
		{ID: "v1", Name: "", Type: models.VariableTypeNumeric},
		{ID: "v2", Name: "LDL", Type: models.VariableTypeNumeric, Description: ""},
	}

	issues := Validate(doc)

	nameIssue := issueByID(issues, "variable-name-required")
	require.NotNil(t, nameIssue)
	assert.Equal(t, "variables[0].name", nameIssue.Path)
	assert.Equal(t, models.SeverityError, nameIssue.Severity)

	descIssue := issueByID(issues, "variable-description-missing")
	require.NotNil(t, descIssue)
	assert.Equal(t, "variables[1].description", descIssue.Path)
	assert.Equal(t, models.SeverityWarning, descIssue.Severity)
}

func TestValidate_DuplicateVariableNamesCaseInsensitive(t *testing.T) {
	doc := wellFormedDocument()
	doc.Variables = []models.Variable{
		{ID: "v1", Name: "Age", Type: models.VariableTypeNumeric, Description: "a"},
		{ID: "v2", Name: " age ", Type: models.VariableTypeNumeric, Description: "b"},
		{ID: "v3", Name: "Sex", Type: models.VariableTypeCategorical, Description: "c"},
	}

	issues := Validate(doc)

	duplicate := issueByID(issues, "variable-name-duplicate")
	require.NotNil(t, duplicate)
	assert.Equal(t, "variables.duplicate", duplicate.Path)
	assert.Equal(t, models.SeverityError, duplicate.Severity)
}

func TestHasErrorsAndCountWarnings(t *testing.T) {
	issues := []models.ValidationIssue{
		{ID: "a", Severity: models.SeverityWarning},
		{ID: "b", Severity: models.SeverityWarning},
	}

	assert.False(t, HasErrors(issues))
	assert.Equal(t, 2, CountWarnings(issues))

	issues = append(issues, models.ValidationIssue{ID: "c", Severity: models.SeverityError})

	assert.True(t, HasErrors(issues))
	assert.Equal(t, 2, CountWarnings(issues))
}

// Seeded documents start with no exclusion criteria; that alone must be a
// single warning, never a blocker.
func TestValidate_SeededDocumentWithEmptyExclusionsWarnsOnly(t *testing.T) {
	doc := wellFormedDocument()
	doc.ExclusionCriteria = nil
	doc.Variables = doc.Variables[:1]

	issues := Validate(doc)

	require.Len(t, issues, 1)
	assert.Equal(t, "exclusion-empty", issues[0].ID)
	assert.Equal(t, models.SeverityWarning, issues[0].Severity)
}
