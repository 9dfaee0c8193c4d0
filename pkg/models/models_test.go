package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactKey_SortsAndDeduplicates(t *testing.T) {
	key := ArtifactKey([]string{"pmid-9", "pmid-1", "pmid-9", " pmid-5 "})

	assert.Equal(t, "pmid-1|pmid-5|pmid-9", key)
}

func TestArtifactKey_OrderIndependent(t *testing.T) {
	first := ArtifactKey([]string{"a2", "a1"})
	second := ArtifactKey([]string{"a1", "a2"})

	assert.Equal(t, first, second)
}

func TestArtifactKey_EmptySourcesFallsBackToManual(t *testing.T) {
	assert.Equal(t, ManualArtifactKey, ArtifactKey(nil))
	assert.Equal(t, ManualArtifactKey, ArtifactKey([]string{"", "  "}))
}

func TestArtifactKey_DifferentSetsDiverge(t *testing.T) {
	assert.NotEqual(t, ArtifactKey([]string{"a1", "a2"}), ArtifactKey([]string{"a1", "a2", "a3"}))
}

func TestDocument_CloneIsIndependent(t *testing.T) {
	year := 2021
	doc := &Document{
		Title:             "Sepsis outcomes",
		InclusionCriteria: []string{"adults"},
		Variables: []Variable{
			{ID: "v1", Name: "Age", Type: VariableTypeNumeric, Description: "Age at admission"},
		},
		Metadata: Metadata{Journal: "JAMA", Year: &year, Source: "pmid-1"},
	}

	clone := doc.Clone()
	require.NotSame(t, doc, clone)

	clone.Variables[0].Name = "AgeYears"
	clone.InclusionCriteria[0] = "children"
	*clone.Metadata.Year = 1999

	assert.Equal(t, "Age", doc.Variables[0].Name)
	assert.Equal(t, "adults", doc.InclusionCriteria[0])
	assert.Equal(t, 2021, *doc.Metadata.Year)
}

func TestDocument_CloneNil(t *testing.T) {
	var doc *Document

	assert.Nil(t, doc.Clone())
}

func TestDocument_Validate_RejectsUnknownVariableType(t *testing.T) {
	doc := &Document{
		Variables: []Variable{{ID: "v1", Name: "Age", Type: VariableType("integer")}},
	}

	err := doc.Validate()
	assert.Error(t, err)
}

func TestDocument_Validate_RejectsMissingElementIDs(t *testing.T) {
	doc := &Document{
		Variables: []Variable{{Name: "Age", Type: VariableTypeNumeric}},
	}

	assert.Error(t, doc.Validate(), "variable without an id must be rejected")

	doc = &Document{
		Variables: []Variable{{ID: "v1", Name: "Age", Type: VariableTypeNumeric}},
		Outcomes:  []Outcome{{Name: "Mortality"}},
	}

	assert.Error(t, doc.Validate(), "outcome without an id must be rejected")
}

func TestDocument_Validate_AcceptsKnownVariableTypes(t *testing.T) {
	doc := &Document{
		Variables: []Variable{
			{ID: "v1", Type: VariableTypeNumeric},
			{ID: "v2", Type: VariableTypeDate},
		},
		Outcomes: []Outcome{{ID: "o1"}},
	}

	err := doc.Validate()
	assert.NoError(t, err)
}

func TestSnapshot_RevisionOfNil(t *testing.T) {
	var snap *Snapshot

	assert.Equal(t, 0, snap.Revision())
	assert.Equal(t, 0, (&Snapshot{}).Revision())
}
