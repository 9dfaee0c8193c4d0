// Package models defines the core domain models for the study workflow and
// the versioned schema document.
package models

import (
	"github.com/go-playground/validator/v10"
)

// VariableType enumerates the value kinds a study variable can take.
type VariableType string

const (
	VariableTypeNumeric     VariableType = "numeric"
	VariableTypeCategorical VariableType = "categorical"
	VariableTypeBoolean     VariableType = "boolean"
	VariableTypeText        VariableType = "text"
	VariableTypeDate        VariableType = "date"
)

// Variable is one extractable data point of the study schema.
type Variable struct {
	ID          string       `json:"id"          validate:"required"`
	Name        string       `json:"name"`
	Type        VariableType `json:"type"        validate:"required,oneof=numeric categorical boolean text date"`
	Description string       `json:"description"`
	Required    bool         `json:"required"`
	Source      string       `json:"source,omitempty"`
}

// Outcome is a study endpoint with the metric used to measure it.
type Outcome struct {
	ID          string `json:"id"   validate:"required"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Metric      string `json:"metric"`
}

// Metadata carries provenance information about the schema document.
type Metadata struct {
	Journal            string `json:"journal"`
	Year               *int   `json:"year"`
	Source             string `json:"source"`
	PopulationSynopsis string `json:"population_synopsis"`
}

// VersionMeta stamps a committed document revision.
type VersionMeta struct {
	Revision  int    `json:"revision"`
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"` // RFC 3339
	Message   string `json:"message"`
}

// Document is the editable schema artifact: the structured description of a
// study extracted from the selected literature. It is mutated freely in
// memory and becomes durable only when committed into a Snapshot.
type Document struct {
	Title             string      `json:"title"`
	Objective         string      `json:"objective"`
	Population        string      `json:"population"`
	InclusionCriteria []string    `json:"inclusion_criteria"`
	ExclusionCriteria []string    `json:"exclusion_criteria"`
	Variables         []Variable  `json:"variables"          validate:"omitempty,dive"`
	Outcomes          []Outcome   `json:"outcomes"           validate:"omitempty,dive"`
	Metadata          Metadata    `json:"metadata"`
	Notes             string      `json:"notes,omitempty"`
	Version           VersionMeta `json:"version"`
}

// Clone returns a deep copy of the document. The working draft must never
// alias a committed snapshot, so every read-out and write-in boundary clones.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}

	return deepClone(d)
}

// Validate runs struct-level validation over the document's tagged fields.
// The richer rule engine in pkg/validation layers domain rules on top.
func (d *Document) Validate() error {
	validate := validator.New()

	return validate.Struct(d)
}

// IssueSeverity classifies a validation issue.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// ValidationIssue is one finding of the validation engine. Path is a
// dotted/indexed locator into the document (e.g. "variables[2].name") used to
// route the issue back to the owning form section.
type ValidationIssue struct {
	ID       string        `json:"id"`
	Path     string        `json:"path"`
	Message  string        `json:"message"`
	Severity IssueSeverity `json:"severity"`
}
