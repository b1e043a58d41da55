// Package report is the pure data structure and verdict function dataguard
// produces: per-column-per-rule violation counts against thresholds, plus
// a JSON encoding for the CLI's --output json collaborator. No formatting
// logic lives here, per spec.md §4.6 ("human-readable formatting lives in
// the external formatter collaborator"); grounded on the original
// dataguard-core's report.rs (RuleResult/error_percentage) and on the
// teacher's JSON-first result shapes.
package report

import "encoding/json"

// RuleResult is one rule's outcome for a column or relation.
type RuleResult struct {
	Name       string  `json:"name"`
	Violations uint64  `json:"violations"`
	Percent    float64 `json:"percent"`
	Threshold  float64 `json:"threshold"`
	Passed     bool    `json:"passed"`
}

// ColumnResult collects every rule's outcome for one column.
type ColumnResult struct {
	Name  string       `json:"name"`
	Rules []RuleResult `json:"rules"`
}

// RelationResult is one cross-column relation's outcome.
type RelationResult struct {
	Name       string  `json:"name"`
	Violations uint64  `json:"violations"`
	Percent    float64 `json:"percent"`
	Threshold  float64 `json:"threshold"`
	Passed     bool    `json:"passed"`
}

// Report is the complete validation outcome for one table.
type Report struct {
	Table     string           `json:"table"`
	TotalRows uint64           `json:"total_rows"`
	Columns   []ColumnResult   `json:"columns"`
	Relations []RelationResult `json:"relations"`
	Passed    bool             `json:"passed"`
}

// Verdict evaluates whether violations pass against threshold, using
// violations / max(total_rows, 1) <= threshold with real division, the
// spec's mandated lax (<=) boundary (spec.md §9(b)).
func Verdict(violations, totalRows uint64, threshold float64) (percent float64, passed bool) {
	denom := totalRows
	if denom == 0 {
		denom = 1
	}
	percent = 100 * float64(violations) / float64(denom)
	passed = float64(violations)/float64(denom) <= threshold
	return percent, passed
}

// ToJSON marshals the report with two-space indentation, matching the
// schema spec.md §6 names verbatim.
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
