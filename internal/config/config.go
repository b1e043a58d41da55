// Package config defines the canonical, TOML-serializable configuration
// model for dataguard. It is intentionally small and explicit so that table
// definitions can be loaded from disk and turned into column.TableSpec
// values without additional glue code.
//
// Design goals:
//
//  1. Stability: changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: field names in Go mirror the TOML structure used in
//     configuration files passed to --config.
//  3. Minimalism: decoding uses BurntSushi/toml directly into these structs;
//     rule-specific parameters are carried as typed, optional fields on
//     RuleConfig rather than a second free-form decode pass.
//
// Example (trimmed):
//
//	[[table]]
//	name = "orders"
//	path = "orders.csv"
//	format = "csv"
//
//	  [[table.column]]
//	  name = "order_id"
//	  datatype = "integer"
//
//	    [[table.column.rule]]
//	    name = "is_unique"
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Document is the top-level object decoded from a configuration file.
type Document struct {
	Table []Table `toml:"table"`
}

// Table describes one table to validate: where its data lives, the columns
// the engine should expect, and any cross-column relations.
type Table struct {
	// Name identifies the table in reports and metrics; must be unique
	// across the document.
	Name string `toml:"name"`

	// Path is the filesystem path to the source file.
	Path string `toml:"path"`

	// Format selects the reader implementation: "csv" or "parquet".
	// Defaults to "csv" when empty.
	Format string `toml:"format"`

	Column   []Column   `toml:"column"`
	Relation []Relation `toml:"relation"`
}

// Column declares one column's type and the ordered rules applied to it.
type Column struct {
	Name string `toml:"name"`

	// Datatype is one of "string", "integer", "float", "date".
	Datatype string `toml:"datatype"`

	// DateFormat is a strftime-style layout, required when Datatype is
	// "date" (e.g. "%Y-%m-%d").
	DateFormat string `toml:"date_format"`

	Rule []RuleConfig `toml:"rule"`
}

// RuleConfig is one [[table.column.rule]] entry. It carries every
// kind-specific parameter the rule catalog defines; only the fields
// relevant to Name need be set by the author of the file. This mirrors
// rules.ColumnRule, which buildColumnRule (build.go) maps a RuleConfig onto.
type RuleConfig struct {
	Name      string  `toml:"name"`
	Threshold float64 `toml:"threshold"`

	Min     *int     `toml:"min"`
	Max     *int     `toml:"max"`
	Pattern string   `toml:"pattern"`
	Flags   string   `toml:"flags"`
	Values  []string `toml:"values"`
	Class   string   `toml:"class"`

	MinValue *float64 `toml:"min_value"`
	MaxValue *float64 `toml:"max_value"`

	Ascending *bool `toml:"ascending"`
	Strict    bool  `toml:"strict"`

	MaxStdDev          float64 `toml:"max_std_dev"`
	MaxVariancePercent float64 `toml:"max_variance_percent"`

	Year  int  `toml:"year"`
	Month *int `toml:"month"`
	Day   *int `toml:"day"`
}

// Relation is one [[table.relation]] entry: a cross-column comparison.
type Relation struct {
	Left      string  `toml:"left"`
	Right     string  `toml:"right"`
	Op        string  `toml:"op"`
	Kind      string  `toml:"kind"`
	Threshold float64 `toml:"threshold"`
}

// ErrNoTables is returned by Load when a document declares zero tables.
var ErrNoTables = fmt.Errorf("config: document declares no [[table]] entries")

// Load reads and decodes a TOML configuration file from path.
func Load(path string) (*Document, error) {
	var doc Document
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	if len(doc.Table) == 0 {
		return nil, ErrNoTables
	}
	return &doc, nil
}

// Parse decodes a TOML configuration document from raw bytes, used by tests
// that hold the document in memory (--watch reruns reload the file via Load).
func Parse(data []byte) (*Document, error) {
	var doc Document
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, fmt.Errorf("config: decoding document: %w", err)
	}
	if len(doc.Table) == 0 {
		return nil, ErrNoTables
	}
	return &doc, nil
}
