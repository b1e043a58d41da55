package compiler

import "fmt"

// IncompatibleRuleError reports a rule kind applied to a column type it
// does not accept (spec.md §4.1).
type IncompatibleRuleError struct {
	Column string
	Kind   string
	Type   string
}

func (e *IncompatibleRuleError) Error() string {
	return fmt.Sprintf("compiler: rule %q is not applicable to column %q of type %s", e.Kind, e.Column, e.Type)
}

// InvalidParameterError reports a structurally invalid rule parameter:
// empty StringInSet values, negative length bound, min > max, negative
// max_std_dev, threshold outside [0,1] (spec.md §4.1).
type InvalidParameterError struct {
	Column string
	Kind   string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("compiler: invalid parameter for rule %q on column %q: %s", e.Kind, e.Column, e.Reason)
}

// SchemaMismatchError reports a declared column type that disagrees with a
// typed source's native column type (spec.md §4.3 step 2).
type SchemaMismatchError struct {
	Column   string
	Declared string
	Source   string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("compiler: column %q declared as %s but source provides %s", e.Column, e.Declared, e.Source)
}

// UnknownColumnError reports a relation naming a column absent from the
// table spec (spec.md §4.3 step 5).
type UnknownColumnError struct {
	Relation string
	Column   string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("compiler: relation %q references unknown column %q", e.Relation, e.Column)
}

// RegexCompileError wraps a regexp compilation failure with its column and
// pattern context.
type RegexCompileError struct {
	Column  string
	Pattern string
	Err     error
}

func (e *RegexCompileError) Error() string {
	return fmt.Sprintf("compiler: column %q regex %q failed to compile: %v", e.Column, e.Pattern, e.Err)
}

func (e *RegexCompileError) Unwrap() error { return e.Err }
