package config

import (
	"fmt"

	"github.com/GrGLeo/dataguard/internal/column"
	"github.com/GrGLeo/dataguard/internal/reader"
	"github.com/GrGLeo/dataguard/internal/reader/csvreader"
	"github.com/GrGLeo/dataguard/internal/reader/parquetreader"
	"github.com/GrGLeo/dataguard/internal/rules"
)

// BuildTableSpecs turns a decoded Document into the column.TableSpec values
// package compiler consumes, opening a reader for each table's declared
// format. It performs no schema or source I/O beyond constructing the
// reader value; Schema() is read lazily by package compiler.
func BuildTableSpecs(d *Document) ([]column.TableSpec, error) {
	out := make([]column.TableSpec, 0, len(d.Table))
	for _, t := range d.Table {
		spec, err := buildTableSpec(t)
		if err != nil {
			return nil, fmt.Errorf("config: table %q: %w", t.Name, err)
		}
		out = append(out, spec)
	}
	return out, nil
}

func buildTableSpec(t Table) (column.TableSpec, error) {
	src, err := newReader(t)
	if err != nil {
		return column.TableSpec{}, err
	}

	columns := make([]column.ColumnSpec, 0, len(t.Column))
	for _, c := range t.Column {
		cs, err := buildColumnSpec(c)
		if err != nil {
			return column.TableSpec{}, err
		}
		columns = append(columns, cs)
	}

	relations := make([]rules.RelationRule, 0, len(t.Relation))
	for _, r := range t.Relation {
		relations = append(relations, buildRelationRule(r))
	}

	return column.TableSpec{
		Name:      t.Name,
		Source:    src,
		Columns:   columns,
		Relations: relations,
	}, nil
}

func newReader(t Table) (reader.Reader, error) {
	switch t.Format {
	case "", "csv":
		return csvreader.New(t.Path), nil
	case "parquet":
		return parquetreader.New(t.Path), nil
	default:
		return nil, fmt.Errorf("unknown format %q", t.Format)
	}
}

var datatypeByName = map[string]rules.ColumnType{
	"string":  rules.String,
	"integer": rules.Integer,
	"float":   rules.Float,
	"date":    rules.Date,
}

var classByName = map[string]rules.CharClass{
	"numeric":      rules.Numeric,
	"alpha":        rules.Alpha,
	"alphanumeric": rules.Alphanumeric,
	"lowercase":    rules.Lowercase,
	"uppercase":    rules.Uppercase,
	"email":        rules.Email,
	"url":          rules.URL,
	"uuid":         rules.UUID,
}

var opByName = map[string]rules.Op{
	"<":  rules.LT,
	"<=": rules.LE,
	"=":  rules.EQ,
	">=": rules.GE,
	">":  rules.GT,
}

// friendlyRuleNames maps the convenience names spec.md §6 documents
// (its own example is "with_min_length") onto the catalog Kind they
// compile to. The names mirror the column.StringColumnBuilder /
// IntegerColumnBuilder / FloatColumnBuilder / DateColumnBuilder method
// names rendered in snake_case. Several names map onto the same Kind
// because the catalog distinguishes rule kinds, not the particular
// convenience method a caller used to set a bound: with_min_length and
// with_max_length each just populate half of a StringLength rule's
// min/max pair, and between/at_least/at_most are the same split for
// NumericRange.
var friendlyRuleNames = map[string]rules.Kind{
	"with_min_length":   rules.KindStringLength,
	"with_max_length":   rules.KindStringLength,
	"with_length_range": rules.KindStringLength,
	"with_regex":        rules.KindStringRegex,
	"is_in_set":         rules.KindStringInSet,
	"is_char_class":     rules.KindStringCharClass,

	"between":  rules.KindNumericRange,
	"at_least": rules.KindNumericRange,
	"at_most":  rules.KindNumericRange,

	"is_monotonically_increasing": rules.KindMonotonicity,
	"is_monotonically_decreasing": rules.KindMonotonicity,

	"with_max_std_dev":          rules.KindStdDevCheck,
	"with_max_variance_percent": rules.KindMeanVariance,

	"is_not_null": rules.KindNullCheck,
	"is_unique":   rules.KindUnicity,
}

// catalogKinds lists every Kind a [[table.column.rule]] entry may also
// name directly (e.g. "string_char_class", matching rules.Kind's own
// string value verbatim), for config authors who prefer the internal
// catalog name over a friendly alias.
var catalogKinds = []rules.Kind{
	rules.KindStringLength, rules.KindStringRegex, rules.KindStringInSet, rules.KindStringCharClass,
	rules.KindNumericRange, rules.KindMonotonicity, rules.KindStdDevCheck, rules.KindMeanVariance,
	rules.KindDateBefore, rules.KindDateAfter, rules.KindDateNotFuture, rules.KindDateNotPast,
	rules.KindDateWeekday, rules.KindDateWeekend, rules.KindTypeCheck, rules.KindNullCheck,
	rules.KindUnicity,
}

// kindByName is the full name -> Kind lookup table buildColumnRule
// consults: friendlyRuleNames plus every catalog Kind's own string value,
// built once at package init so a config's rule.name never needs to match
// rules.Kind verbatim just to be accepted.
var kindByName = newKindByName()

func newKindByName() map[string]rules.Kind {
	m := make(map[string]rules.Kind, len(friendlyRuleNames)+len(catalogKinds))
	for name, kind := range friendlyRuleNames {
		m[name] = kind
	}
	for _, kind := range catalogKinds {
		m[string(kind)] = kind
	}
	return m
}

func buildColumnSpec(c Column) (column.ColumnSpec, error) {
	typ, ok := datatypeByName[c.Datatype]
	if !ok {
		return column.ColumnSpec{}, fmt.Errorf("column %q: unknown datatype %q", c.Name, c.Datatype)
	}

	rs := make([]rules.ColumnRule, 0, len(c.Rule))
	for _, rc := range c.Rule {
		r, err := buildColumnRule(rc)
		if err != nil {
			return column.ColumnSpec{}, fmt.Errorf("column %q: %w", c.Name, err)
		}
		rs = append(rs, r)
	}

	return column.ColumnSpec{Name: c.Name, Type: typ, DateLayout: c.DateFormat, Rules: rs}, nil
}

func buildColumnRule(rc RuleConfig) (rules.ColumnRule, error) {
	kind, ok := kindByName[rc.Name]
	if !ok {
		return rules.ColumnRule{}, fmt.Errorf("unknown rule name %q", rc.Name)
	}

	r := rules.ColumnRule{
		Kind:               kind,
		Threshold:          rc.Threshold,
		MinLen:             rc.Min,
		MaxLen:             rc.Max,
		Pattern:            rc.Pattern,
		Flags:              rc.Flags,
		Values:             rc.Values,
		MinNum:             rc.MinValue,
		MaxNum:             rc.MaxValue,
		Strict:             rc.Strict,
		MaxStdDev:          rc.MaxStdDev,
		MaxVariancePercent: rc.MaxVariancePercent,
		Year:               rc.Year,
		Month:              rc.Month,
		Day:                rc.Day,
	}

	if kind == rules.KindMonotonicity {
		// "is_monotonically_decreasing" is the only friendly name whose
		// default direction is descending; every other spelling (the
		// ascending friendly name, or the bare "monotonicity" catalog
		// name) defaults to ascending. rc.Ascending, if set, always wins.
		r.Ascending = rc.Name != "is_monotonically_decreasing"
	}
	if rc.Ascending != nil {
		r.Ascending = *rc.Ascending
	}

	if rc.Class != "" {
		class, ok := classByName[rc.Class]
		if !ok {
			return rules.ColumnRule{}, fmt.Errorf("rule %q: unknown char class %q", rc.Name, rc.Class)
		}
		r.Class = class
	}
	return r, nil
}

func buildRelationRule(r Relation) rules.RelationRule {
	return rules.RelationRule{
		Kind:      rules.Kind(r.Kind),
		Left:      r.Left,
		Right:     r.Right,
		Op:        opByName[r.Op],
		Threshold: r.Threshold,
	}
}
