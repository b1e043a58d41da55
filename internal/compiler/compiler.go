// Package compiler turns a column.TableSpec into a plan.ExecutablePlan:
// partitioning each column's rules into type/null/domain/unicity/stat
// groups, compiling regexes and sets once, inserting TypeCheck for
// untyped sources, and resolving relation column references. Grounded on
// the original dataguard-core's compiler/mod.rs (compile_column,
// compile_string_rules, compile_date_rules, compile_numeric_rules).
package compiler

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/GrGLeo/dataguard/internal/column"
	"github.com/GrGLeo/dataguard/internal/plan"
	"github.com/GrGLeo/dataguard/internal/reader"
	"github.com/GrGLeo/dataguard/internal/rules"
)

// Compile turns a table spec into an executable plan, fetching the
// source's schema to decide TypeCheck insertion and to detect schema
// mismatches.
func Compile(ctx context.Context, spec column.TableSpec) (*plan.ExecutablePlan, error) {
	schema, err := spec.Source.Schema(ctx)
	if err != nil {
		return nil, fmt.Errorf("compiler: reading source schema: %w", err)
	}
	schemaByName := make(map[string]reader.ColumnSchema, len(schema))
	for _, s := range schema {
		schemaByName[s.Name] = s
	}

	out := &plan.ExecutablePlan{TableName: spec.Name}

	colNames := make(map[string]rules.ColumnType, len(spec.Columns))
	for _, cs := range spec.Columns {
		colNames[cs.Name] = cs.Type

		cp, err := compileColumn(cs, schemaByName)
		if err != nil {
			return nil, err
		}
		out.Columns = append(out.Columns, cp)
	}

	for _, rel := range spec.Relations {
		rp, err := compileRelation(rel, colNames)
		if err != nil {
			return nil, err
		}
		out.Relations = append(out.Relations, rp)
	}

	return out, nil
}

func compileColumn(cs column.ColumnSpec, schemaByName map[string]reader.ColumnSchema) (plan.ColumnPlan, error) {
	cp := plan.ColumnPlan{Name: cs.Name, Type: cs.Type}
	if cs.Type == rules.Date {
		cp.DateLayout = cs.DateLayout
	}

	src, ok := schemaByName[cs.Name]
	if !ok {
		return cp, &SchemaMismatchError{Column: cs.Name, Declared: cs.Type.String(), Source: "<absent>"}
	}
	if src.Typed {
		if src.Type != cs.Type {
			return cp, &SchemaMismatchError{Column: cs.Name, Declared: cs.Type.String(), Source: src.Type.String()}
		}
	} else {
		cp.NeedTypeCheck = true
	}

	for _, r := range cs.Rules {
		if !rules.Applicable(r.Kind, cs.Type) {
			return cp, &IncompatibleRuleError{Column: cs.Name, Kind: string(r.Kind), Type: cs.Type.String()}
		}
		if err := validateThreshold(cs.Name, r.Kind, r.Threshold); err != nil {
			return cp, err
		}

		switch r.Kind {
		case rules.KindTypeCheck:
			cp.TypeCheckThresh = r.Threshold
		case rules.KindNullCheck:
			cp.HasNullCheck = true
			cp.NullThreshold = r.Threshold
		case rules.KindUnicity:
			cp.HasUnicity = true
			cp.UnicityThreshold = r.Threshold
		case rules.KindStdDevCheck:
			if r.MaxStdDev < 0 {
				return cp, &InvalidParameterError{Column: cs.Name, Kind: string(r.Kind), Reason: "max_std_dev must be >= 0"}
			}
			cp.Stats = append(cp.Stats, plan.StatExecutable{Kind: r.Kind, Threshold: r.Threshold, MaxStdDev: r.MaxStdDev})
		case rules.KindMeanVariance:
			if r.MaxVariancePercent < 0 {
				return cp, &InvalidParameterError{Column: cs.Name, Kind: string(r.Kind), Reason: "max_variance_percent must be >= 0"}
			}
			cp.Stats = append(cp.Stats, plan.StatExecutable{Kind: r.Kind, Threshold: r.Threshold, MaxVariancePercent: r.MaxVariancePercent})
		default:
			de, err := compileDomainRule(cs.Name, r)
			if err != nil {
				return cp, err
			}
			cp.Domain = append(cp.Domain, de)
		}
	}

	return cp, nil
}

func validateThreshold(column string, kind rules.Kind, t float64) error {
	if t < 0 || t > 1 {
		return &InvalidParameterError{Column: column, Kind: string(kind), Reason: "threshold must be within [0, 1]"}
	}
	return nil
}

func compileDomainRule(column string, r rules.ColumnRule) (plan.DomainExecutable, error) {
	de := plan.DomainExecutable{Kind: r.Kind, Threshold: r.Threshold}

	switch r.Kind {
	case rules.KindStringLength:
		if r.MinLen != nil && *r.MinLen < 0 {
			return de, &InvalidParameterError{Column: column, Kind: string(r.Kind), Reason: "min must be >= 0"}
		}
		if r.MaxLen != nil && *r.MaxLen < 0 {
			return de, &InvalidParameterError{Column: column, Kind: string(r.Kind), Reason: "max must be >= 0"}
		}
		if r.MinLen != nil && r.MaxLen != nil && *r.MinLen > *r.MaxLen {
			return de, &InvalidParameterError{Column: column, Kind: string(r.Kind), Reason: "min must be <= max"}
		}
		de.MinLen, de.MaxLen = r.MinLen, r.MaxLen

	case rules.KindStringRegex:
		flags := ""
		if r.Flags != "" {
			flags = "(?" + r.Flags + ")"
		}
		re, err := regexp.Compile("^" + flags + "(?:" + r.Pattern + ")$")
		if err != nil {
			return de, &RegexCompileError{Column: column, Pattern: r.Pattern, Err: err}
		}
		de.Regex = re

	case rules.KindStringInSet:
		if len(r.Values) == 0 {
			return de, &InvalidParameterError{Column: column, Kind: string(r.Kind), Reason: "values must not be empty"}
		}
		set := make(map[string]struct{}, len(r.Values))
		for _, v := range r.Values {
			set[v] = struct{}{}
		}
		de.Set = set

	case rules.KindStringCharClass:
		de.Class = r.Class

	case rules.KindNumericRange:
		if r.MinNum != nil && r.MaxNum != nil && *r.MinNum > *r.MaxNum {
			return de, &InvalidParameterError{Column: column, Kind: string(r.Kind), Reason: "min must be <= max"}
		}
		de.MinNum, de.MaxNum = r.MinNum, r.MaxNum

	case rules.KindMonotonicity:
		de.Ascending, de.Strict = r.Ascending, r.Strict

	case rules.KindDateBefore, rules.KindDateAfter:
		month := 1
		if r.Month != nil {
			month = *r.Month
		}
		day := 1
		if r.Day != nil {
			day = *r.Day
		}
		de.BoundaryDays = toDate32(r.Year, month, day)
		de.After = r.Kind == rules.KindDateAfter

	case rules.KindDateNotFuture, rules.KindDateNotPast:
		de.After = r.Kind == rules.KindDateNotPast

	case rules.KindDateWeekday, rules.KindDateWeekend:
		de.IsWeek = r.Kind == rules.KindDateWeekday

	default:
		return de, &InvalidParameterError{Column: column, Kind: string(r.Kind), Reason: "unknown rule kind"}
	}

	return de, nil
}

// toDate32 converts a civil (year, month, day) into days since the Unix
// epoch, the same representation arrow.Date32 arrays use.
func toDate32(year, month, day int) arrow.Date32 {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	days := t.Unix() / int64(24*time.Hour/time.Second)
	return arrow.Date32(days)
}

func compileRelation(rel rules.RelationRule, colNames map[string]rules.ColumnType) (plan.RelationPlan, error) {
	relName := string(rel.Kind)
	leftType, ok := colNames[rel.Left]
	if !ok {
		return plan.RelationPlan{}, &UnknownColumnError{Relation: relName, Column: rel.Left}
	}
	rightType, ok := colNames[rel.Right]
	if !ok {
		return plan.RelationPlan{}, &UnknownColumnError{Relation: relName, Column: rel.Right}
	}

	switch rel.Kind {
	case rules.KindDateCompare:
		if leftType != rules.Date || rightType != rules.Date {
			return plan.RelationPlan{}, &IncompatibleRuleError{Column: rel.Left + "," + rel.Right, Kind: relName, Type: "non-date"}
		}
	case rules.KindNumericCompare:
		if !isNumeric(leftType) || !isNumeric(rightType) {
			return plan.RelationPlan{}, &IncompatibleRuleError{Column: rel.Left + "," + rel.Right, Kind: relName, Type: "non-numeric"}
		}
	default:
		return plan.RelationPlan{}, &InvalidParameterError{Column: rel.Left + "," + rel.Right, Kind: relName, Reason: "unknown relation kind"}
	}

	if err := validateThreshold(rel.Left+","+rel.Right, rel.Kind, rel.Threshold); err != nil {
		return plan.RelationPlan{}, err
	}

	return plan.RelationPlan{Kind: rel.Kind, Left: rel.Left, Right: rel.Right, Op: rel.Op, Threshold: rel.Threshold}, nil
}

func isNumeric(t rules.ColumnType) bool { return t == rules.Integer || t == rules.Float }
