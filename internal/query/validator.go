package query

import (
	"fmt"

	appErrors "github.com/logforge/logforge/internal/errors"
	"github.com/logforge/logforge/internal/regexcache"
)

// MaxTermLength caps a literal term's length, matching
// regexcache.MaxPatternLength so every term (literal or regex) is held
// to the same 200-character bound.
const MaxTermLength = regexcache.MaxPatternLength

// Validate is a pure function: given a Query, it reports whether the
// query is safe and well-formed to plan and execute. It never touches
// disk, a cache, or the clock, so it can run identically at the CLI, in
// the HTTP handler, and in tests.
func Validate(q Query) error {
	enabled := q.EnabledTerms()
	if len(enabled) == 0 {
		return appErrors.QueryInvalid("at least one enabled term is required")
	}

	for _, t := range enabled {
		if t.Value == "" {
			return appErrors.QueryInvalid(fmt.Sprintf("term %q has an empty value", t.ID))
		}
		if t.Operator != OperatorAnd && t.Operator != OperatorOr {
			return appErrors.QueryInvalid(fmt.Sprintf("term %q has an invalid operator %q", t.ID, t.Operator))
		}
		if t.IsRegex {
			if err := regexcache.CheckPattern(t.Value); err != nil {
				return err
			}
		} else if len(t.Value) > MaxTermLength {
			return appErrors.QueryInvalid(fmt.Sprintf("term %q exceeds max literal length", t.ID))
		}
	}

	if q.GlobalOperator != OperatorAnd && q.GlobalOperator != OperatorOr {
		return appErrors.QueryInvalid(fmt.Sprintf("invalid global operator %q", q.GlobalOperator))
	}

	if q.Filters.TimeStart != nil && q.Filters.TimeEnd != nil && q.Filters.TimeEnd.Before(*q.Filters.TimeStart) {
		return appErrors.QueryInvalid("filters.time_end is before filters.time_start")
	}

	return nil
}
