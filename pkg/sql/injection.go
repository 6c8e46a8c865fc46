// Package sql provides safety checks applied to rendered query plans:
// injection screening of filter literals and single-statement validation
// of the assembled SELECT.
package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes a filter literal that tripped the
// injection detector.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	Column      string // Target column of the offending filter
	Value       string // The literal that was checked
}

// CheckFilterValue runs libinjection over one filter literal. Filter
// values originate from matched domain values and NLU hints; the NLU
// path in particular can echo attacker-controlled query text, so every
// literal is screened before it is rendered into a WHERE clause.
// Returns nil when the value is clean.
func CheckFilterValue(column, value string) *InjectionCheckResult {
	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if !isSQLi {
		return nil
	}
	return &InjectionCheckResult{
		IsSQLi:      true,
		Fingerprint: string(fingerprint),
		Column:      column,
		Value:       value,
	}
}

// CheckFilterValues screens a set of literals for one column and returns
// a result per offending value. An empty slice means all values are clean.
func CheckFilterValues(column string, values []string) []*InjectionCheckResult {
	var results []*InjectionCheckResult
	for _, v := range values {
		if r := CheckFilterValue(column, v); r != nil {
			results = append(results, r)
		}
	}
	return results
}
