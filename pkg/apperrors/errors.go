package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoEntitiesResolved = errors.New("no entities resolved")
	ErrDisconnectedSchema = errors.New("disconnected schema graph")
	ErrPlanAssembly       = errors.New("plan assembly failed")
	ErrMalformedSchema    = errors.New("malformed schema context")
)

// NoEntitiesResolvedError means the query matched nothing above threshold
// in any catalog. User-actionable: the caller should rephrase the request.
type NoEntitiesResolvedError struct {
	Query string
}

func (e *NoEntitiesResolvedError) Error() string {
	return fmt.Sprintf("no schema entities resolved for query %q; rephrase your request", e.Query)
}

func (e *NoEntitiesResolvedError) Unwrap() error { return ErrNoEntitiesResolved }

// DisconnectedSchemaError names the specific required-table pairs that
// cannot be joined with the available relationships.
type DisconnectedSchemaError struct {
	Pairs [][2]string
}

func (e *DisconnectedSchemaError) Error() string {
	parts := make([]string, len(e.Pairs))
	for i, p := range e.Pairs {
		parts[i] = p[0] + " and " + p[1]
	}
	return "no join path between required tables: " + strings.Join(parts, "; ")
}

func (e *DisconnectedSchemaError) Unwrap() error { return ErrDisconnectedSchema }

// PlanAssemblyError is a structured plan-builder refusal: empty select
// list, an unidentified entity reference, or contradictory filters.
// Offenders names the entities or columns involved.
type PlanAssemblyError struct {
	Reason    string
	Offenders []string
}

func (e *PlanAssemblyError) Error() string {
	if len(e.Offenders) == 0 {
		return "cannot assemble plan: " + e.Reason
	}
	return fmt.Sprintf("cannot assemble plan: %s (%s)", e.Reason, strings.Join(e.Offenders, ", "))
}

func (e *PlanAssemblyError) Unwrap() error { return ErrPlanAssembly }
