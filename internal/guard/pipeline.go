package guard

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Skotchmaster/records/internal/errs"
	"github.com/Skotchmaster/records/internal/logging"
	"github.com/Skotchmaster/records/internal/metrics"
)

// Catalog maps an operation id to the predicates that must all allow it.
type Catalog map[string][]Predicate

// Validate reports catalog entries that could never be evaluated: empty
// operations, nil predicates or ownership checks nobody can resolve.
func (c Catalog) Validate(resolvers Resolvers) error {
	ops := make([]string, 0, len(c))
	for op := range c {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	var problems []error
	for _, op := range ops {
		if op == "" {
			problems = append(problems, fmt.Errorf("%w: empty operation id", errs.ErrConfiguration))
		}
		for i, p := range c[op] {
			if err := validatePredicate(p, resolvers); err != nil {
				problems = append(problems, fmt.Errorf("%s[%d]: %w", op, i, err))
			}
		}
	}
	return errors.Join(problems...)
}

func validatePredicate(p Predicate, resolvers Resolvers) error {
	if p == nil {
		return fmt.Errorf("%w: nil predicate", errs.ErrConfiguration)
	}
	if q, ok := p.(anyOf); ok && len(q.preds) == 0 {
		return fmt.Errorf("%w: empty AnyOf", errs.ErrConfiguration)
	}
	for _, sub := range subPredicates(p) {
		if err := validatePredicate(sub, resolvers); err != nil {
			return err
		}
	}
	for _, kind := range OwnerKinds(p) {
		if kind == "" {
			return fmt.Errorf("%w: %s has no entity kind", errs.ErrConfiguration, p.Name())
		}
		if !resolvers.Has(kind) {
			return fmt.Errorf("%w: %s has no resolver", errs.ErrConfiguration, p.Name())
		}
	}
	return nil
}

// Pipeline evaluates catalog entries. It holds no per-request state and is
// safe for concurrent use.
type Pipeline struct {
	catalog   Catalog
	resolvers Resolvers
}

func NewPipeline(catalog Catalog, resolvers Resolvers) (*Pipeline, error) {
	if err := catalog.Validate(resolvers); err != nil {
		return nil, err
	}
	return &Pipeline{catalog: catalog, resolvers: resolvers}, nil
}

// Authorize returns nil when op is allowed for req, otherwise the reason.
func (p *Pipeline) Authorize(ctx context.Context, op string, req *Request) error {
	d := p.Decide(ctx, op, req)
	if d.Allow {
		return nil
	}
	return d.Reason
}

func (p *Pipeline) Decide(ctx context.Context, op string, req *Request) Decision {
	d := p.evaluate(ctx, NewEvaluation(op, req, p.resolvers))
	if !d.Allow && d.Reason == nil {
		d.Reason = fmt.Errorf("%w: %s", errs.ErrForbidden, op)
	}
	p.record(ctx, op, req, d)
	return d
}

func (p *Pipeline) evaluate(ctx context.Context, ev *Evaluation) Decision {
	preds, ok := p.catalog[ev.Operation]
	if !ok {
		return Denied(fmt.Errorf("%w: unknown operation %q", errs.ErrConfiguration, ev.Operation))
	}
	for _, pred := range preds {
		if err := ctx.Err(); err != nil {
			return Denied(err)
		}
		if pred == nil {
			return Denied(fmt.Errorf("%w: nil predicate in %s", errs.ErrConfiguration, ev.Operation))
		}
		if d := pred.Evaluate(ctx, ev); !d.Allow {
			return d
		}
	}
	if err := ctx.Err(); err != nil {
		return Denied(err)
	}
	return Allowed()
}

func (p *Pipeline) record(ctx context.Context, op string, req *Request, d Decision) {
	outcome := Outcome(d)
	metrics.GuardDecisions.WithLabelValues(op, outcome).Inc()

	l := logging.FromContext(ctx).With("operation", op, "outcome", outcome)
	if req != nil && req.Actor != nil {
		l = l.With("actor_id", req.Actor.ID, "actor_role", string(req.Actor.Role))
	}
	switch {
	case d.Allow:
		l.Debug("guard_decision")
	case errors.Is(d.Reason, errs.ErrConfiguration):
		l.Error("guard_decision", "error", d.Reason)
	default:
		l.Info("guard_decision", "reason", d.Reason.Error())
	}
}

// Outcome is the metric label of a decision.
func Outcome(d Decision) string {
	if d.Allow {
		return "allow"
	}
	switch {
	case errors.Is(d.Reason, errs.ErrConfiguration):
		return "configuration_error"
	case errors.Is(d.Reason, errs.ErrNotFound):
		return "not_found"
	case errors.Is(d.Reason, errs.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(d.Reason, errs.ErrForbidden):
		return "forbidden"
	case isContextErr(d.Reason):
		return "canceled"
	default:
		return "error"
	}
}
