// Package guard decides whether an actor may perform an operation.
//
// A policy is an ordered list of predicates that are all required to allow.
// Predicates read the request and, for ownership checks, resolve the owner of
// the target entity through a registered resolver. Resolution happens at most
// once per entity kind per evaluation and never writes.
package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/records/internal/errs"
	"github.com/Skotchmaster/records/internal/models"
)

type Actor struct {
	ID    string
	Email string
	Role  models.Role
}

type EntityKind string

const (
	KindUser    EntityKind = "user"
	KindStudent EntityKind = "student"
	KindStaff   EntityKind = "staff"
)

// TargetParam is the path parameter naming the target entity.
const TargetParam = "id"

// Request is everything a policy may look at. Owners lets a caller that
// already loaded the target pass its owner id and skip resolution.
type Request struct {
	Actor         *Actor
	Params        map[string]string
	RequestedRole *models.Role
	Owners        map[EntityKind]string
}

func (r *Request) Param(name string) string {
	if r == nil || r.Params == nil {
		return ""
	}
	return r.Params[name]
}

type Decision struct {
	Allow  bool
	Reason error
}

func Allowed() Decision { return Decision{Allow: true} }

func Denied(reason error) Decision { return Decision{Reason: reason} }

type Predicate interface {
	Name() string
	Evaluate(ctx context.Context, ev *Evaluation) Decision
}

// OwnerResolver returns the user id owning the entity with the given id, or
// an error wrapping errs.ErrNotFound when there is no such entity.
type OwnerResolver interface {
	ResolveOwner(ctx context.Context, id string) (string, error)
}

type OwnerResolverFunc func(ctx context.Context, id string) (string, error)

func (f OwnerResolverFunc) ResolveOwner(ctx context.Context, id string) (string, error) {
	return f(ctx, id)
}

type Resolvers map[EntityKind]OwnerResolver

type ownerResult struct {
	owner string
	err   error
}

// Evaluation is the state of one authorization decision.
type Evaluation struct {
	Operation string
	Request   *Request

	resolvers Resolvers
	owners    map[EntityKind]ownerResult
}

func NewEvaluation(op string, req *Request, resolvers Resolvers) *Evaluation {
	if req == nil {
		req = &Request{}
	}
	return &Evaluation{
		Operation: op,
		Request:   req,
		resolvers: resolvers,
		owners:    make(map[EntityKind]ownerResult),
	}
}

func (ev *Evaluation) Actor() *Actor { return ev.Request.Actor }

// Owner resolves the owner of the request target for kind. Results, errors
// included, are memoized for the rest of the evaluation.
func (ev *Evaluation) Owner(ctx context.Context, kind EntityKind) (string, error) {
	if kind == "" {
		return "", fmt.Errorf("%w: ownership check without an entity kind", errs.ErrConfiguration)
	}
	if owner, ok := ev.Request.Owners[kind]; ok {
		return owner, nil
	}
	if res, ok := ev.owners[kind]; ok {
		return res.owner, res.err
	}

	resolver, ok := ev.resolvers[kind]
	if !ok || resolver == nil {
		return "", fmt.Errorf("%w: no owner resolver for %q", errs.ErrConfiguration, kind)
	}

	var res ownerResult
	target := ev.Request.Param(TargetParam)
	if target == "" {
		res.err = fmt.Errorf("%w: %s target", errs.ErrNotFound, kind)
	} else {
		res.owner, res.err = resolver.ResolveOwner(ctx, target)
		if res.err == nil && res.owner == "" {
			res.err = fmt.Errorf("%w: %s %s has no owner", errs.ErrNotFound, kind, target)
		}
	}
	// Cancellation is not a property of the target.
	if res.err != nil && (errors.Is(res.err, context.Canceled) || errors.Is(res.err, context.DeadlineExceeded)) {
		return "", res.err
	}
	ev.owners[kind] = res
	return res.owner, res.err
}

// Has reports whether a resolver is registered for kind.
func (r Resolvers) Has(kind EntityKind) bool {
	res, ok := r[kind]
	return ok && res != nil
}
