package guard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Skotchmaster/records/internal/errs"
	"github.com/Skotchmaster/records/internal/models"
)

type isAuthenticated struct{}

func IsAuthenticated() Predicate { return isAuthenticated{} }

func (isAuthenticated) Name() string { return "IsAuthenticated" }

func (isAuthenticated) Evaluate(_ context.Context, ev *Evaluation) Decision {
	if ev.Actor() == nil {
		return Denied(fmt.Errorf("%w: no actor", errs.ErrUnauthenticated))
	}
	return Allowed()
}

type hasAnyRole struct {
	name  string
	roles []models.Role
}

func HasRole(r models.Role) Predicate {
	return hasAnyRole{name: "HasRole(" + string(r) + ")", roles: []models.Role{r}}
}

func HasAnyRole(roles ...models.Role) Predicate {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return hasAnyRole{name: "HasAnyRole(" + strings.Join(names, ",") + ")", roles: slices.Clone(roles)}
}

func (p hasAnyRole) Name() string { return p.name }

func (p hasAnyRole) Evaluate(_ context.Context, ev *Evaluation) Decision {
	a := ev.Actor()
	if a == nil {
		return Denied(fmt.Errorf("%w: no actor", errs.ErrUnauthenticated))
	}
	if slices.Contains(p.roles, a.Role) {
		return Allowed()
	}
	return Denied(fmt.Errorf("%w: role %s may not %s", errs.ErrForbidden, a.Role, ev.Operation))
}

type isOwnerOf struct {
	kind EntityKind
}

// IsOwnerOf allows when the actor owns the request target of the given kind.
func IsOwnerOf(kind EntityKind) Predicate { return isOwnerOf{kind: kind} }

func (p isOwnerOf) Name() string { return "IsOwnerOf(" + string(p.kind) + ")" }

func (p isOwnerOf) Evaluate(ctx context.Context, ev *Evaluation) Decision {
	a := ev.Actor()
	if a == nil {
		return Denied(fmt.Errorf("%w: no actor", errs.ErrUnauthenticated))
	}
	owner, err := ev.Owner(ctx, p.kind)
	if err != nil {
		return Denied(err)
	}
	if owner != a.ID {
		return Denied(fmt.Errorf("%w: %s is not the owner", errs.ErrForbidden, a.ID))
	}
	return Allowed()
}

type roleAssignment struct{}

// RoleAssignment bounds the role an actor may hand out: admins any role,
// staff only staff or student.
func RoleAssignment() Predicate { return roleAssignment{} }

func (roleAssignment) Name() string { return "RoleAssignment" }

func (roleAssignment) Evaluate(_ context.Context, ev *Evaluation) Decision {
	requested := ev.Request.RequestedRole
	if requested == nil {
		return Allowed()
	}
	a := ev.Actor()
	if a == nil {
		return Denied(fmt.Errorf("%w: no actor", errs.ErrUnauthenticated))
	}
	if !requested.IsValid() {
		return Denied(fmt.Errorf("%w: unknown role %q", errs.ErrForbidden, *requested))
	}
	switch a.Role {
	case models.RoleAdmin:
		return Allowed()
	case models.RoleStaff:
		if *requested == models.RoleStaff || *requested == models.RoleStudent {
			return Allowed()
		}
	}
	return Denied(fmt.Errorf("%w: %s may not assign role %s", errs.ErrForbidden, a.Role, *requested))
}

type anyOf struct {
	preds []Predicate
}

// AnyOf allows as soon as one predicate allows. When none does, the most
// specific reason wins.
func AnyOf(preds ...Predicate) Predicate { return anyOf{preds: preds} }

func (p anyOf) Name() string {
	names := make([]string, len(p.preds))
	for i, q := range p.preds {
		if q == nil {
			names[i] = "nil"
			continue
		}
		names[i] = q.Name()
	}
	return "AnyOf(" + strings.Join(names, ",") + ")"
}

func (p anyOf) Evaluate(ctx context.Context, ev *Evaluation) Decision {
	if len(p.preds) == 0 {
		return Denied(fmt.Errorf("%w: empty AnyOf", errs.ErrConfiguration))
	}
	var best error
	for _, q := range p.preds {
		if err := ctx.Err(); err != nil {
			return Denied(err)
		}
		if q == nil {
			return Denied(fmt.Errorf("%w: nil predicate", errs.ErrConfiguration))
		}
		d := q.Evaluate(ctx, ev)
		if d.Allow {
			return d
		}
		if isContextErr(d.Reason) {
			return d
		}
		if best == nil || rank(d.Reason) > rank(best) {
			best = d.Reason
		}
	}
	return Denied(best)
}

func rank(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errs.ErrConfiguration):
		return 5
	case errors.Is(err, errs.ErrNotFound):
		return 3
	case errors.Is(err, errs.ErrUnauthenticated):
		return 2
	case errors.Is(err, errs.ErrForbidden):
		return 1
	default:
		// A failing resolver: the answer is unknown, not a denial.
		return 4
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// OwnerKinds lists the entity kinds p checks ownership of, composites included.
func OwnerKinds(p Predicate) []EntityKind {
	switch q := p.(type) {
	case isOwnerOf:
		return []EntityKind{q.kind}
	case anyOf:
		var out []EntityKind
		for _, c := range q.preds {
			out = append(out, OwnerKinds(c)...)
		}
		return out
	default:
		return nil
	}
}

func subPredicates(p Predicate) []Predicate {
	if q, ok := p.(anyOf); ok {
		return q.preds
	}
	return nil
}
