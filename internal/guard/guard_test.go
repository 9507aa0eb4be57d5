package guard

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/records/internal/errs"
	"github.com/Skotchmaster/records/internal/models"
)

type countingResolver struct {
	owners map[string]string
	calls  atomic.Int32
	err    error
}

func (r *countingResolver) ResolveOwner(_ context.Context, id string) (string, error) {
	r.calls.Add(1)
	if r.err != nil {
		return "", r.err
	}
	owner, ok := r.owners[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", errs.ErrNotFound, id)
	}
	return owner, nil
}

type spy struct {
	name  string
	d     Decision
	calls atomic.Int32
}

func (s *spy) Name() string { return s.name }

func (s *spy) Evaluate(context.Context, *Evaluation) Decision {
	s.calls.Add(1)
	return s.d
}

func role(r models.Role) *models.Role { return &r }

func actor(id string, r models.Role) *Actor { return &Actor{ID: id, Role: r} }

func eval(req *Request, resolvers Resolvers) *Evaluation {
	return NewEvaluation("test.op", req, resolvers)
}

func TestPredicates(t *testing.T) {
	t.Parallel()
	users := &countingResolver{owners: map[string]string{"u-1": "u-1", "u-2": "u-2"}}
	resolvers := Resolvers{KindUser: users}

	tests := []struct {
		name string
		pred Predicate
		req  *Request
		want error
	}{
		{"authenticated", IsAuthenticated(), &Request{Actor: actor("u-1", models.RoleStudent)}, nil},
		{"anonymous", IsAuthenticated(), &Request{}, errs.ErrUnauthenticated},
		{"role match", HasRole(models.RoleStaff), &Request{Actor: actor("u", models.RoleStaff)}, nil},
		{"admin is not staff", HasRole(models.RoleStaff), &Request{Actor: actor("u", models.RoleAdmin)}, errs.ErrForbidden},
		{"role without actor", HasRole(models.RoleStaff), &Request{}, errs.ErrUnauthenticated},
		{"any role match", HasAnyRole(models.RoleAdmin, models.RoleStaff), &Request{Actor: actor("u", models.RoleAdmin)}, nil},
		{"any role miss", HasAnyRole(models.RoleAdmin, models.RoleStaff), &Request{Actor: actor("u", models.RoleStudent)}, errs.ErrForbidden},
		{"owner", IsOwnerOf(KindUser), &Request{Actor: actor("u-1", models.RoleStudent), Params: map[string]string{"id": "u-1"}}, nil},
		{"not owner", IsOwnerOf(KindUser), &Request{Actor: actor("u-1", models.RoleStudent), Params: map[string]string{"id": "u-2"}}, errs.ErrForbidden},
		{"owner target missing", IsOwnerOf(KindUser), &Request{Actor: actor("u-1", models.RoleStudent), Params: map[string]string{"id": "nope"}}, errs.ErrNotFound},
		{"owner no target param", IsOwnerOf(KindUser), &Request{Actor: actor("u-1", models.RoleStudent)}, errs.ErrNotFound},
		{"owner unregistered kind", IsOwnerOf(KindStaff), &Request{Actor: actor("u-1", models.RoleStaff), Params: map[string]string{"id": "1"}}, errs.ErrConfiguration},
		{"owner empty kind", IsOwnerOf(""), &Request{Actor: actor("u-1", models.RoleStaff), Params: map[string]string{"id": "1"}}, errs.ErrConfiguration},
		{"assign nothing", RoleAssignment(), &Request{Actor: actor("u", models.RoleStudent)}, nil},
		{"admin assigns admin", RoleAssignment(), &Request{Actor: actor("u", models.RoleAdmin), RequestedRole: role(models.RoleAdmin)}, nil},
		{"staff assigns student", RoleAssignment(), &Request{Actor: actor("u", models.RoleStaff), RequestedRole: role(models.RoleStudent)}, nil},
		{"staff assigns staff", RoleAssignment(), &Request{Actor: actor("u", models.RoleStaff), RequestedRole: role(models.RoleStaff)}, nil},
		{"staff assigns admin", RoleAssignment(), &Request{Actor: actor("u", models.RoleStaff), RequestedRole: role(models.RoleAdmin)}, errs.ErrForbidden},
		{"student assigns student", RoleAssignment(), &Request{Actor: actor("u", models.RoleStudent), RequestedRole: role(models.RoleStudent)}, errs.ErrForbidden},
		{"admin assigns unknown", RoleAssignment(), &Request{Actor: actor("u", models.RoleAdmin), RequestedRole: role("root")}, errs.ErrForbidden},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := tt.pred.Evaluate(context.Background(), eval(tt.req, resolvers))
			if tt.want == nil {
				assert.True(t, d.Allow, "reason: %v", d.Reason)
				return
			}
			assert.False(t, d.Allow)
			assert.ErrorIs(t, d.Reason, tt.want)
		})
	}
}

func TestAnyOf_ShortCircuits(t *testing.T) {
	t.Parallel()
	first := &spy{name: "first", d: Allowed()}
	second := &spy{name: "second", d: Allowed()}

	d := AnyOf(first, second).Evaluate(context.Background(), eval(&Request{}, nil))
	assert.True(t, d.Allow)
	assert.EqualValues(t, 1, first.calls.Load())
	assert.EqualValues(t, 0, second.calls.Load())
}

func TestAnyOf_ReasonPriority(t *testing.T) {
	t.Parallel()
	deny := func(err error) Predicate { return &spy{name: err.Error(), d: Denied(err)} }

	tests := []struct {
		name  string
		preds []Predicate
		want  error
	}{
		{"forbidden only", []Predicate{deny(errs.ErrForbidden), deny(errs.ErrForbidden)}, errs.ErrForbidden},
		{"unauthenticated over forbidden", []Predicate{deny(errs.ErrForbidden), deny(errs.ErrUnauthenticated)}, errs.ErrUnauthenticated},
		{"not found over unauthenticated", []Predicate{deny(errs.ErrUnauthenticated), deny(errs.ErrNotFound), deny(errs.ErrForbidden)}, errs.ErrNotFound},
		{"configuration over all", []Predicate{deny(errs.ErrNotFound), deny(errs.ErrConfiguration), deny(errs.ErrForbidden)}, errs.ErrConfiguration},
	}
	for _, tt := range tests {
		d := AnyOf(tt.preds...).Evaluate(context.Background(), eval(&Request{}, nil))
		assert.False(t, d.Allow, tt.name)
		assert.ErrorIs(t, d.Reason, tt.want, tt.name)
	}
}

func TestAnyOf_AdminOrOwner(t *testing.T) {
	t.Parallel()
	users := &countingResolver{owners: map[string]string{"u-1": "u-1"}}
	resolvers := Resolvers{KindUser: users}
	pred := AnyOf(HasRole(models.RoleAdmin), IsOwnerOf(KindUser))

	d := pred.Evaluate(context.Background(), eval(&Request{Actor: actor("u-1", models.RoleStudent), Params: map[string]string{"id": "u-1"}}, resolvers))
	assert.True(t, d.Allow)

	d = pred.Evaluate(context.Background(), eval(&Request{Actor: actor("u-9", models.RoleStudent), Params: map[string]string{"id": "missing"}}, resolvers))
	assert.ErrorIs(t, d.Reason, errs.ErrNotFound)

	before := users.calls.Load()
	d = pred.Evaluate(context.Background(), eval(&Request{Actor: actor("boss", models.RoleAdmin), Params: map[string]string{"id": "missing"}}, resolvers))
	assert.True(t, d.Allow)
	assert.Equal(t, before, users.calls.Load(), "admin check must short-circuit before resolution")
}

func TestEvaluation_MemoizesOwner(t *testing.T) {
	t.Parallel()
	users := &countingResolver{owners: map[string]string{"u-1": "u-1"}}
	ev := eval(&Request{Actor: actor("u-1", models.RoleStudent), Params: map[string]string{"id": "u-1"}}, Resolvers{KindUser: users})

	for i := 0; i < 3; i++ {
		d := IsOwnerOf(KindUser).Evaluate(context.Background(), ev)
		require.True(t, d.Allow)
	}
	assert.EqualValues(t, 1, users.calls.Load())
}

func TestEvaluation_MemoizesNotFound(t *testing.T) {
	t.Parallel()
	users := &countingResolver{owners: map[string]string{}}
	ev := eval(&Request{Actor: actor("u-1", models.RoleStudent), Params: map[string]string{"id": "x"}}, Resolvers{KindUser: users})

	_, err := ev.Owner(context.Background(), KindUser)
	require.ErrorIs(t, err, errs.ErrNotFound)
	_, err = ev.Owner(context.Background(), KindUser)
	require.ErrorIs(t, err, errs.ErrNotFound)
	assert.EqualValues(t, 1, users.calls.Load())
}

func TestEvaluation_PreResolvedOwner(t *testing.T) {
	t.Parallel()
	users := &countingResolver{}
	req := &Request{
		Actor:  actor("u-1", models.RoleStudent),
		Params: map[string]string{"id": "u-1"},
		Owners: map[EntityKind]string{KindUser: "u-1"},
	}
	d := IsOwnerOf(KindUser).Evaluate(context.Background(), eval(req, Resolvers{KindUser: users}))
	assert.True(t, d.Allow)
	assert.EqualValues(t, 0, users.calls.Load())
}

func testCatalog() Catalog {
	return Catalog{
		"open":        {},
		"staff.only":  {IsAuthenticated(), HasRole(models.RoleStaff)},
		"owner.or.ad": {IsAuthenticated(), AnyOf(HasRole(models.RoleAdmin), IsOwnerOf(KindUser))},
	}
}

func TestPipeline_Authorize(t *testing.T) {
	t.Parallel()
	users := &countingResolver{owners: map[string]string{"u-1": "u-1"}}
	p, err := NewPipeline(testCatalog(), Resolvers{KindUser: users})
	require.NoError(t, err)
	ctx := context.Background()

	assert.NoError(t, p.Authorize(ctx, "open", nil))
	assert.NoError(t, p.Authorize(ctx, "staff.only", &Request{Actor: actor("s", models.RoleStaff)}))
	assert.ErrorIs(t, p.Authorize(ctx, "staff.only", &Request{}), errs.ErrUnauthenticated)
	assert.ErrorIs(t, p.Authorize(ctx, "staff.only", &Request{Actor: actor("a", models.RoleAdmin)}), errs.ErrForbidden)
	assert.ErrorIs(t, p.Authorize(ctx, "unknown.op", &Request{Actor: actor("a", models.RoleAdmin)}), errs.ErrConfiguration)
	assert.NoError(t, p.Authorize(ctx, "owner.or.ad", &Request{Actor: actor("u-1", models.RoleStudent), Params: map[string]string{"id": "u-1"}}))
}

func TestPipeline_FirstDenyStops(t *testing.T) {
	t.Parallel()
	after := &spy{name: "after", d: Allowed()}
	p, err := NewPipeline(Catalog{"op": {IsAuthenticated(), after}}, nil)
	require.NoError(t, err)

	err = p.Authorize(context.Background(), "op", &Request{})
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)
	assert.EqualValues(t, 0, after.calls.Load())
}

func TestPipeline_CanceledContext(t *testing.T) {
	t.Parallel()
	p, err := NewPipeline(testCatalog(), Resolvers{KindUser: &countingResolver{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = p.Authorize(ctx, "open", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, errs.Kind(err))
}

func TestPipeline_ResolverFailureIsNotAnAllow(t *testing.T) {
	t.Parallel()
	boom := errors.New("db down")
	p, err := NewPipeline(testCatalog(), Resolvers{KindUser: &countingResolver{err: boom}})
	require.NoError(t, err)

	err = p.Authorize(context.Background(), "owner.or.ad", &Request{Actor: actor("u-1", models.RoleStaff), Params: map[string]string{"id": "u-1"}})
	assert.ErrorIs(t, err, boom)
}

func TestCatalog_Validate(t *testing.T) {
	t.Parallel()
	resolvers := Resolvers{KindUser: &countingResolver{}}

	require.NoError(t, testCatalog().Validate(resolvers))

	bad := Catalog{
		"a": {IsOwnerOf(KindStudent)},
		"b": {AnyOf()},
		"c": {nil},
		"d": {AnyOf(HasRole(models.RoleAdmin), IsOwnerOf(""))},
	}
	err := bad.Validate(resolvers)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrConfiguration)
	for _, op := range []string{"a[0]", "b[0]", "c[0]", "d[0]"} {
		assert.Contains(t, err.Error(), op)
	}

	_, err = NewPipeline(bad, resolvers)
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestOutcome(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "allow", Outcome(Allowed()))
	assert.Equal(t, "forbidden", Outcome(Denied(errs.ErrForbidden)))
	assert.Equal(t, "not_found", Outcome(Denied(fmt.Errorf("%w: x", errs.ErrNotFound))))
	assert.Equal(t, "configuration_error", Outcome(Denied(errs.ErrConfiguration)))
	assert.Equal(t, "canceled", Outcome(Denied(context.Canceled)))
}
