package policy

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/records/internal/errs"
	"github.com/Skotchmaster/records/internal/guard"
	"github.com/Skotchmaster/records/internal/models"
)

const (
	anon    = "-"
	student = "student"
	staff   = "staff"
	admin   = "admin"
)

// allowed lists, per operation, who may call it on a target they do not own.
var allowed = map[string][]string{
	AuthLogin:  {anon, student, staff, admin},
	AuthSignup: {staff},
	AuthLogout: {student, staff, admin},

	UsersList:           {staff},
	UsersDelete:         {admin},
	UsersUpdateRole:     {staff, admin},
	UsersUpdatePassword: {admin},

	StudentsCreate:    {staff},
	StudentsList:      {staff},
	StudentsGet:       {staff, admin},
	StudentsUpdate:    {staff},
	StudentsArchive:   {staff},
	StudentsUnarchive: {staff},

	StaffsCreate:    {admin},
	StaffsList:      {admin},
	StaffsGet:       {admin},
	StaffsUpdate:    {admin},
	StaffsArchive:   {admin},
	StaffsUnarchive: {admin},

	CoursesCreate:    {staff},
	CoursesList:      {student, staff, admin},
	CoursesGet:       {student, staff, admin},
	CoursesUpdate:    {staff},
	CoursesDelete:    {admin},
	CoursesArchive:   {staff},
	CoursesUnarchive: {staff},

	ModulesCreate:    {staff},
	ModulesList:      {student, staff, admin},
	ModulesGet:       {student, staff, admin},
	ModulesUpdate:    {staff},
	ModulesDelete:    {admin},
	ModulesArchive:   {staff},
	ModulesUnarchive: {staff},

	AssignmentsCreate:    {staff},
	AssignmentsList:      {student, staff, admin},
	AssignmentsGet:       {student, staff, admin},
	AssignmentsDelete:    {staff},
	AssignmentsArchive:   {staff},
	AssignmentsUnarchive: {staff},

	ResultsCreate:    {staff},
	ResultsList:      {staff},
	ResultsGet:       {staff, admin},
	ResultsUpdate:    {staff},
	ResultsDelete:    {admin},
	ResultsArchive:   {staff},
	ResultsUnarchive: {staff},

	TimetablesCreate:    {staff},
	TimetablesList:      {staff},
	TimetablesGet:       {staff},
	TimetablesUpdate:    {staff},
	TimetablesDelete:    {admin},
	TimetablesArchive:   {staff},
	TimetablesUnarchive: {staff},
	TimetablesPDF:       {staff},
}

// ownerAllowed are the operations a plain owner may perform on itself.
var ownerAllowed = map[string]bool{
	UsersUpdatePassword: true,
	StudentsGet:         true,
	StaffsGet:           true,
	ResultsGet:          true,
}

func testResolvers() guard.Resolvers {
	owners := map[string]string{"target": "target"}
	lookup := guard.OwnerResolverFunc(func(_ context.Context, id string) (string, error) {
		if o, ok := owners[id]; ok {
			return o, nil
		}
		return "", fmt.Errorf("%w: %s", errs.ErrNotFound, id)
	})
	return guard.Resolvers{guard.KindUser: lookup, guard.KindStudent: lookup, guard.KindStaff: lookup}
}

func newPipeline(t *testing.T) *guard.Pipeline {
	t.Helper()
	p, err := Pipeline(testResolvers())
	require.NoError(t, err)
	return p
}

func request(who, actorID, target string) *guard.Request {
	req := &guard.Request{Params: map[string]string{"id": target}}
	if who != anon {
		req.Actor = &guard.Actor{ID: actorID, Role: models.Role(who)}
	}
	return req
}

func TestCatalog_CoversEveryOperation(t *testing.T) {
	t.Parallel()
	cat := Catalog()
	assert.Len(t, cat, len(allowed))
	for op := range cat {
		_, ok := allowed[op]
		assert.True(t, ok, "operation %s has no expectation", op)
	}
	for op := range allowed {
		_, ok := cat[op]
		assert.True(t, ok, "operation %s missing from catalog", op)
	}
}

func TestCatalog_TruthTable(t *testing.T) {
	t.Parallel()
	p := newPipeline(t)
	ctx := context.Background()

	for op, who := range allowed {
		for _, caller := range []string{anon, student, staff, admin} {
			op, caller := op, caller
			allow := false
			for _, w := range who {
				allow = allow || w == caller
			}
			t.Run(op+"/"+caller, func(t *testing.T) {
				t.Parallel()
				err := p.Authorize(ctx, op, request(caller, "someone-else", "target"))
				switch {
				case allow:
					assert.NoError(t, err)
				case caller == anon:
					assert.ErrorIs(t, err, errs.ErrUnauthenticated)
				default:
					assert.ErrorIs(t, err, errs.ErrForbidden)
				}
			})
		}
	}
}

func TestCatalog_Owners(t *testing.T) {
	t.Parallel()
	p := newPipeline(t)
	ctx := context.Background()

	for op := range allowed {
		if strings.HasPrefix(op, "auth.") {
			continue
		}
		op := op
		t.Run(op, func(t *testing.T) {
			t.Parallel()
			err := p.Authorize(ctx, op, request(student, "target", "target"))
			if ownerAllowed[op] || contains(allowed[op], student) {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, errs.ErrForbidden)
			}
		})
	}
}

func TestCatalog_MissingTargetIsNotFoundForOwnerChecks(t *testing.T) {
	t.Parallel()
	p := newPipeline(t)
	ctx := context.Background()

	for op := range ownerAllowed {
		err := p.Authorize(ctx, op, request(student, "target", "gone"))
		assert.ErrorIs(t, err, errs.ErrNotFound, op)
	}

	assert.NoError(t, p.Authorize(ctx, UsersUpdatePassword, request(admin, "boss", "gone")))
}

func TestCatalog_RoleAssignment(t *testing.T) {
	t.Parallel()
	p := newPipeline(t)
	ctx := context.Background()

	withRole := func(who string, r models.Role) *guard.Request {
		req := request(who, "caller", "target")
		req.RequestedRole = &r
		return req
	}

	assert.NoError(t, p.Authorize(ctx, AuthSignup, withRole(staff, models.RoleStudent)))
	assert.NoError(t, p.Authorize(ctx, AuthSignup, withRole(staff, models.RoleStaff)))
	assert.ErrorIs(t, p.Authorize(ctx, AuthSignup, withRole(staff, models.RoleAdmin)), errs.ErrForbidden)
	assert.ErrorIs(t, p.Authorize(ctx, AuthSignup, withRole(admin, models.RoleStudent)), errs.ErrForbidden)

	assert.NoError(t, p.Authorize(ctx, UsersUpdateRole, withRole(admin, models.RoleAdmin)))
	assert.NoError(t, p.Authorize(ctx, UsersUpdateRole, withRole(staff, models.RoleStudent)))
	assert.ErrorIs(t, p.Authorize(ctx, UsersUpdateRole, withRole(staff, models.RoleAdmin)), errs.ErrForbidden)
	assert.ErrorIs(t, p.Authorize(ctx, UsersUpdateRole, withRole(student, models.RoleStudent)), errs.ErrForbidden)
}

func TestCatalog_FailsClosedWithoutResolvers(t *testing.T) {
	t.Parallel()
	_, err := Pipeline(guard.Resolvers{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
