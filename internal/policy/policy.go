// Package policy declares who may perform each operation of the service.
// Every entry is plain data evaluated by guard.Pipeline; handlers only name
// the operation they serve.
package policy

import (
	"github.com/Skotchmaster/records/internal/guard"
	"github.com/Skotchmaster/records/internal/models"
)

const (
	AuthLogin  = "auth.login"
	AuthSignup = "auth.signup"
	AuthLogout = "auth.logout"

	UsersList           = "users.list"
	UsersDelete         = "users.delete"
	UsersUpdateRole     = "users.update_role"
	UsersUpdatePassword = "users.update_password"

	StudentsCreate    = "students.create"
	StudentsList      = "students.list"
	StudentsGet       = "students.get"
	StudentsUpdate    = "students.update"
	StudentsArchive   = "students.archive"
	StudentsUnarchive = "students.unarchive"

	StaffsCreate    = "staffs.create"
	StaffsList      = "staffs.list"
	StaffsGet       = "staffs.get"
	StaffsUpdate    = "staffs.update"
	StaffsArchive   = "staffs.archive"
	StaffsUnarchive = "staffs.unarchive"

	CoursesCreate    = "courses.create"
	CoursesList      = "courses.list"
	CoursesGet       = "courses.get"
	CoursesUpdate    = "courses.update"
	CoursesDelete    = "courses.delete"
	CoursesArchive   = "courses.archive"
	CoursesUnarchive = "courses.unarchive"

	ModulesCreate    = "modules.create"
	ModulesList      = "modules.list"
	ModulesGet       = "modules.get"
	ModulesUpdate    = "modules.update"
	ModulesDelete    = "modules.delete"
	ModulesArchive   = "modules.archive"
	ModulesUnarchive = "modules.unarchive"

	AssignmentsCreate    = "assignments.create"
	AssignmentsList      = "assignments.list"
	AssignmentsGet       = "assignments.get"
	AssignmentsDelete    = "assignments.delete"
	AssignmentsArchive   = "assignments.archive"
	AssignmentsUnarchive = "assignments.unarchive"

	ResultsCreate    = "results.create"
	ResultsList      = "results.list"
	ResultsGet       = "results.get"
	ResultsUpdate    = "results.update"
	ResultsDelete    = "results.delete"
	ResultsArchive   = "results.archive"
	ResultsUnarchive = "results.unarchive"

	TimetablesCreate    = "timetables.create"
	TimetablesList      = "timetables.list"
	TimetablesGet       = "timetables.get"
	TimetablesUpdate    = "timetables.update"
	TimetablesDelete    = "timetables.delete"
	TimetablesArchive   = "timetables.archive"
	TimetablesUnarchive = "timetables.unarchive"
	TimetablesPDF       = "timetables.pdf"
)

func authenticated(preds ...guard.Predicate) []guard.Predicate {
	return append([]guard.Predicate{guard.IsAuthenticated()}, preds...)
}

func staffOnly() []guard.Predicate { return authenticated(guard.HasRole(models.RoleStaff)) }
func adminOnly() []guard.Predicate { return authenticated(guard.HasRole(models.RoleAdmin)) }

// Catalog returns a fresh copy of the access table.
func Catalog() guard.Catalog {
	return guard.Catalog{
		AuthLogin:  {},
		AuthSignup: authenticated(guard.HasRole(models.RoleStaff), guard.RoleAssignment()),
		AuthLogout: authenticated(),

		UsersList:           staffOnly(),
		UsersDelete:         adminOnly(),
		UsersUpdateRole:     authenticated(guard.HasAnyRole(models.RoleAdmin, models.RoleStaff), guard.RoleAssignment()),
		UsersUpdatePassword: authenticated(guard.AnyOf(guard.HasRole(models.RoleAdmin), guard.IsOwnerOf(guard.KindUser))),

		StudentsCreate:    staffOnly(),
		StudentsList:      staffOnly(),
		StudentsGet:       authenticated(guard.AnyOf(guard.HasAnyRole(models.RoleAdmin, models.RoleStaff), guard.IsOwnerOf(guard.KindStudent))),
		StudentsUpdate:    staffOnly(),
		StudentsArchive:   staffOnly(),
		StudentsUnarchive: staffOnly(),

		StaffsCreate:    adminOnly(),
		StaffsList:      adminOnly(),
		StaffsGet:       authenticated(guard.AnyOf(guard.HasRole(models.RoleAdmin), guard.IsOwnerOf(guard.KindStaff))),
		StaffsUpdate:    adminOnly(),
		StaffsArchive:   adminOnly(),
		StaffsUnarchive: adminOnly(),

		CoursesCreate:    staffOnly(),
		CoursesList:      authenticated(),
		CoursesGet:       authenticated(),
		CoursesUpdate:    staffOnly(),
		CoursesDelete:    adminOnly(),
		CoursesArchive:   staffOnly(),
		CoursesUnarchive: staffOnly(),

		ModulesCreate:    staffOnly(),
		ModulesList:      authenticated(),
		ModulesGet:       authenticated(),
		ModulesUpdate:    staffOnly(),
		ModulesDelete:    adminOnly(),
		ModulesArchive:   staffOnly(),
		ModulesUnarchive: staffOnly(),

		AssignmentsCreate:    staffOnly(),
		AssignmentsList:      authenticated(),
		AssignmentsGet:       authenticated(),
		AssignmentsDelete:    staffOnly(),
		AssignmentsArchive:   staffOnly(),
		AssignmentsUnarchive: staffOnly(),

		ResultsCreate:    staffOnly(),
		ResultsList:      staffOnly(),
		ResultsGet:       authenticated(guard.AnyOf(guard.HasAnyRole(models.RoleAdmin, models.RoleStaff), guard.IsOwnerOf(guard.KindUser))),
		ResultsUpdate:    staffOnly(),
		ResultsDelete:    adminOnly(),
		ResultsArchive:   staffOnly(),
		ResultsUnarchive: staffOnly(),

		TimetablesCreate:    staffOnly(),
		TimetablesList:      staffOnly(),
		TimetablesGet:       staffOnly(),
		TimetablesUpdate:    staffOnly(),
		TimetablesDelete:    adminOnly(),
		TimetablesArchive:   staffOnly(),
		TimetablesUnarchive: staffOnly(),
		TimetablesPDF:       staffOnly(),
	}
}

// Pipeline validates the catalog against resolvers and builds the evaluator.
func Pipeline(resolvers guard.Resolvers) (*guard.Pipeline, error) {
	return guard.NewPipeline(Catalog(), resolvers)
}
