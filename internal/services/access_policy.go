package services

import (
	"context"
	"fmt"

	"github.com/Abdul-Ahad2004/student-management-service/internal/models"
	"github.com/Abdul-Ahad2004/student-management-service/internal/repositories"
)

// AccessPolicy is the stateless predicate evaluator over
// (actor, action, target). It checks identity and role only; timing rules
// such as the drop window belong to the enrollment state machine.
type AccessPolicy struct {
	repo repositories.Repository
}

func NewAccessPolicy(repo repositories.Repository) *AccessPolicy {
	return &AccessPolicy{repo: repo}
}

// CanManageUsers gates user creation and the full user listing.
func (p *AccessPolicy) CanManageUsers(actor Actor) bool {
	return actor.Role == models.RoleAdmin
}

// CanViewUser allows owners and admins to read a user record.
func (p *AccessPolicy) CanViewUser(actor Actor, targetID string) bool {
	return actor.Role == models.RoleAdmin || actor.ID == targetID
}

// CanUpdateTeacher allows admins and the teacher themself.
func (p *AccessPolicy) CanUpdateTeacher(actor Actor, teacherID string) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	return actor.Role == models.RoleTeacher && actor.ID == teacherID
}

// CanViewStudent allows admins, the student themself, and teachers whose
// courses the student is actively enrolled in.
func (p *AccessPolicy) CanViewStudent(ctx context.Context, actor Actor, studentID string) (bool, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return true, nil
	case models.RoleStudent:
		return actor.ID == studentID, nil
	case models.RoleTeacher:
		teacherID := actor.ID
		students, _, err := p.repo.Student().ListByTeacher(ctx, teacherID, repositories.ProfileFilters{})
		if err != nil {
			return false, fmt.Errorf("failed to resolve teacher's students: %w", err)
		}
		for _, s := range students {
			if s.UserID == studentID {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, nil
	}
}

// CanUpdateStudent allows admins and the student themself.
func (p *AccessPolicy) CanUpdateStudent(actor Actor, studentID string) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	return actor.Role == models.RoleStudent && actor.ID == studentID
}

// CanManageCourses gates course create, update and delete.
func (p *AccessPolicy) CanManageCourses(actor Actor) bool {
	return actor.Role == models.RoleAdmin
}

// CanViewCourse allows admins, the assigned teacher, and students with an
// ACTIVE enrollment in the course.
func (p *AccessPolicy) CanViewCourse(ctx context.Context, actor Actor, course *models.Course) (bool, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return true, nil
	case models.RoleTeacher:
		return isAssignedTeacher(actor, course), nil
	case models.RoleStudent:
		active, err := p.repo.Enrollment().HasActive(ctx, actor.ID, course.ID)
		if err != nil {
			return false, fmt.Errorf("failed to check enrollment: %w", err)
		}
		return active, nil
	default:
		return false, nil
	}
}

// CanViewCourseRoster allows admins and the assigned teacher.
func (p *AccessPolicy) CanViewCourseRoster(actor Actor, course *models.Course) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	return isAssignedTeacher(actor, course)
}

// CanCreateEnrollment allows admins and the assigned teacher. Students
// are denied at reachability: they never create enrollments.
func (p *AccessPolicy) CanCreateEnrollment(actor Actor, course *models.Course) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	return isAssignedTeacher(actor, course)
}

// CanViewEnrollment allows admins, the owning student, and the teacher
// assigned to the enrollment's course.
func (p *AccessPolicy) CanViewEnrollment(actor Actor, enrollment *models.Enrollment) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleStudent:
		return actor.ID == enrollment.StudentID
	case models.RoleTeacher:
		return isAssignedTeacher(actor, &enrollment.Course)
	default:
		return false
	}
}

// CanDropEnrollment checks identity and role for the drop transition.
// The seven-day student window is enforced by the state machine, not here.
func (p *AccessPolicy) CanDropEnrollment(actor Actor, enrollment *models.Enrollment) bool {
	return p.CanViewEnrollment(actor, enrollment)
}

func isAssignedTeacher(actor Actor, course *models.Course) bool {
	if actor.Role != models.RoleTeacher || course.TeacherID == nil {
		return false
	}
	return *course.TeacherID == actor.ID
}
