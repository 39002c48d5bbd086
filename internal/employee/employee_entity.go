package employee

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
)

type Employee struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID         string    `gorm:"column:employee_id;uniqueIndex:uq_employees_employee_id;not null"`
	Name               string    `gorm:"not null"`
	Email              string    `gorm:"uniqueIndex:uq_employees_email;not null"`
	PasswordHash       string    `gorm:"column:password_hash;not null"`
	Role               string    `gorm:"not null;default:employee"`
	TotalLeavesPerYear int       `gorm:"column:total_leaves_per_year;not null"`
	LeavesTaken        int       `gorm:"column:leaves_taken;not null;default:0"`
	Version            int       `gorm:"not null;default:0"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (Employee) TableName() string {
	return "employees"
}

func (e *Employee) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// RemainingLeaves can go negative only if the entitlement was lowered after approvals.
func (e Employee) RemainingLeaves() int {
	return e.TotalLeavesPerYear - e.LeavesTaken
}

func IsValidRole(role string) bool {
	return role == RoleEmployee || role == RoleManager
}
