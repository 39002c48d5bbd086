package leave

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

type LeaveRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID string    `gorm:"column:employee_id;type:varchar(100);not null;index:idx_leave_requests_employee_created"`
	FromDate   time.Time `gorm:"column:from_date;not null"`
	ToDate     time.Time `gorm:"column:to_date;not null"`
	Reason     string    `gorm:"type:text;not null"`
	Status     string    `gorm:"type:varchar(20);not null;default:pending;index:idx_leave_requests_status_created"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DecidedAt *time.Time
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

func (l *LeaveRequest) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

func (l LeaveRequest) Days() int {
	return CountDays(l.FromDate, l.ToDate)
}
