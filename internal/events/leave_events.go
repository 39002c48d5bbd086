package events

import "time"

const LeaveLifecycleTopic = "leaveit.leave.lifecycle.v1"

const (
	LeaveCreatedEventType  = "leave.created"
	LeaveApprovedEventType = "leave.approved"
	LeaveRejectedEventType = "leave.rejected"
)

// LeaveEvent is published for every state change of a leave request.
type LeaveEvent struct {
	EventType  string    `json:"eventType"`
	RequestID  string    `json:"requestId,omitempty"`
	LeaveID    string    `json:"leaveId"`
	EmployeeID string    `json:"employeeId"`
	FromDate   string    `json:"fromDate"`
	ToDate     string    `json:"toDate"`
	Days       int       `json:"days"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
}
