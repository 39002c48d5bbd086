package leave

type CreateLeaveRequest struct {
	EmployeeID string `json:"employeeId" binding:"required,max=100"`
	FromDate   string `json:"fromDate" binding:"required"`
	ToDate     string `json:"toDate" binding:"required"`
	Reason     string `json:"reason" binding:"required,max=1000"`
}

type DecideLeaveRequest struct {
	Action string `json:"action" binding:"required,oneof=approve reject"`
}

type LeaveResponse struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employeeId"`
	FromDate   string  `json:"fromDate"`
	ToDate     string  `json:"toDate"`
	Days       int     `json:"days"`
	Reason     string  `json:"reason"`
	Status     string  `json:"status"`
	CreatedAt  string  `json:"createdAt"`
	UpdatedAt  string  `json:"updatedAt"`
	DecidedAt  *string `json:"decidedAt,omitempty"`
}

type EmployeeSummary struct {
	EmployeeID         string `json:"employeeId"`
	Name               string `json:"name"`
	TotalLeavesPerYear int    `json:"totalLeavesPerYear"`
	LeavesTaken        int    `json:"leavesTaken"`
	LeavesRemaining    int    `json:"leavesRemaining"`
}

type EmployeeLeavesResponse struct {
	Employee EmployeeSummary `json:"employee"`
	Leaves   []LeaveResponse `json:"leaves"`
}
