package rbac

const ResourceLeave = "leave"

const (
	ActionCreate      = "create"
	ActionReadOwn     = "read_own"
	ActionReadPending = "read_pending"
	ActionDecide      = "decide"
)

type EnforceRequest struct {
	Role     string `json:"role"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}
