package leave_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/himanshukumarraut/Leave-It/internal/auth"
	"github.com/himanshukumarraut/Leave-It/internal/employee"
	"github.com/himanshukumarraut/Leave-It/internal/leave"
	"github.com/himanshukumarraut/Leave-It/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var _ = Describe("Leave lifecycle over HTTP", func() {
	var (
		db     *gorm.DB
		router *gin.Engine
	)

	call := func(method, path string, body any) (int, apiEnvelope) {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var env apiEnvelope
		Expect(json.Unmarshal(w.Body.Bytes(), &env)).To(Succeed())
		return w.Code, env
	}

	summaryOf := func(employeeID string) leave.EmployeeLeavesResponse {
		code, env := call(http.MethodGet, "/api/leaves/employee/"+employeeID, nil)
		Expect(code).To(Equal(http.StatusOK))
		var resp leave.EmployeeLeavesResponse
		Expect(json.Unmarshal(env.Data, &resp)).To(Succeed())
		return resp
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		apperror.Init()

		db = openTestDB()
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())

		employees := employee.NewRepository(db)
		authService := auth.NewService(employees, auth.NewTokenManager("flow-secret", 0), auth.Options{
			BCryptCost:         bcrypt.MinCost,
			DefaultEntitlement: 20,
		})
		leaveService := leave.NewService(sqlDB, leave.NewRepository(db), employees)

		router = gin.New()
		api := router.Group("/api")
		auth.RegisterRoutes(api, auth.NewHandler(authService, false))
		leave.RegisterRoutes(api, leave.NewHandler(leaveService), leave.RouteOptions{})

		code, _ := call(http.MethodPost, "/api/auth/register", map[string]string{
			"employeeId": "E1",
			"name":       "Jane Doe",
			"email":      "jane@example.com",
			"password":   "secret123",
		})
		Expect(code).To(Equal(http.StatusCreated))
	})

	AfterEach(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	fileLeave := func(from, to string) (int, apiEnvelope) {
		return call(http.MethodPost, "/api/leaves", map[string]string{
			"employeeId": "E1",
			"fromDate":   from,
			"toDate":     to,
			"reason":     "family trip",
		})
	}

	It("debits the balance once a request is approved", func() {
		code, env := fileLeave("2024-01-01", "2024-01-05")
		Expect(code).To(Equal(http.StatusCreated))
		var created leave.LeaveResponse
		Expect(json.Unmarshal(env.Data, &created)).To(Succeed())
		Expect(created.Days).To(Equal(5))
		Expect(created.Status).To(Equal(leave.StatusPending))

		Expect(summaryOf("E1").Employee.LeavesTaken).To(Equal(0))

		code, env = call(http.MethodGet, "/api/leaves/pending", nil)
		Expect(code).To(Equal(http.StatusOK))
		var pending []leave.LeaveResponse
		Expect(json.Unmarshal(env.Data, &pending)).To(Succeed())
		Expect(pending).To(HaveLen(1))
		Expect(pending[0].ID).To(Equal(created.ID))

		code, _ = call(http.MethodPatch, "/api/leaves/"+created.ID, map[string]string{"action": "approve"})
		Expect(code).To(Equal(http.StatusOK))

		summary := summaryOf("E1")
		Expect(summary.Employee.LeavesTaken).To(Equal(5))
		Expect(summary.Employee.LeavesRemaining).To(Equal(15))
		Expect(summary.Leaves).To(HaveLen(1))
		Expect(summary.Leaves[0].Status).To(Equal(leave.StatusApproved))
		Expect(summary.Leaves[0].DecidedAt).NotTo(BeNil())

		code, env = call(http.MethodPatch, "/api/leaves/"+created.ID, map[string]string{"action": "reject"})
		Expect(code).To(Equal(http.StatusBadRequest))
		Expect(env.Error.Code).To(Equal(apperror.CodeAlreadyProcessed))
	})

	It("keeps the balance when a request is rejected", func() {
		_, env := fileLeave("2024-03-01", "2024-03-03")
		var created leave.LeaveResponse
		Expect(json.Unmarshal(env.Data, &created)).To(Succeed())

		code, _ := call(http.MethodPatch, "/api/leaves/"+created.ID, map[string]string{"action": "reject"})
		Expect(code).To(Equal(http.StatusOK))

		summary := summaryOf("E1")
		Expect(summary.Employee.LeavesTaken).To(Equal(0))
		Expect(summary.Leaves[0].Status).To(Equal(leave.StatusRejected))
	})

	It("refuses a request larger than the remaining balance", func() {
		code, env := fileLeave("2024-01-01", "2024-01-25")
		Expect(code).To(Equal(http.StatusBadRequest))
		Expect(env.Error.Code).To(Equal(apperror.CodeInsufficientBalance))
		Expect(summaryOf("E1").Leaves).To(BeEmpty())
	})

	It("re-checks the balance at approval time", func() {
		_, env := fileLeave("2024-01-01", "2024-01-15")
		var first leave.LeaveResponse
		Expect(json.Unmarshal(env.Data, &first)).To(Succeed())

		_, env = fileLeave("2024-02-01", "2024-02-10")
		var second leave.LeaveResponse
		Expect(json.Unmarshal(env.Data, &second)).To(Succeed())

		code, _ := call(http.MethodPatch, "/api/leaves/"+first.ID, map[string]string{"action": "approve"})
		Expect(code).To(Equal(http.StatusOK))

		code, env = call(http.MethodPatch, "/api/leaves/"+second.ID, map[string]string{"action": "approve"})
		Expect(code).To(Equal(http.StatusBadRequest))
		Expect(env.Error.Code).To(Equal(apperror.CodeInsufficientBalance))

		summary := summaryOf("E1")
		Expect(summary.Employee.LeavesTaken).To(Equal(15))
		for _, l := range summary.Leaves {
			if l.ID == second.ID {
				Expect(l.Status).To(Equal(leave.StatusPending))
			}
		}
	})
})
