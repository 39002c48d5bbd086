package leave_test

import (
	"context"
	"time"

	"github.com/himanshukumarraut/Leave-It/internal/employee"
	"github.com/himanshukumarraut/Leave-It/internal/leave"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// decidingRepository approves a request right after the first list read
// returns, before the caller has cached what it read.
type decidingRepository struct {
	leave.Repository
	decide func()
}

func (r *decidingRepository) runDecide() {
	if r.decide != nil {
		decide := r.decide
		r.decide = nil
		decide()
	}
}

func (r *decidingRepository) FindAllByEmployee(ctx context.Context, employeeID string) ([]leave.LeaveRequest, error) {
	leaves, err := r.Repository.FindAllByEmployee(ctx, employeeID)
	r.runDecide()
	return leaves, err
}

func (r *decidingRepository) FindAllByStatus(ctx context.Context, status string) ([]leave.LeaveRequest, error) {
	leaves, err := r.Repository.FindAllByStatus(ctx, status)
	r.runDecide()
	return leaves, err
}

var _ = Describe("Leave read cache", func() {
	var (
		db        *gorm.DB
		mr        *miniredis.Miniredis
		repo      *decidingRepository
		svc       leave.Service
		request   *leave.LeaveRequest
		decideErr error
		ctx       context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		db = openTestDB()
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())

		mr, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

		employees := employee.NewRepository(db)
		Expect(employees.Create(ctx, &employee.Employee{
			EmployeeID:         "E1",
			Name:               "Jane Doe",
			Email:              "jane@example.com",
			PasswordHash:       "hash",
			Role:               employee.RoleEmployee,
			TotalLeavesPerYear: 20,
		})).To(Succeed())

		repo = &decidingRepository{Repository: leave.NewRepository(db)}
		request = newLeave("E1", "2024-01-01", "2024-01-05", time.Now().UTC())
		Expect(repo.Create(ctx, request)).To(Succeed())

		svc = leave.NewServiceWithOptions(sqlDB, repo, employees, leave.Options{Redis: rdb, CacheTTL: time.Minute})

		decideErr = nil
		repo.decide = func() {
			_, decideErr = svc.Decide(ctx, request.ID.String(), leave.ActionApprove)
		}
	})

	AfterEach(func() {
		mr.Close()
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	It("does not keep a summary read that raced an approval", func() {
		_, err := svc.GetEmployeeLeaves(ctx, "E1")
		Expect(err).NotTo(HaveOccurred())
		Expect(decideErr).NotTo(HaveOccurred())

		summary, err := svc.GetEmployeeLeaves(ctx, "E1")
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Employee.LeavesTaken).To(Equal(5))
		Expect(summary.Employee.LeavesRemaining).To(Equal(15))
		Expect(summary.Leaves).To(HaveLen(1))
		Expect(summary.Leaves[0].Status).To(Equal(leave.StatusApproved))
	})

	It("does not keep a pending list read that raced an approval", func() {
		_, err := svc.GetPending(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(decideErr).NotTo(HaveOccurred())

		pending, err := svc.GetPending(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(BeEmpty())
	})

	It("serves later reads from the cache once nothing changed", func() {
		repo.decide = nil

		first, err := svc.GetEmployeeLeaves(ctx, "E1")
		Expect(err).NotTo(HaveOccurred())
		Expect(mr.Exists(leave.GetEmployeeLeavesKey("E1"))).To(BeTrue())

		second, err := svc.GetEmployeeLeaves(ctx, "E1")
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(first))
	})
})
