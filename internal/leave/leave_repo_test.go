package leave_test

import (
	"context"
	"time"

	"github.com/himanshukumarraut/Leave-It/internal/employee"
	"github.com/himanshukumarraut/Leave-It/internal/leave"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	Expect(err).NotTo(HaveOccurred())

	sqlDB, err := db.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlDB.SetMaxOpenConns(1)

	Expect(db.AutoMigrate(&employee.Employee{}, &leave.LeaveRequest{})).To(Succeed())
	return db
}

func newLeave(employeeID, from, to string, createdAt time.Time) *leave.LeaveRequest {
	return &leave.LeaveRequest{
		EmployeeID: employeeID,
		FromDate:   date(from),
		ToDate:     date(to),
		Reason:     "vacation",
		Status:     leave.StatusPending,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

var _ = Describe("Leave Repository", func() {
	var (
		db   *gorm.DB
		repo leave.Repository
		ctx  context.Context
		base time.Time
	)

	BeforeEach(func() {
		db = openTestDB()
		repo = leave.NewRepository(db)
		ctx = context.Background()
		base = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	})

	AfterEach(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	Describe("Create and FindByID", func() {
		It("round-trips a request", func() {
			l := newLeave("E1", "2024-01-01", "2024-01-05", base)
			Expect(repo.Create(ctx, l)).To(Succeed())
			Expect(l.ID).NotTo(Equal(uuid.Nil))

			found, err := repo.FindByID(ctx, l.ID.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(found.EmployeeID).To(Equal("E1"))
			Expect(found.Status).To(Equal(leave.StatusPending))
			Expect(found.Days()).To(Equal(5))
			Expect(found.DecidedAt).To(BeNil())
		})

		It("reports a missing id as record not found", func() {
			_, err := repo.FindByID(ctx, uuid.NewString())
			Expect(err).To(MatchError(gorm.ErrRecordNotFound))
		})
	})

	Describe("FindAllByEmployee", func() {
		It("returns only that employee's requests, newest first", func() {
			first := newLeave("E1", "2024-01-01", "2024-01-02", base)
			second := newLeave("E1", "2024-02-01", "2024-02-02", base.Add(time.Hour))
			other := newLeave("E2", "2024-01-01", "2024-01-02", base.Add(2*time.Hour))
			for _, l := range []*leave.LeaveRequest{first, second, other} {
				Expect(repo.Create(ctx, l)).To(Succeed())
			}

			leaves, err := repo.FindAllByEmployee(ctx, "E1")
			Expect(err).NotTo(HaveOccurred())
			Expect(leaves).To(HaveLen(2))
			Expect(leaves[0].ID).To(Equal(second.ID))
			Expect(leaves[1].ID).To(Equal(first.ID))
		})

		It("returns an empty result for an employee with no requests", func() {
			leaves, err := repo.FindAllByEmployee(ctx, "nobody")
			Expect(err).NotTo(HaveOccurred())
			Expect(leaves).To(BeEmpty())
		})
	})

	Describe("FindAllByStatus", func() {
		It("filters by status, newest first", func() {
			older := newLeave("E1", "2024-01-01", "2024-01-02", base)
			newer := newLeave("E2", "2024-01-03", "2024-01-04", base.Add(time.Minute))
			decided := newLeave("E3", "2024-01-05", "2024-01-06", base.Add(2*time.Minute))
			decided.Status = leave.StatusRejected
			for _, l := range []*leave.LeaveRequest{older, newer, decided} {
				Expect(repo.Create(ctx, l)).To(Succeed())
			}

			leaves, err := repo.FindAllByStatus(ctx, leave.StatusPending)
			Expect(err).NotTo(HaveOccurred())
			Expect(leaves).To(HaveLen(2))
			Expect(leaves[0].ID).To(Equal(newer.ID))
			Expect(leaves[1].ID).To(Equal(older.ID))
		})
	})

	Describe("TransitionStatus", func() {
		var l *leave.LeaveRequest

		BeforeEach(func() {
			l = newLeave("E1", "2024-01-01", "2024-01-02", base)
			Expect(repo.Create(ctx, l)).To(Succeed())
		})

		It("moves a pending request and stamps the decision time", func() {
			decidedAt := base.Add(24 * time.Hour)
			ok, err := repo.TransitionStatus(ctx, l.ID.String(), leave.StatusPending, leave.StatusApproved, decidedAt)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			found, err := repo.FindByID(ctx, l.ID.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(found.Status).To(Equal(leave.StatusApproved))
			Expect(found.DecidedAt).NotTo(BeNil())
			Expect(found.DecidedAt.Equal(decidedAt)).To(BeTrue())
		})

		It("refuses a second transition", func() {
			ok, err := repo.TransitionStatus(ctx, l.ID.String(), leave.StatusPending, leave.StatusRejected, base)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			ok, err = repo.TransitionStatus(ctx, l.ID.String(), leave.StatusPending, leave.StatusApproved, base)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())

			found, _ := repo.FindByID(ctx, l.ID.String())
			Expect(found.Status).To(Equal(leave.StatusRejected))
		})

		It("is undone when the transaction rolls back", func() {
			sqlDB, err := db.DB()
			Expect(err).NotTo(HaveOccurred())

			tx, err := sqlDB.BeginTx(ctx, nil)
			Expect(err).NotTo(HaveOccurred())

			ok, err := repo.WithTx(tx).TransitionStatus(ctx, l.ID.String(), leave.StatusPending, leave.StatusApproved, base)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(tx.Rollback()).To(Succeed())

			found, err := repo.FindByID(ctx, l.ID.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(found.Status).To(Equal(leave.StatusPending))
			Expect(found.DecidedAt).To(BeNil())
		})
	})
})
