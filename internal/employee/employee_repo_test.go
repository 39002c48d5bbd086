package employee_test

import (
	"context"

	"github.com/himanshukumarraut/Leave-It/internal/employee"
	employeeerrors "github.com/himanshukumarraut/Leave-It/internal/employee/errors"

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

	Expect(db.AutoMigrate(&employee.Employee{})).To(Succeed())
	return db
}

func newEmployee(employeeID, email string) *employee.Employee {
	return &employee.Employee{
		EmployeeID:         employeeID,
		Name:               "Test " + employeeID,
		Email:              email,
		PasswordHash:       "hash",
		Role:               employee.RoleEmployee,
		TotalLeavesPerYear: 20,
	}
}

var _ = Describe("Employee Repository", func() {
	var (
		db   *gorm.DB
		repo employee.Repository
		ctx  context.Context
	)

	BeforeEach(func() {
		db = openTestDB()
		repo = employee.NewRepository(db)
		ctx = context.Background()
	})

	AfterEach(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	Describe("Create", func() {
		It("assigns an id and persists the employee", func() {
			emp := newEmployee("E1", "e1@example.com")
			Expect(repo.Create(ctx, emp)).To(Succeed())
			Expect(emp.ID.String()).NotTo(BeEmpty())

			found, err := repo.FindByEmployeeID(ctx, "E1")
			Expect(err).NotTo(HaveOccurred())
			Expect(found.Email).To(Equal("e1@example.com"))
			Expect(found.LeavesTaken).To(Equal(0))
			Expect(found.RemainingLeaves()).To(Equal(20))
		})

		It("maps a duplicate employee id to a conflict", func() {
			Expect(repo.Create(ctx, newEmployee("E1", "e1@example.com"))).To(Succeed())

			err := repo.Create(ctx, newEmployee("E1", "other@example.com"))
			Expect(err).To(HaveOccurred())
			Expect(employee.MapRepositoryError(err)).To(MatchError(employeeerrors.ErrEmployeeAlreadyExists))
		})
	})

	Describe("FindByEmployeeID", func() {
		It("maps a missing row to not found", func() {
			_, err := repo.FindByEmployeeID(ctx, "missing")
			Expect(employee.MapRepositoryError(err)).To(MatchError(employeeerrors.ErrEmployeeNotFound))
		})
	})

	Describe("ExistsByEmployeeIDOrEmail", func() {
		BeforeEach(func() {
			Expect(repo.Create(ctx, newEmployee("E1", "e1@example.com"))).To(Succeed())
		})

		It("matches on employee id", func() {
			exists, err := repo.ExistsByEmployeeIDOrEmail(ctx, "E1", "fresh@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())
		})

		It("matches on email", func() {
			exists, err := repo.ExistsByEmployeeIDOrEmail(ctx, "E2", "e1@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())
		})

		It("returns false when neither matches", func() {
			exists, err := repo.ExistsByEmployeeIDOrEmail(ctx, "E2", "e2@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeFalse())
		})
	})

	Describe("AddLeavesTaken", func() {
		BeforeEach(func() {
			Expect(repo.Create(ctx, newEmployee("E1", "e1@example.com"))).To(Succeed())
		})

		It("debits and bumps the version when the version matches", func() {
			ok, err := repo.AddLeavesTaken(ctx, "E1", 5, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			found, err := repo.FindByEmployeeID(ctx, "E1")
			Expect(err).NotTo(HaveOccurred())
			Expect(found.LeavesTaken).To(Equal(5))
			Expect(found.Version).To(Equal(1))
		})

		It("refuses a stale version", func() {
			ok, err := repo.AddLeavesTaken(ctx, "E1", 5, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			ok, err = repo.AddLeavesTaken(ctx, "E1", 3, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())

			found, _ := repo.FindByEmployeeID(ctx, "E1")
			Expect(found.LeavesTaken).To(Equal(5))
		})

		It("rolls back with the surrounding transaction", func() {
			sqlDB, err := db.DB()
			Expect(err).NotTo(HaveOccurred())

			tx, err := sqlDB.BeginTx(ctx, nil)
			Expect(err).NotTo(HaveOccurred())

			ok, err := repo.WithTx(tx).AddLeavesTaken(ctx, "E1", 4, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(tx.Rollback()).To(Succeed())

			found, err := repo.FindByEmployeeID(ctx, "E1")
			Expect(err).NotTo(HaveOccurred())
			Expect(found.LeavesTaken).To(Equal(0))
			Expect(found.Version).To(Equal(0))
		})
	})
})
