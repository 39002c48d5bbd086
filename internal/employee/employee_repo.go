package employee

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, emp *Employee) error
	FindByEmployeeID(ctx context.Context, employeeID string) (*Employee, error)
	ExistsByEmployeeIDOrEmail(ctx context.Context, employeeID, email string) (bool, error)
	// AddLeavesTaken reports false when expectedVersion no longer matches.
	AddLeavesTaken(ctx context.Context, employeeID string, days, expectedVersion int) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx binds the repository to an already open *sql.Tx.
func (r *repository) WithTx(tx *sql.Tx) Repository {
	if tx == nil {
		return r
	}
	db := r.db.Session(&gorm.Session{
		NewDB:                  true,
		SkipDefaultTransaction: true,
		Context:                context.Background(),
	})
	db.Statement.ConnPool = tx
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, emp *Employee) error {
	return r.db.WithContext(ctx).Create(emp).Error
}

func (r *repository) FindByEmployeeID(ctx context.Context, employeeID string) (*Employee, error) {
	var emp Employee
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		First(&emp).Error
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *repository) ExistsByEmployeeIDOrEmail(ctx context.Context, employeeID, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Employee{}).
		Where("employee_id = ? OR email = ?", employeeID, email).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) AddLeavesTaken(ctx context.Context, employeeID string, days, expectedVersion int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Employee{}).
		Where("employee_id = ? AND version = ?", employeeID, expectedVersion).
		Updates(map[string]any{
			"leaves_taken": gorm.Expr("leaves_taken + ?", days),
			"version":      gorm.Expr("version + 1"),
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
