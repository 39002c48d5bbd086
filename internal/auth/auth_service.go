package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	autherrors "github.com/himanshukumarraut/Leave-It/internal/auth/errors"
	"github.com/himanshukumarraut/Leave-It/internal/employee"
	employeeerrors "github.com/himanshukumarraut/Leave-It/internal/employee/errors"
	"github.com/himanshukumarraut/Leave-It/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const defaultEntitlement = 20

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (AuthResponse, error)
	Login(ctx context.Context, employeeID, password string) (LoginResponse, error)
}

type Options struct {
	BCryptCost         int
	DefaultEntitlement int
}

type service struct {
	employees   employee.Repository
	tokens      *TokenManager
	cost        int
	entitlement int
	logger      *zap.Logger
}

func NewService(employees employee.Repository, tokens *TokenManager, opts Options, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	cost := opts.BCryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	entitlement := opts.DefaultEntitlement
	if entitlement <= 0 {
		entitlement = defaultEntitlement
	}
	return &service{
		employees:   employees,
		tokens:      tokens,
		cost:        cost,
		entitlement: entitlement,
		logger:      l,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	employeeID := strings.TrimSpace(req.EmployeeID)
	email := strings.TrimSpace(req.Email)
	s.logger.Debug("register requested",
		zap.String("request_id", rid),
		zap.String("employee_id", employeeID),
		zap.String("email", email),
	)

	exists, err := s.employees.ExistsByEmployeeIDOrEmail(ctx, employeeID, email)
	if err != nil {
		s.logger.Error("register existence check failed", zap.String("request_id", rid), zap.Error(err))
		return AuthResponse{}, err
	}
	if exists {
		s.logger.Warn("register duplicate employee", zap.String("request_id", rid), zap.String("employee_id", employeeID))
		return AuthResponse{}, employeeerrors.ErrEmployeeAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		s.logger.Error("register hash password failed", zap.String("request_id", rid), zap.Error(err))
		return AuthResponse{}, err
	}

	role := req.Role
	if role == "" {
		role = employee.RoleEmployee
	}

	emp := &employee.Employee{
		ID:                 uuid.New(),
		EmployeeID:         employeeID,
		Name:               strings.TrimSpace(req.Name),
		Email:              email,
		PasswordHash:       string(hashed),
		Role:               role,
		TotalLeavesPerYear: s.entitlement,
	}
	if err := s.employees.Create(ctx, emp); err != nil {
		mapped := employee.MapRepositoryError(err)
		if errors.Is(mapped, employeeerrors.ErrEmployeeAlreadyExists) {
			s.logger.Warn("register lost unique race", zap.String("request_id", rid), zap.String("employee_id", employeeID))
		} else {
			s.logger.Error("register persist failed", zap.String("request_id", rid), zap.Error(err))
		}
		return AuthResponse{}, mapped
	}

	s.logger.Info("register success",
		zap.String("request_id", rid),
		zap.String("employee_id", employeeID),
		zap.String("role", role),
	)
	return toAuthResponse(*emp), nil
}

func (s *service) Login(ctx context.Context, employeeID, password string) (LoginResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	emp, err := s.employees.FindByEmployeeID(ctx, strings.TrimSpace(employeeID))
	if err != nil {
		if mapped := employee.MapRepositoryError(err); !errors.Is(mapped, employeeerrors.ErrEmployeeNotFound) {
			s.logger.Error("login lookup failed", zap.String("request_id", rid), zap.Error(err))
			return LoginResponse{}, err
		}
		s.logger.Warn("login failed", zap.String("request_id", rid), zap.String("employee_id", employeeID))
		return LoginResponse{}, autherrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("login failed", zap.String("request_id", rid), zap.String("employee_id", employeeID))
		return LoginResponse{}, autherrors.ErrInvalidCredentials
	}

	identity := toAuthResponse(*emp)
	token, expiresAt, err := s.tokens.Issue(identity)
	if err != nil {
		s.logger.Error("login token generation failed", zap.String("request_id", rid), zap.Error(err))
		return LoginResponse{}, autherrors.ErrTokenGenerationFailed
	}

	s.logger.Info("login success", zap.String("request_id", rid), zap.String("employee_id", emp.EmployeeID))
	return LoginResponse{
		ID:          identity.ID,
		EmployeeID:  identity.EmployeeID,
		Name:        identity.Name,
		Email:       identity.Email,
		Role:        identity.Role,
		AccessToken: token,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func toAuthResponse(emp employee.Employee) AuthResponse {
	return AuthResponse{
		ID:         emp.ID.String(),
		EmployeeID: emp.EmployeeID,
		Name:       emp.Name,
		Email:      emp.Email,
		Role:       emp.Role,
	}
}
