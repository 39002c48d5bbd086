package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/himanshukumarraut/Leave-It/internal/auth"
	"github.com/himanshukumarraut/Leave-It/internal/leave"
	"github.com/himanshukumarraut/Leave-It/internal/middleware"
)

const defaultClientTimeout = 10 * time.Second

type CreateLeaveInput struct {
	EmployeeID     string
	FromDate       string
	ToDate         string
	Reason         string
	IdempotencyKey string
}

// APIClient is the subset of the LeaveIt API the web client calls.
type APIClient interface {
	Register(ctx context.Context, req auth.RegisterRequest) (auth.AuthResponse, error)
	Login(ctx context.Context, employeeID, password string) (Identity, error)
	EmployeeLeaves(ctx context.Context, token, employeeID string) (leave.EmployeeLeavesResponse, error)
	PendingLeaves(ctx context.Context, token string) ([]leave.LeaveResponse, error)
	CreateLeave(ctx context.Context, token string, in CreateLeaveInput) (leave.LeaveResponse, error)
	DecideLeave(ctx context.Context, token, id, action string) (leave.LeaveResponse, error)
}

// APIError carries the error envelope returned by the API.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return e.Message
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type httpAPIClient struct {
	baseURL string
	client  *http.Client
}

func NewAPIClient(baseURL string, timeout time.Duration) APIClient {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	return &httpAPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (a *httpAPIClient) Register(ctx context.Context, req auth.RegisterRequest) (auth.AuthResponse, error) {
	var out auth.AuthResponse
	err := a.do(ctx, http.MethodPost, "/auth/register", "", req, nil, &out)
	return out, err
}

func (a *httpAPIClient) Login(ctx context.Context, employeeID, password string) (Identity, error) {
	var out auth.LoginResponse
	body := auth.LoginRequest{EmployeeID: employeeID, Password: password}
	if err := a.do(ctx, http.MethodPost, "/auth/login", "", body, nil, &out); err != nil {
		return Identity{}, err
	}
	return Identity{
		ID:          out.ID,
		EmployeeID:  out.EmployeeID,
		Name:        out.Name,
		Email:       out.Email,
		Role:        out.Role,
		AccessToken: out.AccessToken,
	}, nil
}

func (a *httpAPIClient) EmployeeLeaves(ctx context.Context, token, employeeID string) (leave.EmployeeLeavesResponse, error) {
	var out leave.EmployeeLeavesResponse
	err := a.do(ctx, http.MethodGet, "/leaves/employee/"+url.PathEscape(employeeID), token, nil, nil, &out)
	return out, err
}

func (a *httpAPIClient) PendingLeaves(ctx context.Context, token string) ([]leave.LeaveResponse, error) {
	var out []leave.LeaveResponse
	err := a.do(ctx, http.MethodGet, "/leaves/pending", token, nil, nil, &out)
	return out, err
}

func (a *httpAPIClient) CreateLeave(ctx context.Context, token string, in CreateLeaveInput) (leave.LeaveResponse, error) {
	var out leave.LeaveResponse
	body := leave.CreateLeaveRequest{
		EmployeeID: in.EmployeeID,
		FromDate:   in.FromDate,
		ToDate:     in.ToDate,
		Reason:     in.Reason,
	}
	var headers map[string]string
	if in.IdempotencyKey != "" {
		headers = map[string]string{middleware.IdempotencyHeader: in.IdempotencyKey}
	}
	err := a.do(ctx, http.MethodPost, "/leaves", token, body, headers, &out)
	return out, err
}

func (a *httpAPIClient) DecideLeave(ctx context.Context, token, id, action string) (leave.LeaveResponse, error) {
	var out leave.LeaveResponse
	body := leave.DecideLeaveRequest{Action: action}
	err := a.do(ctx, http.MethodPatch, "/leaves/"+url.PathEscape(id), token, body, nil, &out)
	return out, err
}

func (a *httpAPIClient) do(
	ctx context.Context,
	method, path, token string,
	body any,
	headers map[string]string,
	out any,
) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Ok {
		apiErr := &APIError{Status: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Details = env.Error.Details
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
