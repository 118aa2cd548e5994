package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/afroash/smart-planter/internal/models"
	"github.com/afroash/smart-planter/internal/server"
)

// ErrUnknownPlant is matched by errors for plants the server has no
// snapshot for
var ErrUnknownPlant = errors.New("unknown plant")

// APIError is a non-2xx answer from the planter API
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("planter api: status %d", e.Status)
	}
	return fmt.Sprintf("planter api: status %d: %s: %s", e.Status, e.Code, e.Message)
}

// Is reports unknown_plant answers as ErrUnknownPlant
func (e *APIError) Is(target error) bool {
	return target == ErrUnknownPlant && e.Code == server.ErrCodeUnknownPlant
}

// APIClient reads views from the planter HTTP API
type APIClient struct {
	http *resty.Client
}

// NewAPIClient creates a client for the API at baseURL
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &APIClient{http: c}
}

// Plants returns the IDs of the plants the server knows
func (a *APIClient) Plants(ctx context.Context) ([]string, error) {
	var out struct {
		Plants []string `json:"plants"`
	}
	if err := a.get(ctx, "/api/plants", nil, &out); err != nil {
		return nil, err
	}
	return out.Plants, nil
}

// FetchDashboard returns the combined view for one plant
func (a *APIClient) FetchDashboard(ctx context.Context, plantID string) (*server.DashboardData, error) {
	var out server.DashboardData
	params := map[string]string{"id": plantID}
	if err := a.get(ctx, "/api/plants/{id}/dashboard", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Settings returns the current settings form
func (a *APIClient) Settings(ctx context.Context) (models.Settings, error) {
	var out models.Settings
	err := a.get(ctx, "/api/settings", nil, &out)
	return out, err
}

func (a *APIClient) get(ctx context.Context, path string, params map[string]string, out interface{}) error {
	var apiErr models.ErrorMessage
	resp, err := a.http.R().
		SetContext(ctx).
		SetPathParams(params).
		SetResult(out).
		SetError(&apiErr).
		Get(path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return &APIError{Status: resp.StatusCode(), Code: apiErr.Code, Message: apiErr.Message}
	}
	return nil
}
