package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"helium-admin-backend/internal/changefeed"
	"helium-admin-backend/internal/model"
	usageservice "helium-admin-backend/internal/service/usage"
)

type UsageEndpoints interface {
	UsageLogs(http.ResponseWriter, *http.Request) error
	Aggregated(http.ResponseWriter, *http.Request) error
}

type usageEndpoints struct {
	service *usageservice.Service
}

func NewUsageEndpoints(service *usageservice.Service) UsageEndpoints {
	return &usageEndpoints{service: service}
}

func (h *usageEndpoints) UsageLogs(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleRecord,
	})
}

func (h *usageEndpoints) Aggregated(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleAggregated,
	})
}

type recordUsageRequest struct {
	UserID           string  `json:"user_id"`
	UserEmail        string  `json:"user_email"`
	UserName         string  `json:"user_name"`
	Model            string  `json:"model"`
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	EstimatedCost    float64 `json:"estimated_cost"`
}

func (h *usageEndpoints) handleRecord(w http.ResponseWriter, r *http.Request) error {
	var req recordUsageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode usage record request: %w", err),
		}
	}

	err := h.service.Record(r.Context(), usageservice.RecordParams{
		UserID:           req.UserID,
		UserEmail:        req.UserEmail,
		UserName:         req.UserName,
		Model:            req.Model,
		PromptTokens:     req.PromptTokens,
		CompletionTokens: req.CompletionTokens,
		EstimatedCost:    req.EstimatedCost,
	})
	if err != nil {
		return h.serviceError(err)
	}

	// Any raw event can shift the per-user rollups; aggregate views
	// re-fetch on this rather than patch a row.
	publishFeed(model.FeedUsageLogs, changefeed.EventInsert, nil, map[string]any{"user_id": req.UserID})

	return WriteJSON(w, http.StatusCreated, ApiMessageResponse{Message: "Usage recorded"})
}

type aggregatedRequest struct {
	Page           int    `json:"page"`
	Limit          int    `json:"limit"`
	SearchQuery    string `json:"search_query"`
	ActivityFilter string `json:"activity_filter"`
	UserTypeFilter string `json:"user_type_filter"`
}

type aggregatedResponse struct {
	Success          bool                         `json:"success"`
	Data             []usageservice.AggregatedRow `json:"data"`
	TotalCount       int                          `json:"total_count"`
	GrandTotalTokens int64                        `json:"grand_total_tokens"`
	GrandTotalCost   float64                      `json:"grand_total_cost"`
	Page             int                          `json:"page"`
	Limit            int                          `json:"limit"`
}

func (h *usageEndpoints) handleAggregated(w http.ResponseWriter, r *http.Request) error {
	var req aggregatedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode aggregated usage request: %w", err),
		}
	}

	result, err := h.service.Aggregate(r.Context(), usageservice.AggregateParams{
		Page:           req.Page,
		Limit:          req.Limit,
		SearchQuery:    req.SearchQuery,
		ActivityFilter: req.ActivityFilter,
		UserTypeFilter: req.UserTypeFilter,
	})
	if err != nil {
		return h.serviceError(err)
	}

	return WriteJSON(w, http.StatusOK, aggregatedResponse{
		Success:          true,
		Data:             result.Rows,
		TotalCount:       result.TotalCount,
		GrandTotalTokens: result.GrandTotalTokens,
		GrandTotalCost:   result.GrandTotalCost,
		Page:             result.Page,
		Limit:            result.Limit,
	})
}

func (h *usageEndpoints) serviceError(err error) error {
	if err == nil {
		return nil
	}

	svcErr, ok := err.(*usageservice.Error)
	if !ok {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("usage service: %w", err),
		}
	}

	var logErr error
	if svcErr.Err != nil {
		logErr = fmt.Errorf("%s: %w", svcErr.Message, svcErr.Err)
	} else {
		logErr = svcErr
	}

	switch svcErr.Code {
	case usageservice.ErrorCodeValidation:
		return &HTTPError{StatusCode: http.StatusBadRequest, Message: svcErr.Message, ErrorLog: logErr}
	default:
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "Internal server error", ErrorLog: logErr}
	}
}
