package endpoints

import (
	"fmt"
	"net/http"

	"helium-admin-backend/internal/model"
	subscriptionservice "helium-admin-backend/internal/service/subscription"
)

type SubscriptionEndpoints interface {
	Subscriptions(http.ResponseWriter, *http.Request) error
}

type subscriptionEndpoints struct {
	service *subscriptionservice.Service
}

func NewSubscriptionEndpoints(service *subscriptionservice.Service) SubscriptionEndpoints {
	return &subscriptionEndpoints{service: service}
}

func (h *subscriptionEndpoints) Subscriptions(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleList,
	})
}

type subscriptionListResponse struct {
	Subscriptions []model.SubscriptionItem `json:"subscriptions"`
	TotalCount    int                      `json:"total_count"`
}

func (h *subscriptionEndpoints) handleList(w http.ResponseWriter, r *http.Request) error {
	result, err := h.service.List(r.Context(), subscriptionservice.ListParams{
		Status: model.SubscriptionStatus(r.URL.Query().Get("status")),
		UserID: r.URL.Query().Get("user_id"),
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	})
	if err != nil {
		return h.serviceError(err)
	}

	return WriteJSON(w, http.StatusOK, subscriptionListResponse{
		Subscriptions: result.Subscriptions,
		TotalCount:    result.TotalCount,
	})
}

func (h *subscriptionEndpoints) serviceError(err error) error {
	if err == nil {
		return nil
	}

	svcErr, ok := err.(*subscriptionservice.Error)
	if !ok {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("subscription service: %w", err),
		}
	}

	var logErr error
	if svcErr.Err != nil {
		logErr = fmt.Errorf("%s: %w", svcErr.Message, svcErr.Err)
	} else {
		logErr = svcErr
	}

	switch svcErr.Code {
	case subscriptionservice.ErrorCodeValidation:
		return &HTTPError{StatusCode: http.StatusBadRequest, Message: svcErr.Message, ErrorLog: logErr}
	case subscriptionservice.ErrorCodeNotFound:
		return &HTTPError{StatusCode: http.StatusNotFound, Message: svcErr.Message, ErrorLog: logErr}
	default:
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "Internal server error", ErrorLog: logErr}
	}
}
