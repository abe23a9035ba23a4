package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"helium-admin-backend/internal/changefeed"
	"helium-admin-backend/internal/model"
	userservice "helium-admin-backend/internal/service/user"
)

type UserEndpoints interface {
	Users(http.ResponseWriter, *http.Request) error
	BulkDelete(http.ResponseWriter, *http.Request) error
	User(http.ResponseWriter, *http.Request) error
}

type userEndpoints struct {
	service *userservice.Service
	prefix  string
}

func NewUserEndpoints(service *userservice.Service, prefix string) UserEndpoints {
	return &userEndpoints{
		service: service,
		prefix:  strings.TrimRight(prefix, "/") + "/users/",
	}
}

func (h *userEndpoints) Users(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet:  h.handleList,
		http.MethodPost: h.handleCreate,
	})
}

func (h *userEndpoints) BulkDelete(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleBulkDelete,
	})
}

// User routes /users/{id}.
func (h *userEndpoints) User(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet:    h.handleGet,
		http.MethodPatch:  h.handleUpdate,
		http.MethodDelete: h.handleDelete,
	})
}

type userListResponse struct {
	Users      []userservice.User `json:"users"`
	TotalCount int                `json:"total_count"`
}

func (h *userEndpoints) handleList(w http.ResponseWriter, r *http.Request) error {
	result, err := h.service.List(r.Context(), userservice.ListParams{
		Search: r.URL.Query().Get("search"),
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	})
	if err != nil {
		return h.serviceError(err)
	}

	return WriteJSON(w, http.StatusOK, userListResponse{
		Users:      result.Users,
		TotalCount: result.TotalCount,
	})
}

type createUserRequest struct {
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	CompanyName string `json:"company_name"`
	PhoneNumber string `json:"phone_number"`
	PlanType    string `json:"plan_type"`
	AccountType string `json:"account_type"`
}

func (h *userEndpoints) handleCreate(w http.ResponseWriter, r *http.Request) error {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode create user request: %w", err),
		}
	}

	user, err := h.service.Create(r.Context(), userservice.CreateParams{
		Email:       req.Email,
		FullName:    req.FullName,
		CompanyName: req.CompanyName,
		PhoneNumber: req.PhoneNumber,
		PlanType:    req.PlanType,
		AccountType: req.AccountType,
	})
	if err != nil {
		return h.serviceError(err)
	}

	publishFeed(model.FeedUserProfiles, changefeed.EventInsert, nil, user.UserProfileItem)
	return WriteJSON(w, http.StatusCreated, user)
}

type updateUserRequest struct {
	FullName            *string `json:"full_name"`
	PreferredName       *string `json:"preferred_name"`
	CompanyName         *string `json:"company_name"`
	PhoneNumber         *string `json:"phone_number"`
	PlanType            *string `json:"plan_type"`
	AccountType         *string `json:"account_type"`
	OnboardingCompleted *bool   `json:"onboarding_completed"`
}

func (h *userEndpoints) handleUpdate(w http.ResponseWriter, r *http.Request) error {
	userID := strings.TrimPrefix(r.URL.Path, h.prefix)

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode update user request: %w", err),
		}
	}

	user, err := h.service.Update(r.Context(), userID, userservice.UpdateParams{
		FullName:            req.FullName,
		PreferredName:       req.PreferredName,
		CompanyName:         req.CompanyName,
		PhoneNumber:         req.PhoneNumber,
		PlanType:            req.PlanType,
		AccountType:         req.AccountType,
		OnboardingCompleted: req.OnboardingCompleted,
	})
	if err != nil {
		return h.serviceError(err)
	}

	publishFeed(model.FeedUserProfiles, changefeed.EventUpdate, nil, user.UserProfileItem)
	return WriteJSON(w, http.StatusOK, user)
}

func (h *userEndpoints) handleGet(w http.ResponseWriter, r *http.Request) error {
	userID := strings.TrimPrefix(r.URL.Path, h.prefix)
	user, err := h.service.Get(r.Context(), userID)
	if err != nil {
		return h.serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, user)
}

func (h *userEndpoints) handleDelete(w http.ResponseWriter, r *http.Request) error {
	userID := strings.TrimPrefix(r.URL.Path, h.prefix)
	user, err := h.service.Get(r.Context(), userID)
	if err != nil {
		return h.serviceError(err)
	}

	if err := h.service.Delete(r.Context(), userID); err != nil {
		return h.serviceError(err)
	}

	publishFeed(model.FeedUserProfiles, changefeed.EventDelete, user.UserProfileItem, nil)
	return WriteJSON(w, http.StatusOK, ApiMessageResponse{Message: "User deleted"})
}

type userBulkRequest struct {
	UserIDs []string `json:"user_ids"`
}

type userBulkResponse struct {
	Affected int `json:"affected"`
}

func (h *userEndpoints) handleBulkDelete(w http.ResponseWriter, r *http.Request) error {
	var req userBulkRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		return err
	}

	count, err := h.service.BulkDelete(r.Context(), req.UserIDs)
	if err != nil {
		return h.serviceError(err)
	}

	for _, id := range req.UserIDs {
		publishFeed(model.FeedUserProfiles, changefeed.EventDelete, map[string]string{"user_id": id}, nil)
	}

	return WriteJSON(w, http.StatusOK, userBulkResponse{Affected: count})
}

func (h *userEndpoints) serviceError(err error) error {
	if err == nil {
		return nil
	}

	svcErr, ok := err.(*userservice.Error)
	if !ok {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("user service: %w", err),
		}
	}

	var logErr error
	if svcErr.Err != nil {
		logErr = fmt.Errorf("%s: %w", svcErr.Message, svcErr.Err)
	} else {
		logErr = svcErr
	}

	switch svcErr.Code {
	case userservice.ErrorCodeValidation:
		return &HTTPError{StatusCode: http.StatusBadRequest, Message: svcErr.Message, ErrorLog: logErr}
	case userservice.ErrorCodeNotFound:
		return &HTTPError{StatusCode: http.StatusNotFound, Message: svcErr.Message, ErrorLog: logErr}
	case userservice.ErrorCodeConflict:
		return &HTTPError{StatusCode: http.StatusConflict, Message: svcErr.Message, ErrorLog: logErr}
	default:
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "Internal server error", ErrorLog: logErr}
	}
}
