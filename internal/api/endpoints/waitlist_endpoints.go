package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"helium-admin-backend/internal/changefeed"
	"helium-admin-backend/internal/model"
	waitlistservice "helium-admin-backend/internal/service/waitlist"
)

type WaitlistEndpoints interface {
	Waitlist(http.ResponseWriter, *http.Request) error
	Archive(http.ResponseWriter, *http.Request) error
	Unarchive(http.ResponseWriter, *http.Request) error
	Entry(http.ResponseWriter, *http.Request) error
}

type waitlistEndpoints struct {
	service *waitlistservice.Service
	prefix  string
}

func NewWaitlistEndpoints(service *waitlistservice.Service, prefix string) WaitlistEndpoints {
	return &waitlistEndpoints{
		service: service,
		prefix:  strings.TrimRight(prefix, "/") + "/waitlist/",
	}
}

func (h *waitlistEndpoints) Waitlist(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleList,
	})
}

func (h *waitlistEndpoints) Archive(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleArchive,
	})
}

func (h *waitlistEndpoints) Unarchive(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleUnarchive,
	})
}

// Entry routes /waitlist/{id}.
func (h *waitlistEndpoints) Entry(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet:    h.handleGet,
		http.MethodDelete: h.handleDelete,
	})
}

type waitlistListResponse struct {
	Users      []model.WaitlistUserItem `json:"users"`
	TotalCount int                      `json:"total_count"`
}

func (h *waitlistEndpoints) handleList(w http.ResponseWriter, r *http.Request) error {
	params := waitlistservice.ListParams{
		Search: r.URL.Query().Get("search"),
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	}
	if raw := r.URL.Query().Get("archived"); raw != "" {
		archived, err := strconv.ParseBool(raw)
		if err != nil {
			return &HTTPError{
				StatusCode: http.StatusBadRequest,
				Message:    "archived must be true or false",
				ErrorLog:   fmt.Errorf("parse archived filter: %w", err),
			}
		}
		params.Archived = &archived
	}

	result, err := h.service.List(r.Context(), params)
	if err != nil {
		return h.serviceError(err)
	}

	return WriteJSON(w, http.StatusOK, waitlistListResponse{
		Users:      result.Users,
		TotalCount: result.TotalCount,
	})
}

type waitlistBulkRequest struct {
	IDs []string `json:"ids"`
}

type waitlistBulkResponse struct {
	Affected int `json:"affected"`
}

// handleArchive archives the given entries, or every notified entry when
// the body names none.
func (h *waitlistEndpoints) handleArchive(w http.ResponseWriter, r *http.Request) error {
	var req waitlistBulkRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		return err
	}

	archived, err := h.service.BulkArchive(r.Context(), req.IDs)
	if err != nil {
		return h.serviceError(err)
	}

	h.publishRefetch()
	return WriteJSON(w, http.StatusOK, waitlistBulkResponse{Affected: archived})
}

func (h *waitlistEndpoints) handleUnarchive(w http.ResponseWriter, r *http.Request) error {
	var req waitlistBulkRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		return err
	}
	if len(req.IDs) == 0 {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "at least one id is required",
			ErrorLog:   fmt.Errorf("unarchive waitlist: empty id list"),
		}
	}

	affected := 0
	for _, id := range req.IDs {
		user, err := h.service.Unarchive(r.Context(), id)
		if err != nil {
			return h.serviceError(err)
		}
		affected++
		publishFeed(model.FeedWaitlist, changefeed.EventUpdate, nil, user)
	}

	return WriteJSON(w, http.StatusOK, waitlistBulkResponse{Affected: affected})
}

func (h *waitlistEndpoints) handleGet(w http.ResponseWriter, r *http.Request) error {
	id := strings.TrimPrefix(r.URL.Path, h.prefix)
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		return h.serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, user)
}

func (h *waitlistEndpoints) handleDelete(w http.ResponseWriter, r *http.Request) error {
	id := strings.TrimPrefix(r.URL.Path, h.prefix)
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		return h.serviceError(err)
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		return h.serviceError(err)
	}

	publishFeed(model.FeedWaitlist, changefeed.EventDelete, user, nil)
	return WriteJSON(w, http.StatusOK, ApiMessageResponse{Message: "Waitlist entry deleted"})
}

// publishRefetch nudges synced waitlist views after a sweep that touched an
// unknown number of rows. An update with no row payload fails row decoding
// on purpose, but aggregate views re-fetch on any event.
func (h *waitlistEndpoints) publishRefetch() {
	publishFeed(model.FeedWaitlist, changefeed.EventUpdate, nil, struct{}{})
}

func (h *waitlistEndpoints) serviceError(err error) error {
	if err == nil {
		return nil
	}

	svcErr, ok := err.(*waitlistservice.Error)
	if !ok {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("waitlist service: %w", err),
		}
	}

	var logErr error
	if svcErr.Err != nil {
		logErr = fmt.Errorf("%s: %w", svcErr.Message, svcErr.Err)
	} else {
		logErr = svcErr
	}

	switch svcErr.Code {
	case waitlistservice.ErrorCodeValidation:
		return &HTTPError{StatusCode: http.StatusBadRequest, Message: svcErr.Message, ErrorLog: logErr}
	case waitlistservice.ErrorCodeNotFound:
		return &HTTPError{StatusCode: http.StatusNotFound, Message: svcErr.Message, ErrorLog: logErr}
	case waitlistservice.ErrorCodeConflict:
		return &HTTPError{StatusCode: http.StatusConflict, Message: svcErr.Message, ErrorLog: logErr}
	default:
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "Internal server error", ErrorLog: logErr}
	}
}

func queryInt(r *http.Request, name string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// decodeOptionalBody tolerates an empty body but rejects malformed JSON.
func decodeOptionalBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return &HTTPError{
		StatusCode: http.StatusBadRequest,
		Message:    "Invalid request payload",
		ErrorLog:   fmt.Errorf("decode request body: %w", err),
	}
}
