package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"helium-admin-backend/internal/changefeed"
	"helium-admin-backend/internal/model"
	emailservice "helium-admin-backend/internal/service/email"
	invitecodeservice "helium-admin-backend/internal/service/invitecode"
)

type InviteCodeEndpoints interface {
	InviteCodes(http.ResponseWriter, *http.Request) error
	Generate(http.ResponseWriter, *http.Request) error
	Archive(http.ResponseWriter, *http.Request) error
	Unarchive(http.ResponseWriter, *http.Request) error
	BulkDelete(http.ResponseWriter, *http.Request) error
	ArchiveUsed(http.ResponseWriter, *http.Request) error
	Stats(http.ResponseWriter, *http.Request) error
	Code(http.ResponseWriter, *http.Request) error
}

type inviteCodeEndpoints struct {
	service *invitecodeservice.Service
	emails  *emailservice.Service
	prefix  string
}

func NewInviteCodeEndpoints(service *invitecodeservice.Service, emails *emailservice.Service, prefix string) InviteCodeEndpoints {
	return &inviteCodeEndpoints{
		service: service,
		emails:  emails,
		prefix:  strings.TrimRight(prefix, "/") + "/invite-codes/",
	}
}

func (h *inviteCodeEndpoints) InviteCodes(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleList,
	})
}

func (h *inviteCodeEndpoints) Generate(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleGenerate,
	})
}

func (h *inviteCodeEndpoints) Archive(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleArchive,
	})
}

func (h *inviteCodeEndpoints) Unarchive(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleUnarchive,
	})
}

func (h *inviteCodeEndpoints) BulkDelete(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleBulkDelete,
	})
}

func (h *inviteCodeEndpoints) ArchiveUsed(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleArchiveUsed,
	})
}

func (h *inviteCodeEndpoints) Stats(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleStats,
	})
}

// Code routes /invite-codes/{id} and its send/remind actions.
func (h *inviteCodeEndpoints) Code(w http.ResponseWriter, r *http.Request) error {
	id, action := h.splitPath(r.URL.Path)
	if id == "" {
		return &HTTPError{
			StatusCode: http.StatusNotFound,
			Message:    "Not found",
			ErrorLog:   fmt.Errorf("invite code path without id: %s", r.URL.Path),
		}
	}

	switch action {
	case "":
		return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
			http.MethodGet:    func(w http.ResponseWriter, r *http.Request) error { return h.handleGet(w, r, id) },
			http.MethodDelete: func(w http.ResponseWriter, r *http.Request) error { return h.handleDelete(w, r, id) },
		})
	case "send":
		return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
			http.MethodPost: func(w http.ResponseWriter, r *http.Request) error { return h.handleSend(w, r, id) },
		})
	case "remind":
		return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
			http.MethodPost: func(w http.ResponseWriter, r *http.Request) error { return h.handleRemind(w, r, id) },
		})
	default:
		return &HTTPError{
			StatusCode: http.StatusNotFound,
			Message:    "Not found",
			ErrorLog:   fmt.Errorf("unknown invite code action %q", action),
		}
	}
}

func (h *inviteCodeEndpoints) splitPath(path string) (id, action string) {
	rest := strings.TrimPrefix(path, h.prefix)
	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 2)
	id = parts[0]
	if len(parts) == 2 {
		action = parts[1]
	}
	return id, action
}

type inviteCodeListResponse struct {
	Codes      []model.InviteCodeItem `json:"codes"`
	TotalCount int                    `json:"total_count"`
}

func (h *inviteCodeEndpoints) handleList(w http.ResponseWriter, r *http.Request) error {
	status := invitecodeservice.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = invitecodeservice.StatusAll
	}

	codes, err := h.service.List(r.Context(), invitecodeservice.ListParams{
		Status: status,
		Search: r.URL.Query().Get("search"),
	})
	if err != nil {
		return h.serviceError(err)
	}

	return WriteJSON(w, http.StatusOK, inviteCodeListResponse{Codes: codes, TotalCount: len(codes)})
}

type generateRequest struct {
	Count         int `json:"count"`
	ExpiresInDays int `json:"expires_in_days"`
	MaxUses       int `json:"max_uses"`
}

type generateResponse struct {
	Codes []model.InviteCodeItem `json:"codes"`
}

func (h *inviteCodeEndpoints) handleGenerate(w http.ResponseWriter, r *http.Request) error {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode generate request: %w", err),
		}
	}

	codes, err := h.service.Generate(r.Context(), invitecodeservice.GenerateParams{
		Count:         req.Count,
		ExpiresInDays: req.ExpiresInDays,
		MaxUses:       req.MaxUses,
	})
	if err != nil {
		return h.serviceError(err)
	}

	for _, code := range codes {
		publishFeed(model.FeedInviteCodes, changefeed.EventInsert, nil, code)
	}

	return WriteJSON(w, http.StatusCreated, generateResponse{Codes: codes})
}

type inviteCodeBulkRequest struct {
	IDs []string `json:"ids"`
}

type inviteCodeBulkResponse struct {
	Affected int `json:"affected"`
}

func (h *inviteCodeEndpoints) handleArchive(w http.ResponseWriter, r *http.Request) error {
	return h.setArchived(w, r, true)
}

func (h *inviteCodeEndpoints) handleUnarchive(w http.ResponseWriter, r *http.Request) error {
	return h.setArchived(w, r, false)
}

func (h *inviteCodeEndpoints) setArchived(w http.ResponseWriter, r *http.Request, archived bool) error {
	var req inviteCodeBulkRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		return err
	}
	if len(req.IDs) == 0 {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "at least one id is required",
			ErrorLog:   fmt.Errorf("archive invite codes: empty id list"),
		}
	}

	affected := 0
	for _, id := range req.IDs {
		var (
			code model.InviteCodeItem
			err  error
		)
		if archived {
			code, err = h.service.Archive(r.Context(), id)
		} else {
			code, err = h.service.Unarchive(r.Context(), id)
		}
		if err != nil {
			return h.serviceError(err)
		}
		affected++
		publishFeed(model.FeedInviteCodes, changefeed.EventUpdate, nil, code)
	}

	return WriteJSON(w, http.StatusOK, inviteCodeBulkResponse{Affected: affected})
}

func (h *inviteCodeEndpoints) handleBulkDelete(w http.ResponseWriter, r *http.Request) error {
	var req inviteCodeBulkRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		return err
	}

	// Capture rows first so delete events can carry them.
	deleted := make([]model.InviteCodeItem, 0, len(req.IDs))
	for _, id := range req.IDs {
		code, err := h.service.Get(r.Context(), id)
		if err != nil {
			return h.serviceError(err)
		}
		deleted = append(deleted, code)
	}

	count, err := h.service.BulkDelete(r.Context(), req.IDs)
	if err != nil {
		return h.serviceError(err)
	}

	for _, code := range deleted {
		publishFeed(model.FeedInviteCodes, changefeed.EventDelete, code, nil)
	}

	return WriteJSON(w, http.StatusOK, inviteCodeBulkResponse{Affected: count})
}

func (h *inviteCodeEndpoints) handleArchiveUsed(w http.ResponseWriter, r *http.Request) error {
	count, err := h.service.ArchiveUsed(r.Context())
	if err != nil {
		return h.serviceError(err)
	}

	if count > 0 {
		publishFeed(model.FeedInviteCodes, changefeed.EventUpdate, nil, struct{}{})
	}

	return WriteJSON(w, http.StatusOK, inviteCodeBulkResponse{Affected: count})
}

func (h *inviteCodeEndpoints) handleStats(w http.ResponseWriter, r *http.Request) error {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		return h.serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, stats)
}

func (h *inviteCodeEndpoints) handleGet(w http.ResponseWriter, r *http.Request, id string) error {
	code, err := h.service.Get(r.Context(), id)
	if err != nil {
		return h.serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, code)
}

func (h *inviteCodeEndpoints) handleDelete(w http.ResponseWriter, r *http.Request, id string) error {
	code, err := h.service.Get(r.Context(), id)
	if err != nil {
		return h.serviceError(err)
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		return h.serviceError(err)
	}

	publishFeed(model.FeedInviteCodes, changefeed.EventDelete, code, nil)
	return WriteJSON(w, http.StatusOK, ApiMessageResponse{Message: "Invite code deleted"})
}

type sendCodeRequest struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

func (h *inviteCodeEndpoints) handleSend(w http.ResponseWriter, r *http.Request, id string) error {
	var req sendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode send code request: %w", err),
		}
	}

	code, err := h.service.Get(r.Context(), id)
	if err != nil {
		return h.serviceError(err)
	}

	sendErr := h.emails.Send(r.Context(), emailservice.SendParams{
		To:          req.Recipient,
		Subject:     req.Subject,
		Template:    emailservice.TemplateInvite,
		TextContent: req.Message,
		InviteCode:  code.Code,
		ExpiresAt:   code.ExpiresAt,
	})
	if sendErr != nil {
		return h.emailError(sendErr)
	}

	updated, err := h.service.MarkEmailSent(r.Context(), id, req.Recipient)
	if err != nil {
		return h.serviceError(err)
	}

	publishFeed(model.FeedInviteCodes, changefeed.EventUpdate, nil, updated)
	return WriteJSON(w, http.StatusOK, updated)
}

func (h *inviteCodeEndpoints) handleRemind(w http.ResponseWriter, r *http.Request, id string) error {
	code, err := h.service.Get(r.Context(), id)
	if err != nil {
		return h.serviceError(err)
	}
	if len(code.EmailSentTo) == 0 {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "code was never emailed to anyone",
			ErrorLog:   fmt.Errorf("remind invite code %s: no prior recipients", id),
		}
	}

	// Remind the most recent recipient.
	recipient := code.EmailSentTo[len(code.EmailSentTo)-1]
	sendErr := h.emails.Send(r.Context(), emailservice.SendParams{
		To:         recipient,
		Template:   emailservice.TemplateReminder,
		InviteCode: code.Code,
		ExpiresAt:  code.ExpiresAt,
	})
	if sendErr != nil {
		return h.emailError(sendErr)
	}

	updated, err := h.service.MarkReminderSent(r.Context(), id)
	if err != nil {
		return h.serviceError(err)
	}

	publishFeed(model.FeedInviteCodes, changefeed.EventUpdate, nil, updated)
	return WriteJSON(w, http.StatusOK, updated)
}

func (h *inviteCodeEndpoints) serviceError(err error) error {
	if err == nil {
		return nil
	}

	svcErr, ok := err.(*invitecodeservice.Error)
	if !ok {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("invite code service: %w", err),
		}
	}

	var logErr error
	if svcErr.Err != nil {
		logErr = fmt.Errorf("%s: %w", svcErr.Message, svcErr.Err)
	} else {
		logErr = svcErr
	}

	switch svcErr.Code {
	case invitecodeservice.ErrorCodeValidation:
		return &HTTPError{StatusCode: http.StatusBadRequest, Message: svcErr.Message, ErrorLog: logErr}
	case invitecodeservice.ErrorCodeNotFound:
		return &HTTPError{StatusCode: http.StatusNotFound, Message: svcErr.Message, ErrorLog: logErr}
	case invitecodeservice.ErrorCodeExpired, invitecodeservice.ErrorCodeExhausted, invitecodeservice.ErrorCodeArchived:
		return &HTTPError{StatusCode: http.StatusConflict, Message: svcErr.Message, ErrorLog: logErr}
	default:
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "Internal server error", ErrorLog: logErr}
	}
}

func (h *inviteCodeEndpoints) emailError(err error) error {
	svcErr, ok := err.(*emailservice.Error)
	if !ok {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("email service: %w", err),
		}
	}

	switch svcErr.Code {
	case emailservice.ErrorCodeValidation:
		return &HTTPError{StatusCode: http.StatusBadRequest, Message: svcErr.Message, ErrorLog: svcErr}
	case emailservice.ErrorCodeSend:
		return &HTTPError{StatusCode: http.StatusBadGateway, Message: "Failed to send email", ErrorLog: svcErr}
	default:
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "Internal server error", ErrorLog: svcErr}
	}
}
