package endpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"helium-admin-backend/internal/changefeed"
	"helium-admin-backend/internal/mailqueue"
	"helium-admin-backend/internal/model"
	emailservice "helium-admin-backend/internal/service/email"
	identityservice "helium-admin-backend/internal/service/identity"
	userservice "helium-admin-backend/internal/service/user"

	"github.com/hibiken/asynq"
)

// EmailEnqueuer hands delivery tasks to the mail queue.
type EmailEnqueuer interface {
	EnqueueDeliverEmail(ctx context.Context, payload mailqueue.DeliverEmailPayload) (*asynq.TaskInfo, error)
}

type EmailEndpoints interface {
	Send(http.ResponseWriter, *http.Request) error
	Bulk(http.ResponseWriter, *http.Request) error
	Batches(http.ResponseWriter, *http.Request) error
	Batch(http.ResponseWriter, *http.Request) error
	Images(http.ResponseWriter, *http.Request) error
}

type emailEndpoints struct {
	service  *emailservice.Service
	identity *identityservice.Service
	users    *userservice.Service
	mail     EmailEnqueuer
	prefix   string
}

func NewEmailEndpoints(service *emailservice.Service, identity *identityservice.Service, users *userservice.Service, mail EmailEnqueuer, prefix string) EmailEndpoints {
	return &emailEndpoints{
		service:  service,
		identity: identity,
		users:    users,
		mail:     mail,
		prefix:   strings.TrimRight(prefix, "/") + "/emails/batches/",
	}
}

func (h *emailEndpoints) Send(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleSend,
	})
}

func (h *emailEndpoints) Bulk(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleBulk,
	})
}

func (h *emailEndpoints) Batches(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleListBatches,
	})
}

// Batch routes /emails/batches/{id}.
func (h *emailEndpoints) Batch(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleGetBatch,
	})
}

func (h *emailEndpoints) Images(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleImages,
	})
}

type sendEmailRequest struct {
	Recipient   string `json:"recipient"`
	Subject     string `json:"subject"`
	TextContent string `json:"text_content"`
	Template    string `json:"template"`
}

func (h *emailEndpoints) handleSend(w http.ResponseWriter, r *http.Request) error {
	var req sendEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode send email request: %w", err),
		}
	}

	err := h.service.Send(r.Context(), emailservice.SendParams{
		To:          req.Recipient,
		Subject:     req.Subject,
		Template:    emailservice.Template(req.Template),
		TextContent: req.TextContent,
	})
	if err != nil {
		return h.serviceError(err)
	}

	return WriteJSON(w, http.StatusOK, ApiMessageResponse{Message: "Email sent"})
}

type bulkEmailRequest struct {
	Subject     string   `json:"subject"`
	TextContent string   `json:"text_content"`
	Template    string   `json:"template"`
	UserIDs     []string `json:"user_ids"`
}

type bulkEmailResponse struct {
	BatchID    string `json:"batch_id"`
	Recipients int    `json:"recipients"`
}

// handleBulk records the batch and fans delivery out to the mail queue;
// workers report progress through the batch row and the change feed, so
// the request returns as soon as every task is enqueued.
func (h *emailEndpoints) handleBulk(w http.ResponseWriter, r *http.Request) error {
	var req bulkEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode bulk email request: %w", err),
		}
	}

	recipients, err := h.resolveRecipients(r.Context(), req.UserIDs)
	if err != nil {
		return err
	}

	batch, recipients, svcErr := h.service.CreateBatch(r.Context(), emailservice.BatchParams{
		Template:    emailservice.Template(req.Template),
		Subject:     req.Subject,
		TextContent: req.TextContent,
		Recipients:  recipients,
	})
	if svcErr != nil {
		return h.serviceError(svcErr)
	}

	publishFeed(model.FeedEmailBatches, changefeed.EventInsert, nil, batch)

	now := time.Now().UTC()
	for _, recipient := range recipients {
		_, enqErr := h.mail.EnqueueDeliverEmail(r.Context(), mailqueue.DeliverEmailPayload{
			BatchID:     batch.ID,
			Recipient:   recipient,
			Subject:     batch.Subject,
			Template:    batch.Template,
			TextContent: req.TextContent,
			EnqueuedAt:  now,
		})
		if enqErr != nil {
			// The recipient never reaches a worker, so account for the
			// failure here to keep the batch counters honest.
			log.Printf("bulk email %s: enqueue %s: %v", batch.ID, recipient, enqErr)
			if _, recErr := h.service.RecordResult(r.Context(), batch.ID, recipient, enqErr); recErr != nil {
				log.Printf("bulk email %s: record enqueue failure: %v", batch.ID, recErr)
			}
		}
	}

	return WriteJSON(w, http.StatusAccepted, bulkEmailResponse{
		BatchID:    batch.ID,
		Recipients: len(recipients),
	})
}

// resolveRecipients maps the selected user ids to account emails, or every
// known user's email when none are named.
func (h *emailEndpoints) resolveRecipients(ctx context.Context, userIDs []string) ([]string, error) {
	if len(userIDs) > 0 {
		emails, err := h.identity.Emails(ctx, userIDs)
		if err != nil {
			return nil, &HTTPError{
				StatusCode: http.StatusInternalServerError,
				Message:    "Internal server error",
				ErrorLog:   fmt.Errorf("resolve bulk recipients: %w", err),
			}
		}
		recipients := make([]string, 0, len(emails))
		for _, id := range userIDs {
			if addr, ok := emails[strings.TrimSpace(id)]; ok {
				recipients = append(recipients, addr)
			}
		}
		return recipients, nil
	}

	result, err := h.users.List(ctx, userservice.ListParams{})
	if err != nil {
		return nil, &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("list users for bulk email: %w", err),
		}
	}
	recipients := make([]string, 0, len(result.Users))
	for _, user := range result.Users {
		if user.Email != "" {
			recipients = append(recipients, user.Email)
		}
	}
	return recipients, nil
}

type batchesResponse struct {
	Batches []model.EmailBatchItem `json:"batches"`
}

func (h *emailEndpoints) handleListBatches(w http.ResponseWriter, r *http.Request) error {
	batches, err := h.service.ListBatches(r.Context())
	if err != nil {
		return h.serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, batchesResponse{Batches: batches})
}

func (h *emailEndpoints) handleGetBatch(w http.ResponseWriter, r *http.Request) error {
	id := strings.TrimPrefix(r.URL.Path, h.prefix)
	batch, err := h.service.GetBatch(r.Context(), id)
	if err != nil {
		return h.serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, batch)
}

func (h *emailEndpoints) handleImages(w http.ResponseWriter, r *http.Request) error {
	return WriteJSON(w, http.StatusOK, h.service.TemplateImages(r.Context()))
}

func (h *emailEndpoints) serviceError(err error) error {
	if err == nil {
		return nil
	}

	svcErr, ok := err.(*emailservice.Error)
	if !ok {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("email service: %w", err),
		}
	}

	var logErr error
	if svcErr.Err != nil {
		logErr = fmt.Errorf("%s: %w", svcErr.Message, svcErr.Err)
	} else {
		logErr = svcErr
	}

	switch svcErr.Code {
	case emailservice.ErrorCodeValidation:
		return &HTTPError{StatusCode: http.StatusBadRequest, Message: svcErr.Message, ErrorLog: logErr}
	case emailservice.ErrorCodeNotFound:
		return &HTTPError{StatusCode: http.StatusNotFound, Message: svcErr.Message, ErrorLog: logErr}
	case emailservice.ErrorCodeSend:
		return &HTTPError{StatusCode: http.StatusBadGateway, Message: "Failed to send email", ErrorLog: logErr}
	default:
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "Internal server error", ErrorLog: logErr}
	}
}
