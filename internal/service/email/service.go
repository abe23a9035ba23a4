// Package email renders and delivers the dashboard's templated emails.
// Operators write plain text; the parser splits it into greeting, body and
// signoff, the templates wrap those parts in the Helium HTML layouts, and
// the sender ships the result with the inline images embedded. Bulk sends
// are tracked as batches with per-recipient delivery counters.
package email

import (
	"context"
	"errors"
	"strings"
	"time"

	"helium-admin-backend/internal/database"
	"helium-admin-backend/internal/model"

	"github.com/google/uuid"
)

type ErrorCode string

const (
	ErrorCodeValidation ErrorCode = "validation_error"
	ErrorCodeNotFound   ErrorCode = "not_found"
	ErrorCodeSend       ErrorCode = "send_error"
	ErrorCodeInternal   ErrorCode = "internal_error"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

type Service struct {
	repo   Repository
	sender Sender
	assets AssetStore
	webURL string
	now    func() time.Time
}

func New(db *database.Database, sender Sender, assets AssetStore, webURL string) *Service {
	return NewWithDependencies(NewDynamoRepository(db), sender, assets, webURL, nil)
}

func NewWithDependencies(repo Repository, sender Sender, assets AssetStore, webURL string, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:   repo,
		sender: sender,
		assets: assets,
		webURL: webURL,
		now:    now,
	}
}

type SendParams struct {
	To          string
	Subject     string
	Template    Template
	TextContent string
	InviteCode  string
	ExpiresAt   string
}

// Send renders one message and delivers it immediately. Bulk sends go
// through CreateBatch and the task queue instead.
func (s *Service) Send(ctx context.Context, params SendParams) error {
	params.To = strings.ToLower(strings.TrimSpace(params.To))
	if params.To == "" || !strings.Contains(params.To, "@") {
		return newError(ErrorCodeValidation, "recipient email is required", nil)
	}
	if !KnownTemplate(params.Template) {
		return newError(ErrorCodeValidation, "unknown email template", nil)
	}

	msg, err := s.compose(ctx, params)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return newError(ErrorCodeSend, "send email to "+params.To, err)
	}
	return nil
}

func (s *Service) compose(ctx context.Context, params SendParams) (Message, error) {
	render := RenderParams{
		TextContent: params.TextContent,
		InviteCode:  strings.ToUpper(strings.TrimSpace(params.InviteCode)),
		ExpiresAt:   params.ExpiresAt,
		WebURL:      s.webURL,
	}

	html, err := Render(params.Template, render)
	if err != nil {
		return Message{}, newError(ErrorCodeInternal, "render email template", err)
	}

	text := params.TextContent
	if strings.TrimSpace(text) == "" {
		text = DefaultText(params.Template, render)
	}

	attachments, err := AttachmentsFor(ctx, s.assets, html)
	if err != nil {
		return Message{}, newError(ErrorCodeInternal, "load email images", err)
	}

	subject := strings.TrimSpace(params.Subject)
	if subject == "" {
		subject = DefaultSubject(params.Template)
	}

	return Message{
		To:          params.To,
		Subject:     subject,
		Text:        text,
		HTML:        html,
		Attachments: attachments,
	}, nil
}

type BatchParams struct {
	Template    Template
	Subject     string
	TextContent string
	Recipients  []string
}

// CreateBatch records a bulk send and returns the batch row alongside the
// normalized recipient list. The caller enqueues one delivery task per
// recipient; workers report back through RecordResult.
func (s *Service) CreateBatch(ctx context.Context, params BatchParams) (model.EmailBatchItem, []string, error) {
	if !KnownTemplate(params.Template) {
		return model.EmailBatchItem{}, nil, newError(ErrorCodeValidation, "unknown email template", nil)
	}

	recipients := normalizeRecipients(params.Recipients)
	if len(recipients) == 0 {
		return model.EmailBatchItem{}, nil, newError(ErrorCodeValidation, "at least one valid recipient is required", nil)
	}

	subject := strings.TrimSpace(params.Subject)
	if subject == "" {
		subject = DefaultSubject(params.Template)
	}

	batch := model.EmailBatchItem{
		ID:        uuid.NewString(),
		Template:  string(params.Template),
		Subject:   subject,
		Total:     len(recipients),
		Status:    model.BatchStatusQueued,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}
	if err := s.repo.PutBatch(ctx, batch); err != nil {
		return model.EmailBatchItem{}, nil, newError(ErrorCodeInternal, "store email batch", err)
	}
	return batch, recipients, nil
}

func (s *Service) GetBatch(ctx context.Context, id string) (model.EmailBatchItem, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.EmailBatchItem{}, newError(ErrorCodeValidation, "batch id is required", nil)
	}

	batch, err := s.repo.GetBatch(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.EmailBatchItem{}, newError(ErrorCodeNotFound, "email batch not found", err)
		}
		return model.EmailBatchItem{}, newError(ErrorCodeInternal, "load email batch", err)
	}
	return batch, nil
}

func (s *Service) ListBatches(ctx context.Context) ([]model.EmailBatchItem, error) {
	batches, err := s.repo.ListBatches(ctx)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "list email batches", err)
	}
	return batches, nil
}

// RecordResult folds one delivery outcome into the batch counters and
// moves the status forward: the first result flips a queued batch to
// sending, and the batch completes once every recipient is accounted for.
func (s *Service) RecordResult(ctx context.Context, batchID, recipient string, sendErr error) (model.EmailBatchItem, error) {
	batchID = strings.TrimSpace(batchID)
	if batchID == "" {
		return model.EmailBatchItem{}, newError(ErrorCodeValidation, "batch id is required", nil)
	}

	sent, failed := 1, 0
	errMsg := ""
	if sendErr != nil {
		sent, failed = 0, 1
		errMsg = recipient + ": " + sendErr.Error()
	}

	batch, err := s.repo.AddResult(ctx, batchID, sent, failed, errMsg)
	if err != nil {
		return model.EmailBatchItem{}, newError(ErrorCodeInternal, "update email batch", err)
	}

	switch {
	case batch.Sent+batch.Failed >= batch.Total && batch.Status != model.BatchStatusCompleted:
		completedAt := s.now().UTC().Format(time.RFC3339)
		if err := s.repo.SetStatus(ctx, batchID, model.BatchStatusCompleted, completedAt); err != nil {
			return model.EmailBatchItem{}, newError(ErrorCodeInternal, "complete email batch", err)
		}
		batch.Status = model.BatchStatusCompleted
		batch.CompletedAt = completedAt
	case batch.Status == model.BatchStatusQueued:
		if err := s.repo.SetStatus(ctx, batchID, model.BatchStatusSending, ""); err != nil {
			return model.EmailBatchItem{}, newError(ErrorCodeInternal, "update email batch status", err)
		}
		batch.Status = model.BatchStatusSending
	}

	return batch, nil
}

// TemplateImages returns the inline template images as data URIs for the
// dashboard's email preview.
func (s *Service) TemplateImages(ctx context.Context) map[string]string {
	return DataURIs(ctx, s.assets)
}

func normalizeRecipients(addrs []string) []string {
	seen := make(map[string]bool, len(addrs))
	var out []string
	for _, addr := range addrs {
		addr = strings.ToLower(strings.TrimSpace(addr))
		if addr == "" || !strings.Contains(addr, "@") || seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out
}
