package email

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"helium-admin-backend/internal/model"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type memoryRepository struct {
	batches map[string]model.EmailBatchItem
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{batches: make(map[string]model.EmailBatchItem)}
}

func (m *memoryRepository) GetBatch(_ context.Context, id string) (model.EmailBatchItem, error) {
	item, ok := m.batches[id]
	if !ok {
		return model.EmailBatchItem{}, ErrNotFound
	}
	return item, nil
}

func (m *memoryRepository) PutBatch(_ context.Context, item model.EmailBatchItem) error {
	m.batches[item.ID] = item
	return nil
}

func (m *memoryRepository) ListBatches(_ context.Context) ([]model.EmailBatchItem, error) {
	out := make([]model.EmailBatchItem, 0, len(m.batches))
	for _, item := range m.batches {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out, nil
}

func (m *memoryRepository) AddResult(_ context.Context, id string, sent, failed int, errMsg string) (model.EmailBatchItem, error) {
	item := m.batches[id]
	item.Sent += sent
	item.Failed += failed
	if errMsg != "" {
		item.Errors = append(item.Errors, errMsg)
	}
	m.batches[id] = item
	return item, nil
}

func (m *memoryRepository) SetStatus(_ context.Context, id string, status model.BatchStatus, completedAt string) error {
	item := m.batches[id]
	item.Status = status
	if completedAt != "" {
		item.CompletedAt = completedAt
	}
	m.batches[id] = item
	return nil
}

type fakeSender struct {
	sent []Message
	fail map[string]error
}

func (f *fakeSender) Send(_ context.Context, msg Message) error {
	if err, ok := f.fail[msg.To]; ok {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type memoryAssets struct {
	files map[string][]byte
}

func (m memoryAssets) Fetch(_ context.Context, name string) ([]byte, error) {
	data, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("missing asset %s", name)
	}
	return data, nil
}

func testAssets() memoryAssets {
	return memoryAssets{files: map[string][]byte{
		"email-logo.png":    []byte("logo-bytes"),
		"downtime-body.png": []byte("downtime-bytes"),
		"uptime-body.png":   []byte("uptime-bytes"),
		"1Kcredits.png":     []byte("credits-bytes"),
	}}
}

func newTestService(sender *fakeSender) (*Service, *memoryRepository) {
	repo := newMemoryRepository()
	svc := NewWithDependencies(repo, sender, testAssets(), "https://app.he2.ai", func() time.Time { return fixedNow })
	return svc, repo
}

func TestSendComposesMessage(t *testing.T) {
	sender := &fakeSender{}
	svc, _ := newTestService(sender)

	if err := svc.Send(context.Background(), SendParams{To: " Alice@Example.COM ", Template: TemplateDowntime}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sender.sent))
	}

	msg := sender.sent[0]
	if msg.To != "alice@example.com" {
		t.Fatalf("recipient %q", msg.To)
	}
	if msg.Subject != "Scheduled Downtime: Helium will be unavailable for 1 hour" {
		t.Fatalf("subject %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "cid:downtime-body") {
		t.Fatalf("body image missing from html")
	}
	if !strings.Contains(msg.Text, "scheduled maintenance") {
		t.Fatalf("stock text missing: %q", msg.Text)
	}

	if len(msg.Attachments) != 2 {
		t.Fatalf("expected logo and body attachments, got %d", len(msg.Attachments))
	}
	if msg.Attachments[0].CID != "email-logo" || msg.Attachments[1].CID != "downtime-body" {
		t.Fatalf("unexpected attachment cids %q %q", msg.Attachments[0].CID, msg.Attachments[1].CID)
	}
	if string(msg.Attachments[1].Data) != "downtime-bytes" {
		t.Fatalf("attachment bytes not fetched from store")
	}
}

func TestSendValidatesRecipientAndTemplate(t *testing.T) {
	sender := &fakeSender{}
	svc, _ := newTestService(sender)

	err := svc.Send(context.Background(), SendParams{To: "not-an-email", Template: TemplateDowntime})
	svcErr, ok := err.(*Error)
	if !ok || svcErr.Code != ErrorCodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	err = svc.Send(context.Background(), SendParams{To: "a@example.com", Template: Template("newsletter")})
	svcErr, ok = err.(*Error)
	if !ok || svcErr.Code != ErrorCodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("nothing should have been sent")
	}
}

func TestSendWrapsSenderFailure(t *testing.T) {
	sender := &fakeSender{fail: map[string]error{"bob@example.com": errors.New("smtp boom")}}
	svc, _ := newTestService(sender)

	err := svc.Send(context.Background(), SendParams{To: "bob@example.com", Template: TemplateUptime})
	svcErr, ok := err.(*Error)
	if !ok || svcErr.Code != ErrorCodeSend {
		t.Fatalf("expected send error, got %v", err)
	}
}

func TestCreateBatchNormalizesRecipients(t *testing.T) {
	svc, repo := newTestService(&fakeSender{})

	batch, recipients, err := svc.CreateBatch(context.Background(), BatchParams{
		Template:   TemplateInvite,
		Recipients: []string{" Amy@Example.com ", "amy@example.com", "bad-address", "", "ben@example.com"},
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}

	want := []string{"amy@example.com", "ben@example.com"}
	if strings.Join(recipients, "|") != strings.Join(want, "|") {
		t.Fatalf("recipients %v", recipients)
	}
	if batch.Total != 2 || batch.Status != model.BatchStatusQueued {
		t.Fatalf("unexpected batch %+v", batch)
	}
	if batch.Subject != "Your Helium Invite Code" {
		t.Fatalf("subject %q", batch.Subject)
	}
	if batch.CreatedAt != "2025-03-10T12:00:00Z" {
		t.Fatalf("created at %q", batch.CreatedAt)
	}
	if _, ok := repo.batches[batch.ID]; !ok {
		t.Fatalf("batch not stored")
	}
}

func TestCreateBatchRequiresRecipients(t *testing.T) {
	svc, _ := newTestService(&fakeSender{})

	_, _, err := svc.CreateBatch(context.Background(), BatchParams{
		Template:   TemplateDowntime,
		Recipients: []string{"", "no-at-sign"},
	})
	svcErr, ok := err.(*Error)
	if !ok || svcErr.Code != ErrorCodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecordResultLifecycle(t *testing.T) {
	svc, _ := newTestService(&fakeSender{})

	batch, _, err := svc.CreateBatch(context.Background(), BatchParams{
		Template:   TemplateDowntime,
		Recipients: []string{"a@example.com", "b@example.com", "c@example.com"},
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}

	first, err := svc.RecordResult(context.Background(), batch.ID, "a@example.com", nil)
	if err != nil {
		t.Fatalf("record first: %v", err)
	}
	if first.Status != model.BatchStatusSending || first.Sent != 1 {
		t.Fatalf("after first result: %+v", first)
	}

	second, err := svc.RecordResult(context.Background(), batch.ID, "b@example.com", errors.New("mailbox full"))
	if err != nil {
		t.Fatalf("record second: %v", err)
	}
	if second.Failed != 1 || second.Status != model.BatchStatusSending {
		t.Fatalf("after failure: %+v", second)
	}
	if len(second.Errors) != 1 || second.Errors[0] != "b@example.com: mailbox full" {
		t.Fatalf("errors %v", second.Errors)
	}

	final, err := svc.RecordResult(context.Background(), batch.ID, "c@example.com", nil)
	if err != nil {
		t.Fatalf("record final: %v", err)
	}
	if final.Status != model.BatchStatusCompleted || final.Sent != 2 || final.Failed != 1 {
		t.Fatalf("final batch %+v", final)
	}
	if final.CompletedAt != "2025-03-10T12:00:00Z" {
		t.Fatalf("completed at %q", final.CompletedAt)
	}
}

func TestGetBatchNotFound(t *testing.T) {
	svc, _ := newTestService(&fakeSender{})

	_, err := svc.GetBatch(context.Background(), "missing")
	svcErr, ok := err.(*Error)
	if !ok || svcErr.Code != ErrorCodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTemplateImagesSkipsMissingAssets(t *testing.T) {
	assets := testAssets()
	delete(assets.files, "1Kcredits.png")
	svc := NewWithDependencies(newMemoryRepository(), &fakeSender{}, assets, "", nil)

	images := svc.TemplateImages(context.Background())
	if len(images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(images))
	}
	if _, ok := images["creditsBody"]; ok {
		t.Fatalf("missing asset should be skipped")
	}
	if !strings.HasPrefix(images["logo"], "data:image/png;base64,") {
		t.Fatalf("unexpected data uri %q", images["logo"])
	}
}
