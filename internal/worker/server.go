package worker

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/hibiken/asynq"

	"helium-admin-backend/internal/changefeed"
	"helium-admin-backend/internal/mailqueue"
	"helium-admin-backend/internal/model"
	emailservice "helium-admin-backend/internal/service/email"
)

// batchMailer is the slice of the email service the worker needs. The
// concrete *email.Service satisfies it.
type batchMailer interface {
	Send(ctx context.Context, params emailservice.SendParams) error
	RecordResult(ctx context.Context, batchID, recipient string, sendErr error) (model.EmailBatchItem, error)
}

type Server struct {
	logger  *log.Logger
	server  *asynq.Server
	emails  batchMailer
	metrics *metrics
}

func NewServer(logger *log.Logger, redisOpt asynq.RedisClientOpt, concurrency int, emails batchMailer) (*Server, error) {
	if emails == nil {
		return nil, fmt.Errorf("email service is required")
	}
	if concurrency < 1 {
		concurrency = 1
	}

	s := &Server{
		logger: logger,
		server: asynq.NewServer(
			redisOpt,
			asynq.Config{
				Concurrency: concurrency,
				Queues: map[string]int{
					mailqueue.QueueName: 1,
				},
				LogLevel: asynq.InfoLevel,
				ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
					retried, _ := asynq.GetRetryCount(ctx)
					maxRetry, _ := asynq.GetMaxRetry(ctx)
					logger.Printf("task failed type=%s retry=%d/%d err=%v", task.Type(), retried, maxRetry, err)
				}),
			},
		),
		emails:  emails,
		metrics: newMetrics(),
	}
	return s, nil
}

func (s *Server) Run() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(mailqueue.TypeDeliverEmail, s.handleDeliverEmail)
	return s.server.Run(mux)
}

func (s *Server) Shutdown() {
	s.server.Shutdown()
}

func (s *Server) MetricsHandler() http.Handler {
	return s.metrics.Handler()
}

func (s *Server) handleDeliverEmail(ctx context.Context, task *asynq.Task) error {
	startedAt := time.Now()

	payload, err := mailqueue.ParseDeliverEmailPayload(task)
	if err != nil {
		return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
	}

	status := "sent"
	sendErr := s.emails.Send(ctx, emailservice.SendParams{
		To:          payload.Recipient,
		Subject:     payload.Subject,
		Template:    emailservice.Template(payload.Template),
		TextContent: payload.TextContent,
	})
	if sendErr != nil {
		status = "failed"
	}
	s.metrics.deliveryDuration.WithLabelValues(payload.Template, status).Observe(time.Since(startedAt).Seconds())
	s.metrics.deliveriesTotal.WithLabelValues(payload.Template, status).Inc()

	if sendErr == nil {
		s.recordResult(ctx, payload, nil)
		return nil
	}

	// Record the failure against the batch only once the task is out of
	// retries, so a transient SMTP hiccup does not inflate the counters.
	if s.lastAttempt(ctx) {
		s.recordResult(ctx, payload, sendErr)
	}
	return fmt.Errorf("deliver to %s: %w", payload.Recipient, sendErr)
}

func (s *Server) lastAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return true
	}
	return retried >= maxRetry
}

func (s *Server) recordResult(ctx context.Context, payload mailqueue.DeliverEmailPayload, sendErr error) {
	batch, err := s.emails.RecordResult(ctx, payload.BatchID, payload.Recipient, sendErr)
	if err != nil {
		s.logger.Printf("batch update failed batch_id=%s recipient=%s err=%v", payload.BatchID, payload.Recipient, err)
		return
	}

	if batch.Status == model.BatchStatusCompleted {
		s.metrics.batchesCompleted.Inc()
	}

	if err := changefeed.Publish(model.FeedEmailBatches, changefeed.EventUpdate, nil, batch); err != nil {
		s.logger.Printf("feed publish failed table=%s err=%v", model.FeedEmailBatches, err)
	}
}
