package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"leadflow_backend/internal/email"
	leadrepo "leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/notification"
	"leadflow_backend/internal/notification/outbox"
	"leadflow_backend/internal/registry"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const maxDeliveryAttempts = 5

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	outbox  *outbox.Repository
	leads   *leadrepo.Repository
	roster  *registry.Repository
	sender  email.Sender
	baseURL string
	log     *logger.Logger
}

type WorkerConfig interface {
	config.WorkerConfig
	config.EmailConfig
}

func NewWorker(cfg WorkerConfig, pool *pgxpool.Pool, sender email.Sender, log *logger.Logger) (*Worker, error) {
	opt, queue, err := queueSettings(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		outbox:  outbox.New(pool),
		leads:   leadrepo.New(pool),
		roster:  registry.NewRepository(pool),
		sender:  sender,
		baseURL: cfg.GetAppBaseURL(),
		log:     log,
	}

	mux.HandleFunc(TaskNotificationOutboxDue, w.handleNotificationOutboxDue)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("notification worker stopped", "error", err)
	}
}

func (w *Worker) handleNotificationOutboxDue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseNotificationOutboxDuePayload(task)
	if err != nil {
		return err
	}

	outboxID, err := uuid.Parse(payload.OutboxID)
	if err != nil {
		return err
	}

	rec, err := w.outbox.GetByID(ctx, outboxID)
	if err != nil {
		return err
	}

	// The dispatcher may re-enqueue a row that already completed; skip it.
	if rec.Status == outbox.StatusSucceeded || rec.Status == outbox.StatusFailed {
		return nil
	}

	if err := w.outbox.MarkProcessing(ctx, rec.ID); err != nil {
		return err
	}

	if err := w.deliver(ctx, rec); err != nil {
		return w.recordFailure(ctx, rec, err)
	}

	return w.outbox.MarkSucceeded(ctx, rec.ID)
}

func (w *Worker) deliver(ctx context.Context, rec outbox.Record) error {
	switch rec.Kind {
	case outbox.KindLeadAssigned:
		return w.deliverLeadAssigned(ctx, rec)
	default:
		return permanentError{fmt.Errorf("unknown outbox kind %q", rec.Kind)}
	}
}

func (w *Worker) deliverLeadAssigned(ctx context.Context, rec outbox.Record) error {
	var payload notification.LeadAssignedPayload
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		return permanentError{fmt.Errorf("decode payload: %w", err)}
	}

	emp, err := w.roster.GetEmployee(ctx, rec.RecipientID)
	if err != nil {
		if errors.Is(err, registry.ErrEmployeeNotFound) {
			return permanentError{err}
		}
		return err
	}
	if !emp.Active || emp.Email == "" {
		return permanentError{fmt.Errorf("employee %s has no deliverable address", emp.ID)}
	}

	lead, err := w.leads.GetByID(ctx, rec.LeadID)
	if err != nil {
		if errors.Is(err, leadrepo.ErrNotFound) {
			return permanentError{err}
		}
		return err
	}

	leadURL := fmt.Sprintf("%s/leads/%s", w.baseURL, lead.ID)
	return w.sender.SendLeadAssignedEmail(ctx, emp.Email, emp.Name, lead.Company, payload.Stage, leadURL)
}

// recordFailure routes an error to the right outbox state. Transient errors
// go back to pending so the dispatcher retries; permanent errors and rows
// out of attempts are failed for good. Always returns nil so asynq does not
// layer its own retry on top of the outbox retry loop.
func (w *Worker) recordFailure(ctx context.Context, rec outbox.Record, deliverErr error) error {
	w.log.NotificationError(rec.Kind, deliverErr, "outboxId", rec.ID, "leadId", rec.LeadID)

	var perm permanentError
	if errors.As(deliverErr, &perm) || rec.Attempts+1 >= maxDeliveryAttempts {
		return w.outbox.MarkFailed(ctx, rec.ID, deliverErr.Error())
	}

	msg := deliverErr.Error()
	return w.outbox.MarkPending(ctx, rec.ID, &msg)
}

type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }
