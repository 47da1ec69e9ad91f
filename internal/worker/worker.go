package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/grace-connect/backend/internal/models"
	"github.com/grace-connect/backend/internal/notifications"
	"github.com/grace-connect/backend/pkg/queue"
)

// NotificationProcessor processes admin notification jobs: render the
// notification for the admin recipient and record it.
type NotificationProcessor struct {
	notifRepo *notifications.Repository
	queue     *queue.Queue
	recipient string
	logger    *zap.Logger
}

// NewNotificationProcessor creates an admin notification processor.
func NewNotificationProcessor(notifRepo *notifications.Repository, q *queue.Queue, recipient string, logger *zap.Logger) *NotificationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationProcessor{notifRepo: notifRepo, queue: q, recipient: recipient, logger: logger}
}

// Process executes one admin notification job.
func (p *NotificationProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeAdminNotification {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.AdminNotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	n := &models.Notification{
		UpdateRequestID: &payload.UpdateRequestID,
		Recipient:       p.recipient,
		Subject:         fmt.Sprintf("Update Request from %s", payload.MemberName),
		Body: fmt.Sprintf(
			"Member %s (ID: %s) has requested an update to their information.\n\nRequest ID: %s\nReason: %s\n\nPlease review this request in the admin dashboard.",
			payload.MemberName, payload.MemberID, payload.UpdateRequestID, payload.Reason),
		Status: "sent",
	}
	if err := p.notifRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("record notification: %w", err)
	}

	p.logger.Info("admin notification recorded",
		zap.String("notification_id", n.ID.String()),
		zap.String("update_request_id", payload.UpdateRequestID.String()))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *NotificationProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			sleepBackoff(ctx, queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			sleepBackoff(ctx, queue.RetryBackoff)
			continue
		}
	}
}

// sleepBackoff waits for d or until ctx is done, whichever comes first,
// so a stopping worker never sits out a full backoff window.
func sleepBackoff(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
