package notify

import (
	"context"
	"sync"
	"time"

	"tunedrop/core/review"
	"tunedrop/logger"
	"tunedrop/model"
	"tunedrop/repository"
)

// StatusEvent is the public shape of a status change, fanned out to live
// admin dashboard connections.
type StatusEvent struct {
	SubmissionID string    `json:"submissionId"`
	ArtistID     int64     `json:"artistId"`
	ArtistName   string    `json:"artistName"`
	Title        string    `json:"title"`
	Status       string    `json:"status"`
	ReviewScore  *int      `json:"reviewScore,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Dispatcher consumes status-change events after the state transition has
// committed and attempts delivery through the primary provider, falling back
// to the SMTP relay. Every rendered message is appended to the audit log
// whether or not delivery succeeded. Nothing here can fail the review
// operation that triggered it.
type Dispatcher struct {
	primary  Mailer
	fallback Mailer
	audit    repository.EmailLogRepository
	subs     repository.SubmissionRepository

	queue chan deliveryJob

	mu          sync.Mutex
	subscribers map[chan StatusEvent]struct{}

	sendTimeout time.Duration
}

type deliveryJob struct {
	kind string // model.EmailKindConfirmation or a decision
	sub  *model.Submission
}

// NewDispatcher wires a dispatcher. Either mailer may be nil.
func NewDispatcher(primary, fallback Mailer, audit repository.EmailLogRepository, subs repository.SubmissionRepository) *Dispatcher {
	return &Dispatcher{
		primary:     primary,
		fallback:    fallback,
		audit:       audit,
		subs:        subs,
		queue:       make(chan deliveryJob, 64),
		subscribers: make(map[chan StatusEvent]struct{}),
		sendTimeout: 30 * time.Second,
	}
}

// Start launches the delivery worker. It exits when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-d.queue:
				d.deliver(job)
			}
		}
	}()
}

// StatusChanged implements submission.Notifier. It never blocks: the fanout
// drops events for slow subscribers and the email queue drops when full
// (logged), because the transition has already committed.
func (d *Dispatcher) StatusChanged(sub *model.Submission) {
	d.fanout(sub)

	if !review.IsDecision(sub.Status) {
		return
	}
	d.enqueue(deliveryJob{kind: sub.Status, sub: sub})
}

// Created implements the creation half of submission.Notifier: new
// submissions appear on the live feed and the artist gets a confirmation
// email, both best-effort.
func (d *Dispatcher) Created(sub *model.Submission) {
	d.fanout(sub)
	d.enqueue(deliveryJob{kind: model.EmailKindConfirmation, sub: sub})
}

func (d *Dispatcher) fanout(sub *model.Submission) {
	event := StatusEvent{
		SubmissionID: sub.ID,
		ArtistID:     sub.ArtistID,
		ArtistName:   sub.ArtistName,
		Title:        sub.Title,
		Status:       sub.Status,
		ReviewScore:  sub.ReviewScore,
		UpdatedAt:    sub.UpdatedAt,
	}

	d.mu.Lock()
	for ch := range d.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
	d.mu.Unlock()
}

func (d *Dispatcher) enqueue(job deliveryJob) {
	select {
	case d.queue <- job:
	default:
		logger.Warn("Notification queue full, dropping email",
			logger.String("submissionId", job.sub.ID),
			logger.String("kind", job.kind))
	}
}

// Subscribe registers a live event listener and returns the channel plus an
// unsubscribe function.
func (d *Dispatcher) Subscribe() (<-chan StatusEvent, func()) {
	ch := make(chan StatusEvent, 16)
	d.mu.Lock()
	d.subscribers[ch] = struct{}{}
	d.mu.Unlock()

	return ch, func() {
		d.mu.Lock()
		delete(d.subscribers, ch)
		d.mu.Unlock()
	}
}

func (d *Dispatcher) deliver(job deliveryJob) {
	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	sub := job.sub
	switch job.kind {
	case model.EmailKindConfirmation:
		// Confirmation delivery is audited but not tracked on the
		// submission row; the emailSent fields describe the decision email.
		d.Send(ctx, RenderConfirmation(sub))
		return
	case model.StatusApproved:
		result := d.Send(ctx, RenderApproval(sub, sub.ReviewNotes, sub.AdminNotes))
		d.recordEmailState(sub.ID, result)
	case model.StatusRejected:
		result := d.Send(ctx, RenderRejection(sub, sub.ReviewNotes, sub.AdminNotes))
		d.recordEmailState(sub.ID, result)
	}
}

func (d *Dispatcher) recordEmailState(submissionID string, result *model.SendResult) {
	if err := d.subs.UpdateEmailState(submissionID, result.Success, result.MessageID, result.Method); err != nil {
		logger.Error("Failed to record email state on submission",
			logger.String("submissionId", submissionID),
			logger.ErrorField(err))
	}
}

// Send renders nothing; it delivers an already-rendered message through the
// provider chain and appends the audit record. The returned result is never
// an error value because callers treat delivery failure as data, not as a
// failure of their own operation.
func (d *Dispatcher) Send(ctx context.Context, msg *Message) *model.SendResult {
	result := d.trySend(ctx, msg)

	entry := &model.EmailLog{
		Kind:         msg.Kind,
		Recipient:    msg.To,
		SubmissionID: msg.SubmissionID,
		Subject:      msg.Subject,
		Body:         msg.HTML,
		Method:       result.Method,
		MessageID:    result.MessageID,
		Success:      result.Success,
		SendError:    result.Error,
	}
	if err := d.audit.Append(entry); err != nil {
		logger.Error("Failed to append email audit record",
			logger.String("recipient", msg.To),
			logger.String("kind", msg.Kind),
			logger.ErrorField(err))
	}

	return result
}

func (d *Dispatcher) trySend(ctx context.Context, msg *Message) *model.SendResult {
	if d.primary == nil && d.fallback == nil {
		return &model.SendResult{Success: false, Error: ErrNoMailer.Error()}
	}

	var primaryErr error
	if d.primary != nil {
		messageID, err := d.primary.Send(ctx, msg)
		if err == nil {
			logger.Info("Email sent",
				logger.String("method", d.primary.Name()),
				logger.String("kind", msg.Kind),
				logger.String("recipient", msg.To))
			return &model.SendResult{Success: true, MessageID: messageID, Method: d.primary.Name()}
		}
		primaryErr = err
		logger.Warn("Primary email provider failed, trying fallback",
			logger.String("kind", msg.Kind),
			logger.String("recipient", msg.To),
			logger.ErrorField(err))
	}

	if d.fallback != nil {
		messageID, err := d.fallback.Send(ctx, msg)
		if err == nil {
			logger.Info("Email sent via fallback",
				logger.String("method", d.fallback.Name()),
				logger.String("kind", msg.Kind),
				logger.String("recipient", msg.To))
			return &model.SendResult{Success: true, MessageID: messageID, Method: d.fallback.Name()}
		}
		logger.Error("All email providers failed",
			logger.String("kind", msg.Kind),
			logger.String("recipient", msg.To),
			logger.ErrorField(err))
		return &model.SendResult{Success: false, Method: d.fallback.Name(), Error: err.Error()}
	}

	return &model.SendResult{Success: false, Method: d.primary.Name(), Error: primaryErr.Error()}
}
