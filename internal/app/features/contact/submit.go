// internal/app/features/contact/submit.go
package contact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foliokit/contactd/internal/app/relay"
	"github.com/foliokit/contactd/internal/domain/models"
	"github.com/foliokit/contactd/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Outcome is how a submit attempt ended.
type Outcome string

const (
	OutcomeRejected Outcome = "rejected"
	OutcomeBusy     Outcome = "busy"
	OutcomeSent     Outcome = "sent"
	OutcomeFailed   Outcome = "failed"
)

// Phase is a step of the submission cycle.
type Phase string

const (
	PhaseIdle                  Phase = "idle"
	PhaseValidating            Phase = "validating"
	PhaseSendingNotification   Phase = "sending_notification"
	PhaseSendingAcknowledgment Phase = "sending_acknowledgment"
	PhaseSucceeded             Phase = "succeeded"
	PhaseFailed                Phase = "failed"
)

// Relay stages, used in logs, errors and metrics.
const (
	StageNotification   = "notification"
	StageAcknowledgment = "acknowledgment"
)

// Template is the relay service, template and public key used for both sends.
type Template struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
}

// Observer is told about every phase change and relay call.
type Observer interface {
	Phase(submissionID string, p Phase)
	RelaySent(stage string, err error, d time.Duration)
	Finished(o Outcome)
}

// Result describes one Submit call.
type Result struct {
	Outcome      Outcome
	SubmissionID string // empty for OutcomeBusy
	Err          error  // the relay error when Outcome is OutcomeFailed
}

// Submitter runs the submission cycle: validate, send the owner
// notification, then the visitor acknowledgment.
type Submitter struct {
	relay    relay.Sender
	template Template
	owner    models.Identity
	logger   *zap.Logger
	observer Observer
}

// NewSubmitter returns a Submitter that reports to the prometheus
// collectors. Use WithObserver to replace that.
func NewSubmitter(sender relay.Sender, tpl Template, owner models.Identity, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{
		relay:    sender,
		template: tpl,
		owner:    owner,
		logger:   logger,
		observer: metricsObserver{},
	}
}

// WithObserver replaces the observer.
func (s *Submitter) WithObserver(o Observer) *Submitter {
	s.observer = o
	return s
}

// Submit runs one cycle against h and reports toasts to n. The returned
// error is reserved for holder failures; relay failures are an outcome.
//
// A submit while another cycle is in flight does nothing. Once sending
// starts the cycle no longer follows ctx cancellation, so a closed
// browser tab does not cut it short.
func (s *Submitter) Submit(ctx context.Context, h Holder, n Notifier) (Result, error) {
	busy, err := s.busy(ctx, h)
	if err != nil {
		return Result{}, err
	}
	if busy {
		return Result{Outcome: OutcomeBusy}, nil
	}
	return s.run(ctx, h, n)
}

// SubmitForm copies in into h and then runs the cycle. While a cycle is in
// flight it returns OutcomeBusy and leaves the stored form as it was.
func (s *Submitter) SubmitForm(ctx context.Context, h Holder, in models.FormRecord, n Notifier) (Result, error) {
	busy, err := s.busy(ctx, h)
	if err != nil {
		return Result{}, err
	}
	if busy {
		return Result{Outcome: OutcomeBusy}, nil
	}
	if err := ApplyForm(ctx, h, in); err != nil {
		return Result{}, fmt.Errorf("apply form: %w", err)
	}
	return s.run(ctx, h, n)
}

func (s *Submitter) busy(ctx context.Context, h Holder) (bool, error) {
	busy, err := h.InFlight(ctx)
	if err != nil {
		return false, fmt.Errorf("read in-flight flag: %w", err)
	}
	if busy {
		s.observer.Finished(OutcomeBusy)
	}
	return busy, nil
}

func (s *Submitter) run(ctx context.Context, h Holder, n Notifier) (Result, error) {
	form, err := h.Form(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read form: %w", err)
	}
	id := uuid.NewString()
	s.observer.Phase(id, PhaseValidating)
	if err := Validate(form); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			n.Notify(models.SeverityError, ve.Message)
		}
		s.logger.Debug("contact submission rejected", zap.String("submission_id", id), zap.Error(err))
		s.observer.Phase(id, PhaseIdle)
		s.observer.Finished(OutcomeRejected)
		return Result{Outcome: OutcomeRejected, SubmissionID: id}, nil
	}

	acquired, err := h.Acquire(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("acquire in-flight flag: %w", err)
	}
	if !acquired {
		s.observer.Phase(id, PhaseIdle)
		s.observer.Finished(OutcomeBusy)
		return Result{Outcome: OutcomeBusy}, nil
	}

	ctx = context.WithoutCancel(ctx)
	log := s.logger.With(zap.String("submission_id", id))
	defer func() {
		if err := h.Release(ctx); err != nil {
			log.Error("release in-flight flag failed", zap.Error(err))
		}
		s.observer.Phase(id, PhaseIdle)
	}()

	if err := s.send(ctx, id, form); err != nil {
		log.Error("contact submission failed", zap.Error(err))
		s.observer.Phase(id, PhaseFailed)
		n.Notify(models.SeverityError, MsgSendFailed)
		s.observer.Finished(OutcomeFailed)
		return Result{Outcome: OutcomeFailed, SubmissionID: id, Err: err}, nil
	}

	s.observer.Phase(id, PhaseSucceeded)
	n.Notify(models.SeveritySuccess, MsgSent)
	if err := h.Reset(ctx); err != nil {
		log.Error("reset form after send failed", zap.Error(err))
	}
	log.Info("contact submission sent")
	s.observer.Finished(OutcomeSent)
	return Result{Outcome: OutcomeSent, SubmissionID: id}, nil
}

func (s *Submitter) send(ctx context.Context, id string, form models.FormRecord) error {
	s.observer.Phase(id, PhaseSendingNotification)
	if err := s.sendStage(ctx, id, StageNotification, NotificationParams(form, s.owner)); err != nil {
		return err
	}
	s.observer.Phase(id, PhaseSendingAcknowledgment)
	return s.sendStage(ctx, id, StageAcknowledgment, AcknowledgmentParams(form, s.owner))
}

func (s *Submitter) sendStage(ctx context.Context, id, stage string, params map[string]string) error {
	start := time.Now()
	err := s.relay.Send(ctx, relay.Request{
		ServiceID:  s.template.ServiceID,
		TemplateID: s.template.TemplateID,
		PublicKey:  s.template.PublicKey,
		Params:     params,
	})
	d := time.Since(start)
	s.observer.RelaySent(stage, err, d)
	s.logger.Debug("relay send finished",
		zap.String("submission_id", id),
		zap.String("stage", stage),
		zap.Duration("took", d),
		zap.Error(err))
	if err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}
	return nil
}

// NotificationParams is the template data for the message to the owner.
func NotificationParams(form models.FormRecord, owner models.Identity) map[string]string {
	return map[string]string{
		"from_name":  form.Name,
		"from_email": form.Email,
		"message":    form.Message,
		"to_name":    owner.Name,
		"to_email":   owner.Email,
	}
}

// AcknowledgmentParams is the template data for the reply to the visitor.
func AcknowledgmentParams(form models.FormRecord, owner models.Identity) map[string]string {
	return map[string]string{
		"to_name":    form.Name,
		"to_email":   form.Email,
		"from_name":  owner.Name,
		"from_email": owner.Email,
	}
}

type metricsObserver struct{}

func (metricsObserver) Phase(string, Phase) {}

func (metricsObserver) RelaySent(stage string, err error, d time.Duration) {
	metrics.ObserveRelaySend(stage, err, d)
}

func (metricsObserver) Finished(o Outcome) { metrics.ObserveSubmission(string(o)) }
