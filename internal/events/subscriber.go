package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"fleetcheck/internal/bootstrap/logging"
	domainnc "fleetcheck/internal/domain/nc"
	"fleetcheck/internal/errs"
	usecasenc "fleetcheck/internal/usecase/nc"
)

const (
	DefaultSubject = "fleetcheck.submissions"
	DefaultQueue   = "fleetcheck-workers"

	// handleTimeout bounds one explosion; a stuck message must not stall
	// the queue subscription forever.
	handleTimeout = 30 * time.Second
)

// SubmissionHandler is the slice of the usecase layer the subscriber needs.
type SubmissionHandler interface {
	ExplodeSubmission(ctx context.Context, input usecasenc.ExplodeSubmissionInput) (usecasenc.ExplodeSubmissionResult, error)
}

// submissionEvent is the wire shape published by the inspection app. It
// mirrors the HTTP submission payload.
type submissionEvent struct {
	SubmissionID string                        `json:"submissionId,omitempty"`
	MachineID    string                        `json:"machineId"`
	TemplateID   string                        `json:"templateId"`
	User         domainnc.Actor                `json:"user"`
	Matricula    string                        `json:"matricula,omitempty"`
	CreatedAt    string                        `json:"createdAt,omitempty"`
	Answers      []domainnc.Answer             `json:"answers"`
	Extras       []domainnc.ExtraNonConformity `json:"extras,omitempty"`
}

// Subscriber consumes checklist submissions from NATS and feeds them to the
// explosion usecase. Bad messages are logged and dropped, never retried:
// the publisher owns redelivery policy.
type Subscriber struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	svc     SubmissionHandler
	subject string
	queue   string
	baseCtx context.Context
}

// Connect dials the NATS server. An empty URL is a configuration error;
// callers decide beforehand whether the event path is enabled at all.
func Connect(ctx context.Context, url string, svc SubmissionHandler) (*Subscriber, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if svc == nil {
		return nil, errors.New("submission handler is required")
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("nats url is required")
	}

	conn, err := nats.Connect(url,
		nats.Name("fleetcheck"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, errs.Wrap(err, "connect to nats")
	}

	return &Subscriber{
		conn:    conn,
		svc:     svc,
		subject: DefaultSubject,
		queue:   DefaultQueue,
		baseCtx: ctx,
	}, nil
}

// Start opens the queue subscription. Queue semantics let several instances
// share the load without double-exploding a submission.
func (s *Subscriber) Start() error {
	if s.conn == nil {
		return errors.New("subscriber is not connected")
	}

	sub, err := s.conn.QueueSubscribe(s.subject, s.queue, func(msg *nats.Msg) {
		s.handleMessage(msg.Data)
	})
	if err != nil {
		return errs.Wrapf(err, "subscribe to %s", s.subject)
	}
	s.sub = sub

	logging.Info(logging.WithAttrs(s.baseCtx, slog.String("component", "events")),
		"submission subscriber started",
		slog.String("subject", s.subject),
		slog.String("queue", s.queue),
	)
	return nil
}

// Close drains in-flight messages before disconnecting.
func (s *Subscriber) Close() error {
	if s.sub != nil {
		if err := s.sub.Drain(); err != nil {
			return errs.Wrap(err, "drain subscription")
		}
	}
	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}

func (s *Subscriber) handleMessage(data []byte) {
	ctx, cancel := context.WithTimeout(s.baseCtx, handleTimeout)
	defer cancel()
	logCtx := logging.WithAttrs(ctx, slog.String("component", "events"), slog.String("subject", s.subject))

	var event submissionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		logging.Warn(logCtx, "submission event dropped, payload is not valid JSON",
			slog.Any("err", errs.Loggable(err)))
		return
	}

	result, err := s.svc.ExplodeSubmission(ctx, usecasenc.ExplodeSubmissionInput{
		SubmissionID: event.SubmissionID,
		MachineID:    event.MachineID,
		TemplateID:   event.TemplateID,
		User:         event.User,
		Matricula:    event.Matricula,
		CreatedAt:    event.CreatedAt,
		Answers:      event.Answers,
		Extras:       event.Extras,
	})
	if err != nil {
		logging.Error(logCtx, "submission event failed",
			slog.String("submission_id", event.SubmissionID),
			slog.Any("err", errs.Loggable(err)))
		return
	}

	logging.Info(logCtx, "submission event exploded",
		slog.String("submission_id", result.SubmissionID),
		slog.Int("non_conformities", len(result.CreatedIDs)),
	)
}
