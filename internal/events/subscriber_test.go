package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"fleetcheck/internal/bootstrap/logging"
	usecasenc "fleetcheck/internal/usecase/nc"
)

type fakeHandler struct {
	inputs []usecasenc.ExplodeSubmissionInput
	err    error
}

func (f *fakeHandler) ExplodeSubmission(_ context.Context, input usecasenc.ExplodeSubmissionInput) (usecasenc.ExplodeSubmissionResult, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return usecasenc.ExplodeSubmissionResult{}, f.err
	}
	return usecasenc.ExplodeSubmissionResult{SubmissionID: input.SubmissionID, CreatedIDs: []string{"nc-1"}}, nil
}

func quietContext() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return logging.WithLogger(context.Background(), logger)
}

func TestHandleMessageFeedsUsecase(t *testing.T) {
	handler := &fakeHandler{}
	sub := &Subscriber{svc: handler, subject: DefaultSubject, baseCtx: quietContext()}

	payload := `{"submissionId":"sub-9","machineId":"maq-1","templateId":"tpl-1","user":{"id":"op-7"},"answers":[{"questionId":"q1","response":"nc"}]}`
	sub.handleMessage([]byte(payload))

	if len(handler.inputs) != 1 {
		t.Fatalf("usecase called %d times, want 1", len(handler.inputs))
	}
	input := handler.inputs[0]
	if input.SubmissionID != "sub-9" || input.MachineID != "maq-1" {
		t.Fatalf("unexpected input: %+v", input)
	}
	if len(input.Answers) != 1 || input.Answers[0].QuestionID != "q1" {
		t.Fatalf("answers not forwarded: %+v", input.Answers)
	}
}

func TestHandleMessageDropsGarbage(t *testing.T) {
	handler := &fakeHandler{}
	sub := &Subscriber{svc: handler, subject: DefaultSubject, baseCtx: quietContext()}

	sub.handleMessage([]byte(`{not json`))

	if len(handler.inputs) != 0 {
		t.Fatalf("usecase called %d times for garbage, want 0", len(handler.inputs))
	}
}

func TestHandleMessageSwallowsUsecaseError(t *testing.T) {
	handler := &fakeHandler{err: errors.New("machine not found")}
	sub := &Subscriber{svc: handler, subject: DefaultSubject, baseCtx: quietContext()}

	payload := `{"machineId":"maq-x","templateId":"tpl-1"}`
	sub.handleMessage([]byte(payload))

	if len(handler.inputs) != 1 {
		t.Fatalf("usecase called %d times, want 1", len(handler.inputs))
	}
}
