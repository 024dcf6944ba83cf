package gojob

import (
	"context"
	"errors"
	"testing"
	"time"

	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"

	ownershipcommand "github.com/goliatone/go-ownership/command"
	"github.com/goliatone/go-ownership/core"
)

func TestMessageMappingRoundTrip(t *testing.T) {
	original := ownershipcommand.TransferAssetMessage{AssetID: "asset1", From: "GALICE", To: "GBOB"}

	converted, err := ToExecutionMessage(original)
	if err != nil {
		t.Fatalf("to execution message: %v", err)
	}
	if converted.JobID != JobIDTransferAsset {
		t.Fatalf("expected job id %q, got %q", JobIDTransferAsset, converted.JobID)
	}
	if converted.ScriptPath != ownershipcommand.TypeTransferAsset {
		t.Fatalf("expected script path %q, got %q", ownershipcommand.TypeTransferAsset, converted.ScriptPath)
	}
	if converted.IdempotencyKey != "ownership.job.asset.transfer:asset1:GALICE:GBOB" {
		t.Fatalf("unexpected idempotency key %q", converted.IdempotencyKey)
	}

	decoded, err := FromExecutionMessage(converted)
	if err != nil {
		t.Fatalf("from execution message: %v", err)
	}
	roundTrip, ok := decoded.(ownershipcommand.TransferAssetMessage)
	if !ok {
		t.Fatalf("expected transfer message, got %T", decoded)
	}
	if roundTrip != original {
		t.Fatalf("expected %#v, got %#v", original, roundTrip)
	}
}

func TestToExecutionMessage_RejectsInvalidInput(t *testing.T) {
	if _, err := ToExecutionMessage(ownershipcommand.RegisterAssetMessage{Owner: "GALICE"}); err == nil {
		t.Fatalf("expected validation error for missing asset id")
	}
	if _, err := ToExecutionMessage("not a message"); err == nil {
		t.Fatalf("expected unsupported message error")
	}
	if _, err := FromExecutionMessage(&job.ExecutionMessage{JobID: "ownership.job.unknown"}); !errors.Is(err, ErrUnknownJob) {
		t.Fatalf("expected ErrUnknownJob, got %v", err)
	}
	if _, err := FromExecutionMessage(&job.ExecutionMessage{JobID: JobIDTransferAsset}); err == nil {
		t.Fatalf("expected validation error for empty parameters")
	}
}

func TestEnqueueThenProcess(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(t)
	enqueuer := &stubQueueEnqueuer{}
	adapter := NewEnqueuer(enqueuer)

	if err := adapter.Enqueue(ctx, ownershipcommand.RegisterAssetMessage{AssetID: "asset1", Owner: "GALICE"}); err != nil {
		t.Fatalf("enqueue register: %v", err)
	}
	if enqueuer.last == nil || enqueuer.last.JobID != JobIDRegisterAsset {
		t.Fatalf("expected mapped go-job message")
	}

	processor := NewProcessor(registry, RetryPolicy{MaxAttempts: 3})
	delivery := &stubQueueDelivery{msg: enqueuer.last}
	if err := processor.ProcessNext(ctx, &stubQueueDequeuer{delivery: delivery}, 1); err != nil {
		t.Fatalf("process register: %v", err)
	}
	if !delivery.acked {
		t.Fatalf("expected ack after successful register")
	}

	if err := adapter.Enqueue(ctx, ownershipcommand.TransferAssetMessage{AssetID: "asset1", From: "GALICE", To: "GBOB"}); err != nil {
		t.Fatalf("enqueue transfer: %v", err)
	}
	transfer := &stubQueueDelivery{msg: enqueuer.last}
	if err := processor.Process(ctx, transfer, 1); err != nil {
		t.Fatalf("process transfer: %v", err)
	}
	owner, err := registry.Owner(ctx, "asset1")
	if err != nil {
		t.Fatalf("owner: %v", err)
	}
	if owner != "GBOB" {
		t.Fatalf("expected GBOB after queued transfer, got %q", owner)
	}
}

func TestProcessor_RegisterGeneratedReturnsID(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(t)
	msg, err := ToExecutionMessage(ownershipcommand.RegisterGeneratedAssetMessage{Owner: "GALICE"})
	if err != nil {
		t.Fatalf("to execution message: %v", err)
	}
	id, err := NewProcessor(registry, RetryPolicy{}).Execute(ctx, msg)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	owner, err := registry.Owner(ctx, id)
	if err != nil {
		t.Fatalf("owner of generated id: %v", err)
	}
	if owner != "GALICE" {
		t.Fatalf("expected GALICE, got %q", owner)
	}
}

func TestProcessor_RejectionIsDeadLettered(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(t)
	if err := registry.Register(ctx, "asset1", "GALICE"); err != nil {
		t.Fatalf("register: %v", err)
	}
	msg, err := ToExecutionMessage(ownershipcommand.TransferAssetMessage{AssetID: "asset1", From: "GEVE", To: "GEVE2"})
	if err != nil {
		t.Fatalf("to execution message: %v", err)
	}
	delivery := &stubQueueDelivery{msg: msg}
	err = NewProcessor(registry, RetryPolicy{MaxAttempts: 5}).Process(ctx, delivery, 1)
	if !core.IsNotAuthorized(err) {
		t.Fatalf("expected not authorized, got %v", err)
	}
	if delivery.acked {
		t.Fatalf("expected rejected job not to be acked")
	}
	if !delivery.nackOpts.DeadLetter || delivery.nackOpts.Requeue {
		t.Fatalf("expected dead letter without requeue, got %#v", delivery.nackOpts)
	}
	if delivery.nackOpts.Reason != core.ErrorNotAuthorized {
		t.Fatalf("expected %q reason, got %q", core.ErrorNotAuthorized, delivery.nackOpts.Reason)
	}
}

func TestRetryPolicy_StoreOutageBoundaries(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts:     3,
		BaseDelay:       4 * time.Second,
		MaxDelay:        6 * time.Second,
		DeadLetterOnMax: true,
	}
	outage := &core.StoreUnavailableError{Operation: "get", Cause: errors.New("connection refused")}

	first := policy.NackOptionsFor(outage, 1)
	if !first.Requeue || first.DeadLetter {
		t.Fatalf("expected requeue on first outage, got %#v", first)
	}
	if first.Delay != 4*time.Second {
		t.Fatalf("expected 4s delay, got %s", first.Delay)
	}
	second := policy.NackOptionsFor(outage, 2)
	if second.Delay != 6*time.Second {
		t.Fatalf("expected delay bounded to 6s, got %s", second.Delay)
	}
	last := policy.NackOptionsFor(outage, 3)
	if last.Requeue || !last.DeadLetter {
		t.Fatalf("expected dead letter at max attempts, got %#v", last)
	}
	dropped := RetryPolicy{MaxAttempts: 1}.NackOptionsFor(outage, 1)
	if dropped.Requeue || dropped.DeadLetter {
		t.Fatalf("expected drop at max attempts without dead letter, got %#v", dropped)
	}
}

func TestRetryPolicy_LockWaitIsRetried(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}
	busy := &core.LockUnavailableError{AssetID: "asset1", Cause: context.DeadlineExceeded}
	opts := policy.NackOptionsFor(busy, 1)
	if !opts.Requeue || opts.DeadLetter {
		t.Fatalf("expected requeue while the asset lock is busy, got %#v", opts)
	}
	if opts.Reason != core.ErrorLockUnavailable {
		t.Fatalf("expected reason %q, got %q", core.ErrorLockUnavailable, opts.Reason)
	}
}

func TestLoggingHook_ReportsEvents(t *testing.T) {
	logger := &capturingJobLogger{}
	hook := NewLoggingHook(job.GoLogger(logger))

	hook.OnRetry(context.Background(), worker.Event{
		Message: &job.ExecutionMessage{
			JobID:      JobIDTransferAsset,
			Parameters: map[string]any{"asset_id": "asset1"},
		},
		Attempt:  2,
		Delay:    5 * time.Second,
		Err:      errors.New("store unavailable"),
		Duration: 250 * time.Millisecond,
	})
	if logger.lastMsg != "ownership job retry scheduled" {
		t.Fatalf("unexpected message %q", logger.lastMsg)
	}
	fields := map[string]any{}
	for i := 0; i+1 < len(logger.lastArgs); i += 2 {
		fields[logger.lastArgs[i].(string)] = logger.lastArgs[i+1]
	}
	if fields["job_id"] != JobIDTransferAsset || fields["asset_id"] != "asset1" {
		t.Fatalf("unexpected fields %#v", fields)
	}
	if fields["attempt"] != 2 || fields["delay_ms"] != int64(5000) || fields["duration_ms"] != int64(250) {
		t.Fatalf("unexpected timing fields %#v", fields)
	}
	if fields["error"] != "store unavailable" {
		t.Fatalf("expected error field, got %#v", fields["error"])
	}

	var nilHook *LoggingHook
	nilHook.OnStart(context.Background(), worker.Event{})
}

func newTestRegistry(t *testing.T) *core.Registry {
	t.Helper()
	registry, err := core.NewRegistry(core.DefaultConfig(), core.WithAssetStore(core.NewMemoryAssetStore()))
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return registry
}

type stubQueueEnqueuer struct {
	last *job.ExecutionMessage
}

func (s *stubQueueEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) error {
	s.last = msg
	return nil
}

type stubQueueDequeuer struct {
	delivery queue.Delivery
}

func (s *stubQueueDequeuer) Dequeue(context.Context) (queue.Delivery, error) {
	return s.delivery, nil
}

type stubQueueDelivery struct {
	msg      *job.ExecutionMessage
	acked    bool
	nackOpts queue.NackOptions
}

func (s *stubQueueDelivery) Message() *job.ExecutionMessage {
	return s.msg
}

func (s *stubQueueDelivery) Ack(context.Context) error {
	s.acked = true
	return nil
}

func (s *stubQueueDelivery) Nack(_ context.Context, opts queue.NackOptions) error {
	s.nackOpts = opts
	return nil
}

var _ glog.Logger = (*capturingJobLogger)(nil)

type capturingJobLogger struct {
	lastMsg  string
	lastArgs []any
}

func (l *capturingJobLogger) Trace(string, ...any) {}
func (l *capturingJobLogger) Debug(string, ...any) {}
func (l *capturingJobLogger) Warn(string, ...any)  {}
func (l *capturingJobLogger) Error(string, ...any) {}
func (l *capturingJobLogger) Fatal(string, ...any) {}

func (l *capturingJobLogger) Info(msg string, args ...any) {
	l.lastMsg = msg
	l.lastArgs = append([]any(nil), args...)
}

func (l *capturingJobLogger) WithContext(context.Context) glog.Logger {
	return l
}
