// Package gojob runs ownership commands as go-job queue jobs.
package gojob

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"

	ownershipcommand "github.com/goliatone/go-ownership/command"
	"github.com/goliatone/go-ownership/core"
)

const (
	JobIDRegisterAsset          = "ownership.job.asset.register"
	JobIDRegisterGeneratedAsset = "ownership.job.asset.register_generated"
	JobIDTransferAsset          = "ownership.job.asset.transfer"
)

const (
	paramAssetID = "asset_id"
	paramOwner   = "owner"
	paramFrom    = "from"
	paramTo      = "to"
)

// ErrUnknownJob is returned when a delivery carries a job id this package
// does not handle.
var ErrUnknownJob = errors.New("gojob: unknown ownership job")

// RetryPolicy bounds retries of ownership jobs. Only store outages and
// unclassified errors are retried; ownership rejections are final.
type RetryPolicy struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// NackOptionsFor classifies a failed attempt (1-based).
func (p RetryPolicy) NackOptionsFor(err error, attempt int) queue.NackOptions {
	opts := queue.NackOptions{Reason: failureReason(err)}
	if isTerminal(err) {
		opts.DeadLetter = true
		return opts
	}
	// Past MaxAttempts without DeadLetterOnMax neither flag is set and the
	// queue drops the message.
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		opts.DeadLetter = p.DeadLetterOnMax
		return opts
	}
	opts.Requeue = true
	if attempt < 1 {
		attempt = 1
	}
	opts.Delay = p.BaseDelay * time.Duration(attempt)
	if p.MaxDelay > 0 && opts.Delay > p.MaxDelay {
		opts.Delay = p.MaxDelay
	}
	return opts
}

func isTerminal(err error) bool {
	var unauthenticated *core.UnauthenticatedError
	switch {
	case errors.Is(err, ErrUnknownJob),
		errors.Is(err, core.ErrInvalidInput),
		errors.Is(err, core.ErrIDSpaceExhausted),
		errors.As(err, &unauthenticated),
		core.IsAlreadyRegistered(err),
		core.IsNotFound(err),
		core.IsNotAuthorized(err):
		return true
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Category == goerrors.CategoryValidation || rich.Category == goerrors.CategoryBadInput
	}
	return false
}

func failureReason(err error) string {
	if err == nil {
		return ""
	}
	if mapped := core.MapError(err); mapped != nil && mapped.TextCode != "" {
		return mapped.TextCode
	}
	return err.Error()
}

// ToExecutionMessage encodes an ownership command message as a go-job
// execution message. Accepted inputs are the command package messages.
func ToExecutionMessage(msg any) (*job.ExecutionMessage, error) {
	switch typed := msg.(type) {
	case ownershipcommand.RegisterAssetMessage:
		if err := typed.Validate(); err != nil {
			return nil, err
		}
		return &job.ExecutionMessage{
			JobID:          JobIDRegisterAsset,
			ScriptPath:     typed.Type(),
			Parameters:     map[string]any{paramAssetID: string(typed.AssetID), paramOwner: string(typed.Owner)},
			IdempotencyKey: idempotencyKey(JobIDRegisterAsset, string(typed.AssetID)),
		}, nil
	case ownershipcommand.RegisterGeneratedAssetMessage:
		if err := typed.Validate(); err != nil {
			return nil, err
		}
		return &job.ExecutionMessage{
			JobID:      JobIDRegisterGeneratedAsset,
			ScriptPath: typed.Type(),
			Parameters: map[string]any{paramOwner: string(typed.Owner)},
		}, nil
	case ownershipcommand.TransferAssetMessage:
		if err := typed.Validate(); err != nil {
			return nil, err
		}
		return &job.ExecutionMessage{
			JobID:      JobIDTransferAsset,
			ScriptPath: typed.Type(),
			Parameters: map[string]any{
				paramAssetID: string(typed.AssetID),
				paramFrom:    string(typed.From),
				paramTo:      string(typed.To),
			},
			IdempotencyKey: idempotencyKey(JobIDTransferAsset, string(typed.AssetID), string(typed.From), string(typed.To)),
		}, nil
	default:
		return nil, fmt.Errorf("gojob: unsupported message %T", msg)
	}
}

// FromExecutionMessage decodes a go-job execution message back into the
// command message it was built from.
func FromExecutionMessage(msg *job.ExecutionMessage) (any, error) {
	if msg == nil {
		return nil, fmt.Errorf("gojob: execution message is required")
	}
	var decoded interface{ Validate() error }
	switch strings.TrimSpace(msg.JobID) {
	case JobIDRegisterAsset:
		decoded = ownershipcommand.RegisterAssetMessage{
			AssetID: core.AssetID(stringParam(msg.Parameters, paramAssetID)),
			Owner:   core.Principal(stringParam(msg.Parameters, paramOwner)),
		}
	case JobIDRegisterGeneratedAsset:
		decoded = ownershipcommand.RegisterGeneratedAssetMessage{
			Owner: core.Principal(stringParam(msg.Parameters, paramOwner)),
		}
	case JobIDTransferAsset:
		decoded = ownershipcommand.TransferAssetMessage{
			AssetID: core.AssetID(stringParam(msg.Parameters, paramAssetID)),
			From:    core.Principal(stringParam(msg.Parameters, paramFrom)),
			To:      core.Principal(stringParam(msg.Parameters, paramTo)),
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownJob, msg.JobID)
	}
	if err := decoded.Validate(); err != nil {
		return nil, err
	}
	return decoded, nil
}

func stringParam(params map[string]any, key string) string {
	value, ok := params[key]
	if !ok || value == nil {
		return ""
	}
	if text, ok := value.(string); ok {
		return text
	}
	return fmt.Sprint(value)
}

func idempotencyKey(jobID string, parts ...string) string {
	return jobID + ":" + strings.Join(parts, ":")
}

type Enqueuer struct {
	enqueuer queue.Enqueuer
}

func NewEnqueuer(enqueuer queue.Enqueuer) *Enqueuer {
	return &Enqueuer{enqueuer: enqueuer}
}

func (e *Enqueuer) Enqueue(ctx context.Context, msg any) error {
	if e == nil || e.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	encoded, err := ToExecutionMessage(msg)
	if err != nil {
		return err
	}
	return e.enqueuer.Enqueue(ctx, encoded)
}

// Processor executes dequeued ownership jobs against a MutatingService and
// settles each delivery according to its RetryPolicy.
type Processor struct {
	service ownershipcommand.MutatingService
	policy  RetryPolicy
}

func NewProcessor(service ownershipcommand.MutatingService, policy RetryPolicy) *Processor {
	return &Processor{service: service, policy: policy}
}

// Execute runs one job. A RegisterGenerated job returns the chosen id.
func (p *Processor) Execute(ctx context.Context, msg *job.ExecutionMessage) (core.AssetID, error) {
	if p == nil || p.service == nil {
		return "", fmt.Errorf("gojob: ownership service is not configured")
	}
	decoded, err := FromExecutionMessage(msg)
	if err != nil {
		return "", err
	}
	switch typed := decoded.(type) {
	case ownershipcommand.RegisterAssetMessage:
		return typed.AssetID, p.service.Register(ctx, typed.AssetID, typed.Owner)
	case ownershipcommand.RegisterGeneratedAssetMessage:
		return p.service.RegisterGenerated(ctx, typed.Owner)
	case ownershipcommand.TransferAssetMessage:
		return typed.AssetID, p.service.Transfer(ctx, typed.AssetID, typed.From, typed.To)
	default:
		return "", fmt.Errorf("%w: %T", ErrUnknownJob, decoded)
	}
}

// Process executes the delivery, then acks it or nacks it per policy. The
// execution error is returned after the delivery is settled.
func (p *Processor) Process(ctx context.Context, delivery queue.Delivery, attempt int) error {
	if delivery == nil {
		return fmt.Errorf("gojob: delivery is required")
	}
	_, execErr := p.Execute(ctx, delivery.Message())
	if execErr == nil {
		return delivery.Ack(ctx)
	}
	if nackErr := delivery.Nack(ctx, p.policy.NackOptionsFor(execErr, attempt)); nackErr != nil {
		return errors.Join(execErr, nackErr)
	}
	return execErr
}

// ProcessNext dequeues one delivery and processes it.
func (p *Processor) ProcessNext(ctx context.Context, dequeuer queue.Dequeuer, attempt int) error {
	if dequeuer == nil {
		return fmt.Errorf("gojob: dequeuer is required")
	}
	delivery, err := dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	return p.Process(ctx, delivery, attempt)
}

// LoggingHook reports worker lifecycle events for ownership jobs.
type LoggingHook struct {
	logger job.Logger
}

func NewLoggingHook(logger job.Logger) *LoggingHook {
	return &LoggingHook{logger: logger}
}

func (h *LoggingHook) OnStart(_ context.Context, event worker.Event) {
	h.log("ownership job started", event)
}

func (h *LoggingHook) OnSuccess(_ context.Context, event worker.Event) {
	h.log("ownership job succeeded", event)
}

func (h *LoggingHook) OnFailure(_ context.Context, event worker.Event) {
	h.log("ownership job failed", event)
}

func (h *LoggingHook) OnRetry(_ context.Context, event worker.Event) {
	h.log("ownership job retry scheduled", event)
}

func (h *LoggingHook) log(msg string, event worker.Event) {
	if h == nil || h.logger == nil {
		return
	}
	h.logger.Info(msg, eventFields(event)...)
}

func eventFields(event worker.Event) []any {
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	fields := []any{"attempt", event.Attempt}
	if message != nil {
		fields = append(fields, "job_id", message.JobID)
		if assetID := stringParam(message.Parameters, paramAssetID); assetID != "" {
			fields = append(fields, "asset_id", assetID)
		}
	}
	if event.Duration > 0 {
		fields = append(fields, "duration_ms", event.Duration.Milliseconds())
	}
	if event.Delay > 0 {
		fields = append(fields, "delay_ms", event.Delay.Milliseconds())
	}
	if event.Err != nil {
		fields = append(fields, "error", event.Err.Error())
	}
	return fields
}

var _ worker.Hook = (*LoggingHook)(nil)
