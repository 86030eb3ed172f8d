// internal/workers/recommendation/send-recommendation-digest/handler.go
package sendrecommendationdigest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"bookreview-recommender/internal/common/aws"
	commonerrors "bookreview-recommender/internal/common/errors"
	"bookreview-recommender/internal/common/logger"
	"bookreview-recommender/internal/common/metrics"
	"bookreview-recommender/internal/common/validation"
)

const (
	TaskType = "send-recommendation-digest"

	EventDigestSent = "recommendation_digest_sent"
)

var (
	ErrInvalidInput     = errors.New("INVALID_INPUT")
	ErrDigestSendFailed = errors.New("DIGEST_SEND_FAILED")
)

type Handler struct {
	config       *Config
	sender       aws.EmailSender
	publisher    aws.EventPublisher
	schema       *validation.Schema
	errorHandler *commonerrors.ErrorHandler
	logger       logger.Logger
}

// NewHandler builds the worker. sender may be nil when e-mail is disabled;
// publisher may be nil when no topic is configured; schema may be nil, in
// which case only struct validation applies.
func NewHandler(config *Config, sender aws.EmailSender, publisher aws.EventPublisher, schema *validation.Schema, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		sender:       sender,
		publisher:    publisher,
		schema:       schema,
		errorHandler: commonerrors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job.Variables)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

// parseInput checks the raw variables against the registry schema, then
// decodes them.
func (h *Handler) parseInput(variables string) (*Input, error) {
	if h.schema != nil {
		var doc interface{}
		if err := json.Unmarshal([]byte(variables), &doc); err != nil {
			return nil, fmt.Errorf("%w: parse input: %v", ErrInvalidInput, err)
		}
		result, err := h.schema.Validate(doc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if !result.Valid {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, result.Summary())
		}
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, fmt.Errorf("%w: parse input: %v", ErrInvalidInput, err)
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	if err := validation.ValidateStruct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	out := &Output{
		DigestID: uuid.New().String(),
		Count:    len(input.Recommendations),
		SentAt:   time.Now().UTC().Format(time.RFC3339),
	}

	if !h.config.EmailEnabled || h.sender == nil {
		out.Status = StatusDisabled
		return out, nil
	}
	if len(input.Recommendations) == 0 {
		h.logger.Info("no recommendations to send", map[string]interface{}{"userId": input.UserID})
		out.Status = StatusSkipped
		return out, nil
	}

	text, html, err := renderDigest(input.Recommendations)
	if err != nil {
		return nil, fmt.Errorf("render digest: %w", err)
	}

	messageID, err := h.sender.Send(ctx, aws.Email{
		From:     h.config.FromEmail,
		To:       []string{input.Email},
		Subject:  h.config.Subject,
		TextBody: text,
		HTMLBody: html,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDigestSendFailed, err)
	}

	h.logger.Info("digest sent", map[string]interface{}{
		"userId":    input.UserID,
		"messageId": messageID,
		"count":     out.Count,
	})
	out.Sent = true
	out.Status = StatusSent
	out.MessageID = messageID
	h.publishSent(ctx, input, out)
	return out, nil
}

// publishSent announces a delivered digest. Failures never fail the job:
// the e-mail is already out.
func (h *Handler) publishSent(ctx context.Context, input *Input, out *Output) {
	if h.publisher == nil || h.config.TopicARN == "" {
		return
	}
	event := DigestEvent{
		DigestID:  out.DigestID,
		UserID:    input.UserID,
		Count:     out.Count,
		MessageID: out.MessageID,
		SentAt:    out.SentAt,
	}
	if _, err := h.publisher.PublishEvent(ctx, h.config.TopicARN, EventDigestSent, event); err != nil {
		h.logger.Warn("failed to publish digest event", map[string]interface{}{
			"digestId": out.DigestID,
			"error":    err.Error(),
		})
	}
}

func (h *Handler) toStandardError(err error, recipient string) *commonerrors.StandardError {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return commonerrors.NewInvalidRequestError(err.Error())
	case errors.Is(err, ErrDigestSendFailed):
		return commonerrors.NewDigestSendFailedError(recipient, err)
	}
	return commonerrors.NewInternalError(err)
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	var partial struct {
		Email string `json:"email"`
	}
	_ = json.Unmarshal([]byte(job.Variables), &partial)

	stdErr := h.toStandardError(err, partial.Email)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, stdErr)
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

// ErrorCode reports the BPMN error code a failure maps to.
func (h *Handler) ErrorCode(err error) string {
	return commonerrors.ConvertToBPMNError(h.toStandardError(err, "")).Code
}
