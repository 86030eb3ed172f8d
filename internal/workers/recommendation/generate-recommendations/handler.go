// internal/workers/recommendation/generate-recommendations/handler.go
package generaterecommendations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	commonerrors "bookreview-recommender/internal/common/errors"
	"bookreview-recommender/internal/common/logger"
	"bookreview-recommender/internal/common/metrics"
	"bookreview-recommender/internal/common/observability"
	"bookreview-recommender/internal/common/validation"
	"bookreview-recommender/internal/models"
	"bookreview-recommender/internal/recommendation"
)

const (
	TaskType = "generate-recommendations"
)

var (
	ErrInvalidInput = errors.New("INVALID_INPUT")
)

// Recommender is the slice of the recommendation service this worker uses.
type Recommender interface {
	Recommend(ctx context.Context, userID int64, req recommendation.Request) ([]models.Recommendation, error)
}

type Handler struct {
	config       *Config
	service      Recommender
	schema       *validation.Schema
	errorHandler *commonerrors.ErrorHandler
	telemetry    *observability.Observability
	logger       logger.Logger
	now          func() time.Time
}

// NewHandler builds the worker. schema may be nil, in which case only the
// structural checks in execute apply.
func NewHandler(config *Config, service Recommender, schema *validation.Schema, telemetry *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		schema:       schema,
		errorHandler: commonerrors.NewErrorHandler(log),
		telemetry:    telemetry,
		logger:       log,
		now:          time.Now,
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
		h.fail(ctx, client, job, err, start)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err, start)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.telemetry.RecordJobProcessed(ctx, TaskType, "completed")
	h.telemetry.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
}

// parseInput validates the raw variables against the registry schema before
// decoding them.
func (h *Handler) parseInput(variables string) (*Input, error) {
	if h.schema != nil {
		var doc interface{}
		if err := json.Unmarshal([]byte(variables), &doc); err != nil {
			return nil, commonerrors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err))
		}
		result, err := h.schema.Validate(doc)
		if err != nil {
			return nil, commonerrors.NewInvalidRequestError(err.Error())
		}
		if !result.Valid {
			return nil, commonerrors.NewInvalidRequestError(result.Summary())
		}
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, commonerrors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	if input.UserID <= 0 {
		return nil, fmt.Errorf("%w: userId must be positive", ErrInvalidInput)
	}

	req := h.config.Defaults
	if input.Request != nil {
		req = input.Request.Apply(req)
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	recs, err := h.service.Recommend(ctx, input.UserID, req)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []models.Recommendation{}
	}

	return &Output{
		Recommendations: recs,
		Count:           len(recs),
		GeneratedAt:     h.now().UTC(),
	}, nil
}

// toStandardError maps domain sentinels onto the shared error taxonomy.
func (h *Handler) toStandardError(err error, userID int64) *commonerrors.StandardError {
	var stdErr *commonerrors.StandardError
	switch {
	case errors.As(err, &stdErr):
		return stdErr
	case errors.Is(err, recommendation.ErrUserNotFound):
		return commonerrors.NewUserNotFoundError(userID)
	case errors.Is(err, ErrInvalidInput):
		return commonerrors.NewInvalidRequestError(err.Error())
	case errors.Is(err, recommendation.ErrLookupFailed):
		return commonerrors.NewCollaboratorError(err)
	}
	return commonerrors.NewInternalError(err)
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	var userID int64
	var partial struct {
		UserID int64 `json:"userId"`
	}
	if json.Unmarshal([]byte(job.Variables), &partial) == nil {
		userID = partial.UserID
	}

	stdErr := h.toStandardError(err, userID)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.telemetry.RecordJobProcessed(ctx, TaskType, "failed")
	h.telemetry.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")

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
	_, err = cmd.Send(context.Background())
	if err != nil {
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
	return commonerrors.ConvertToBPMNError(h.toStandardError(err, 0)).Code
}
