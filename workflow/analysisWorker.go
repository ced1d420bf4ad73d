package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amand4priscil4/DetectaBB-Backend-3/boleto"
	"github.com/amand4priscil4/DetectaBB-Backend-3/explain"
	"github.com/amand4priscil4/DetectaBB-Backend-3/models"
	"github.com/amand4priscil4/DetectaBB-Backend-3/queue"
	"github.com/amand4priscil4/DetectaBB-Backend-3/storage"
	"github.com/amand4priscil4/DetectaBB-Backend-3/utils"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer = otel.Tracer("detectabb-analysis")

// TaskSource is the consumer side of the work queue.
type TaskSource interface {
	Pop(ctx context.Context, timeout time.Duration) (*queue.AnalysisTask, error)
}

// AnalysisWorker drains the work queue and runs the full pipeline for each
// job: blob fetch, OCR, parse, FEBRABAN validation, ML prediction, verdict
// synthesis, then exactly one job-store update to completed or failed.
//
// Delivery is at-least-once; the worker is idempotent per job id. A redislock
// keeps concurrent replicas off the same job, and the status check makes
// duplicate deliveries no-ops even without the lock.
type AnalysisWorker struct {
	Store  models.JobStore
	Blobs  storage.BlobStore
	Source TaskSource
	Locker *redislock.Client
	Logger *logrus.Logger

	Extractor  boleto.TextExtractor
	Parser     boleto.FieldParser
	Validator  boleto.FormatValidator
	Classifier boleto.FraudClassifier
	Explainer  *explain.Explainer

	PopTimeout time.Duration
	LockTTL    time.Duration
}

func NewAnalysisWorker(store models.JobStore, blobs storage.BlobStore, source TaskSource, locker *redislock.Client, logger *logrus.Logger) *AnalysisWorker {
	return &AnalysisWorker{
		Store:      store,
		Blobs:      blobs,
		Source:     source,
		Locker:     locker,
		Logger:     logger,
		Explainer:  explain.NewExplainer(logger),
		PopTimeout: 5 * time.Second,
		LockTTL:    2 * time.Minute,
	}
}

func (w *AnalysisWorker) Run(ctx context.Context) {
	if w == nil || w.Source == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, err := w.Source.Pop(ctx, w.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if w.Logger != nil {
				w.Logger.WithFields(logrus.Fields{
					"field": "AnalysisWorker",
				}).Error("failed to pop analysis task: " + err.Error())
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
			continue
		}
		if task == nil {
			continue
		}
		w.Process(ctx, *task)
	}
}

// Process runs one task to completion. Also invoked directly by the Pub/Sub
// push endpoint when a managed subscription delivers the task.
func (w *AnalysisWorker) Process(ctx context.Context, task queue.AnalysisTask) {
	ctx, span := tracer.Start(ctx, "analysis.process")
	defer span.End()

	ctx = utils.SetAnalysisIdInContext(ctx, task.AnalysisId)

	if w.Locker != nil {
		lock, err := w.Locker.Obtain(ctx, "analysis:lock:"+task.AnalysisId, w.LockTTL, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			// Another replica holds this job.
			return
		}
		if err == nil {
			defer lock.Release(ctx)
		}
		// Lock errors other than ErrNotObtained are ignored: the status
		// check below still keeps duplicate processing harmless.
	}

	job, err := w.Store.Find(ctx, task.AnalysisId)
	if err != nil {
		if w.Logger != nil {
			w.Logger.WithFields(logrus.Fields{
				"field":       "AnalysisWorker",
				"analysis_id": task.AnalysisId,
			}).Error("failed to load analysis job: " + err.Error())
		}
		return
	}
	if job.Status != models.AnalysisStatusProcessing {
		// Already finished by an earlier delivery.
		return
	}

	verdict, perr := w.runPipeline(ctx, task)
	if perr != nil {
		w.markFailed(ctx, task.AnalysisId, perr)
		return
	}

	resultJSON, err := json.Marshal(verdict)
	if err != nil {
		w.markFailed(ctx, task.AnalysisId, fmt.Errorf("serialize verdict: %w", err))
		return
	}

	if err := w.Store.Update(ctx, task.AnalysisId, map[string]interface{}{
		"status": models.AnalysisStatusCompleted,
		"result": resultJSON,
	}); err != nil {
		if w.Logger != nil {
			w.Logger.WithFields(logrus.Fields{
				"field":       "AnalysisWorker",
				"analysis_id": task.AnalysisId,
			}).Error("failed to store analysis result: " + err.Error())
		}
		return
	}

	if w.Logger != nil {
		w.Logger.WithFields(logrus.Fields{
			"field":       "AnalysisWorker",
			"analysis_id": task.AnalysisId,
			"is_fraud":    verdict.IsFraud,
			"risk_level":  verdict.RiskLevel,
		}).Info("analysis completed")
	}
}

func (w *AnalysisWorker) runPipeline(ctx context.Context, task queue.AnalysisTask) (*explain.Verdict, error) {
	fileBytes, err := w.Blobs.Get(ctx, task.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("fetch file: %w", err)
	}

	text, err := w.Extractor.ExtractText(ctx, fileBytes, task.FileType)
	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}

	data, err := w.Parser.ParseFields(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	validation, err := w.Validator.Validate(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	prediction, err := w.Classifier.Predict(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	verdict := w.Explainer.Synthesize(validation, prediction)
	return &verdict, nil
}

func (w *AnalysisWorker) markFailed(ctx context.Context, analysisId string, cause error) {
	errMsg := cause.Error()
	if err := w.Store.Update(ctx, analysisId, map[string]interface{}{
		"status": models.AnalysisStatusFailed,
		"error":  &errMsg,
	}); err != nil && w.Logger != nil {
		w.Logger.WithFields(logrus.Fields{
			"field":       "AnalysisWorker",
			"analysis_id": analysisId,
		}).Error("failed to mark analysis failed: " + err.Error())
	}
	if w.Logger != nil {
		w.Logger.WithFields(logrus.Fields{
			"field":       "AnalysisWorker",
			"analysis_id": analysisId,
		}).Error("analysis failed: " + errMsg)
	}
}
