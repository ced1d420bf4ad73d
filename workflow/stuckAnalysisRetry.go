package workflow

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/amand4priscil4/DetectaBB-Backend-3/models"
	"github.com/amand4priscil4/DetectaBB-Backend-3/queue"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// StuckAnalysisSweeper is the reconciliation sweep for the gateway's known
// failure mode: a job row written but its task never enqueued (or a worker
// that died mid-job). Rows sitting in `processing` past the deadline are
// re-enqueued a bounded number of times, then marked failed.
type StuckAnalysisSweeper struct {
	DB        *gorm.DB
	Publisher queue.Publisher
	Logger    *logrus.Logger

	Interval    time.Duration
	StuckAfter  time.Duration
	MaxRequeues int
	BatchSize   int
}

func NewStuckAnalysisSweeper(db *gorm.DB, publisher queue.Publisher, logger *logrus.Logger) *StuckAnalysisSweeper {
	s := &StuckAnalysisSweeper{
		DB:          db,
		Publisher:   publisher,
		Logger:      logger,
		Interval:    time.Minute,
		StuckAfter:  15 * time.Minute,
		MaxRequeues: 2,
		BatchSize:   50,
	}
	if v := os.Getenv("ANALYSIS_STUCK_AFTER_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.StuckAfter = time.Duration(n) * time.Minute
		}
	}
	if v := os.Getenv("ANALYSIS_MAX_REQUEUES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			s.MaxRequeues = n
		}
	}
	return s
}

func (s *StuckAnalysisSweeper) Run(ctx context.Context) {
	if s == nil || s.DB == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		s.sweepOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.Interval):
		}
	}
}

func (s *StuckAnalysisSweeper) sweepOnce(ctx context.Context) {
	staleBefore := time.Now().UTC().Add(-s.StuckAfter)

	var stuck []models.AnalysisJob
	err := s.DB.WithContext(ctx).
		Where("status = ?", models.AnalysisStatusProcessing).
		Where("updated_at <= ?", staleBefore).
		Order("updated_at ASC").
		Limit(s.BatchSize).
		Find(&stuck).Error
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithFields(logrus.Fields{
				"field": "StuckAnalysisSweeper",
			}).Error("failed to scan stuck analyses: " + err.Error())
		}
		return
	}

	for _, job := range stuck {
		if job.RequeueCount >= s.MaxRequeues {
			errMsg := "análise expirou: nenhum worker concluiu o processamento"
			_ = s.DB.WithContext(ctx).Model(&models.AnalysisJob{}).
				Where("id = ? AND status = ?", job.ID, models.AnalysisStatusProcessing).
				Updates(map[string]interface{}{
					"status": models.AnalysisStatusFailed,
					"error":  &errMsg,
				}).Error
			if s.Logger != nil {
				s.Logger.WithFields(logrus.Fields{
					"field":       "StuckAnalysisSweeper",
					"analysis_id": job.ID,
					"requeues":    job.RequeueCount,
				}).Warn("stuck analysis marked failed")
			}
			continue
		}

		// Bump requeue_count first (also refreshes updated_at, so the row
		// leaves this sweep window) and only then republish.
		if err := s.DB.WithContext(ctx).Model(&models.AnalysisJob{}).
			Where("id = ? AND status = ?", job.ID, models.AnalysisStatusProcessing).
			Updates(map[string]interface{}{
				"requeue_count": job.RequeueCount + 1,
			}).Error; err != nil {
			continue
		}

		task := queue.AnalysisTask{
			AnalysisId: job.ID,
			ObjectKey:  job.ObjectKey,
			FileType:   job.FileType,
		}
		if err := s.Publisher.Publish(ctx, task); err != nil {
			if s.Logger != nil {
				s.Logger.WithFields(logrus.Fields{
					"field":       "StuckAnalysisSweeper",
					"analysis_id": job.ID,
				}).Error("failed to requeue stuck analysis: " + err.Error())
			}
			continue
		}
		if s.Logger != nil {
			s.Logger.WithFields(logrus.Fields{
				"field":       "StuckAnalysisSweeper",
				"analysis_id": job.ID,
				"requeues":    job.RequeueCount + 1,
			}).Info("stuck analysis requeued")
		}
	}
}
