package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/amand4priscil4/DetectaBB-Backend-3/config"
	"github.com/amand4priscil4/DetectaBB-Backend-3/utils"
	"gorm.io/gorm"
)

// AnalysisStatus is the lifecycle state of a submitted boleto.
// Transitions are monotonic: processing -> completed | failed, never back.
type AnalysisStatus string

const (
	AnalysisStatusProcessing AnalysisStatus = "processing"
	AnalysisStatusCompleted  AnalysisStatus = "completed"
	AnalysisStatusFailed     AnalysisStatus = "failed"
)

// AnalysisJob is one submitted document's tracked analysis lifecycle.
// Created by the submission gateway, mutated exactly once by the worker
// when the analysis finishes. Rows are never deleted here (retention is
// an ops concern).
type AnalysisJob struct {
	ID           string          `gorm:"primaryKey;size:36" json:"id"`
	Status       AnalysisStatus  `gorm:"size:16;index" json:"status"`
	UploadedAt   time.Time       `json:"uploadedAt"`
	FileName     string          `gorm:"size:255" json:"fileName"`
	FileSize     int64           `json:"fileSize"`
	FileType     string          `gorm:"size:64" json:"fileType"`
	ObjectKey    string          `gorm:"size:255" json:"-"`
	Result       json.RawMessage `gorm:"type:json" json:"result,omitempty"`
	Error        *string         `gorm:"size:1024" json:"error,omitempty"`
	RequeueCount int             `json:"-"`
	UpdatedAt    time.Time       `json:"-"`
}

// JobStore is the durable record of analysis lifecycle state. It must honor
// read-after-write per key: a Find immediately after Insert sees the row.
type JobStore interface {
	Insert(ctx context.Context, job *AnalysisJob) error
	Find(ctx context.Context, id string) (*AnalysisJob, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
}

type GormJobStore struct {
	DB *gorm.DB
}

func NewGormJobStore(db *gorm.DB) *GormJobStore {
	return &GormJobStore{DB: db}
}

// db falls back to the global connection so the store can be wired into
// handlers before ConnectDatabaseWithRetry has finished (the readiness gate
// keeps requests out until then).
func (s *GormJobStore) db() *gorm.DB {
	if s.DB != nil {
		return s.DB
	}
	return config.GetDB()
}

func (s *GormJobStore) Insert(ctx context.Context, job *AnalysisJob) error {
	return s.db().WithContext(ctx).Create(job).Error
}

func (s *GormJobStore) Find(ctx context.Context, id string) (*AnalysisJob, error) {
	var job AnalysisJob
	if err := s.db().WithContext(ctx).Take(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (s *GormJobStore) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	return s.db().WithContext(ctx).Model(&AnalysisJob{}).Where("id = ?", id).Updates(fields).Error
}
