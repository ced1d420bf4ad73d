package workflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/amand4priscil4/DetectaBB-Backend-3/boleto"
	"github.com/amand4priscil4/DetectaBB-Backend-3/explain"
	"github.com/amand4priscil4/DetectaBB-Backend-3/models"
	"github.com/amand4priscil4/DetectaBB-Backend-3/queue"
	"github.com/amand4priscil4/DetectaBB-Backend-3/utils"
	"github.com/amand4priscil4/DetectaBB-Backend-3/workflow"
)

type memoryStore struct {
	mu   sync.Mutex
	jobs map[string]*models.AnalysisJob
}

func newMemoryStore() *memoryStore {
	return &memoryStore{jobs: map[string]*models.AnalysisJob{}}
}

func (s *memoryStore) Insert(_ context.Context, job *models.AnalysisJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *memoryStore) Find(_ context.Context, id string) (*models.AnalysisJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (s *memoryStore) Update(_ context.Context, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return utils.ErrNotFound
	}
	if v, ok := fields["status"]; ok {
		job.Status = v.(models.AnalysisStatus)
	}
	if v, ok := fields["result"]; ok {
		job.Result = json.RawMessage(v.([]byte))
	}
	if v, ok := fields["error"]; ok {
		job.Error = v.(*string)
	}
	return nil
}

type memoryBlobs struct {
	objects map[string][]byte
}

func (b *memoryBlobs) Put(_ context.Context, key string, data []byte, _ string) error {
	b.objects[key] = data
	return nil
}

func (b *memoryBlobs) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := b.objects[key]
	if !ok {
		return nil, errors.New("object not found: " + key)
	}
	return data, nil
}

// pipelineStub implements all four analysis collaborators.
type pipelineStub struct {
	extractErr  error
	parseErr    error
	validateErr error
	predictErr  error
	validation  *boleto.ValidationResult
	prediction  *boleto.ClassifierResult
}

func (p *pipelineStub) ExtractText(context.Context, []byte, string) (string, error) {
	return "BANCO DO BRASIL 001-9", p.extractErr
}

func (p *pipelineStub) ParseFields(context.Context, string) (*boleto.BoletoData, error) {
	return &boleto.BoletoData{BankCode: "001"}, p.parseErr
}

func (p *pipelineStub) Validate(context.Context, *boleto.BoletoData) (*boleto.ValidationResult, error) {
	return p.validation, p.validateErr
}

func (p *pipelineStub) Predict(context.Context, *boleto.BoletoData) (*boleto.ClassifierResult, error) {
	return p.prediction, p.predictErr
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestWorker(store models.JobStore, blobs *memoryBlobs, stub *pipelineStub) *workflow.AnalysisWorker {
	w := workflow.NewAnalysisWorker(store, blobs, nil, nil, testLogger())
	w.Extractor = stub
	w.Parser = stub
	w.Validator = stub
	w.Classifier = stub
	return w
}

func seedJob(t *testing.T, store *memoryStore, blobs *memoryBlobs, id string) queue.AnalysisTask {
	t.Helper()
	objectKey := "analyses/" + id + ".jpg"
	blobs.objects[objectKey] = []byte("fake-jpeg-bytes")
	err := store.Insert(context.Background(), &models.AnalysisJob{
		ID:        id,
		Status:    models.AnalysisStatusProcessing,
		ObjectKey: objectKey,
		FileType:  "image/jpeg",
	})
	if err != nil {
		t.Fatalf("seed insert: %v", err)
	}
	return queue.AnalysisTask{AnalysisId: id, ObjectKey: objectKey, FileType: "image/jpeg"}
}

func TestProcessCompletesJobWithVerdict(t *testing.T) {
	store := newMemoryStore()
	blobs := &memoryBlobs{objects: map[string][]byte{}}
	stub := &pipelineStub{
		validation: &boleto.ValidationResult{
			Valid:  false,
			Errors: []string{"DV do código de barras inválido"},
		},
		prediction: &boleto.ClassifierResult{
			IsFraud:        true,
			Confidence:     0.91,
			Score:          87,
			PredictedClass: "fraude",
			FeaturesUsed:   map[string]interface{}{"banco": "001"},
		},
	}
	worker := newTestWorker(store, blobs, stub)
	task := seedJob(t, store, blobs, "job-1")

	worker.Process(context.Background(), task)

	job, err := store.Find(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if job.Status != models.AnalysisStatusCompleted {
		t.Fatalf("status = %s, want completed", job.Status)
	}
	if job.Error != nil {
		t.Fatalf("error set on completed job: %s", *job.Error)
	}

	var verdict explain.Verdict
	if err := json.Unmarshal(job.Result, &verdict); err != nil {
		t.Fatalf("unmarshal stored verdict: %v", err)
	}
	if !verdict.IsFraud {
		t.Fatalf("stored verdict not fraud")
	}
	if verdict.RiskLevel != explain.RiskCritical {
		t.Fatalf("stored risk level = %s, want CRITICAL", verdict.RiskLevel)
	}
	if len(verdict.Signals) != 2 {
		t.Fatalf("stored signals = %d, want 2", len(verdict.Signals))
	}
}

func TestProcessMarksJobFailedOnStageError(t *testing.T) {
	cases := []struct {
		name  string
		stub  *pipelineStub
		stage string
	}{
		{"ocr failure", &pipelineStub{extractErr: errors.New("tesseract timeout")}, "ocr:"},
		{"parse failure", &pipelineStub{parseErr: errors.New("no digit line found")}, "parse:"},
		{"validate failure", &pipelineStub{validateErr: errors.New("connection refused")}, "validate:"},
		{"predict failure", &pipelineStub{predictErr: errors.New("model not loaded")}, "predict:"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemoryStore()
			blobs := &memoryBlobs{objects: map[string][]byte{}}
			worker := newTestWorker(store, blobs, tc.stub)
			task := seedJob(t, store, blobs, "job-fail")

			worker.Process(context.Background(), task)

			job, err := store.Find(context.Background(), "job-fail")
			if err != nil {
				t.Fatalf("find: %v", err)
			}
			if job.Status != models.AnalysisStatusFailed {
				t.Fatalf("status = %s, want failed", job.Status)
			}
			if job.Error == nil || !strings.HasPrefix(*job.Error, tc.stage) {
				t.Fatalf("error = %v, want prefix %q", job.Error, tc.stage)
			}
		})
	}
}

func TestProcessMarksJobFailedOnMissingBlob(t *testing.T) {
	store := newMemoryStore()
	blobs := &memoryBlobs{objects: map[string][]byte{}}
	worker := newTestWorker(store, blobs, &pipelineStub{})

	err := store.Insert(context.Background(), &models.AnalysisJob{
		ID:        "job-noblob",
		Status:    models.AnalysisStatusProcessing,
		ObjectKey: "analyses/missing.jpg",
	})
	if err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	worker.Process(context.Background(), queue.AnalysisTask{
		AnalysisId: "job-noblob",
		ObjectKey:  "analyses/missing.jpg",
		FileType:   "image/jpeg",
	})

	job, _ := store.Find(context.Background(), "job-noblob")
	if job.Status != models.AnalysisStatusFailed {
		t.Fatalf("status = %s, want failed", job.Status)
	}
	if job.Error == nil || !strings.HasPrefix(*job.Error, "fetch file:") {
		t.Fatalf("error = %v, want fetch file prefix", job.Error)
	}
}

// Duplicate deliveries of a finished job must be no-ops.
func TestProcessSkipsAlreadyFinishedJob(t *testing.T) {
	store := newMemoryStore()
	blobs := &memoryBlobs{objects: map[string][]byte{}}
	stub := &pipelineStub{
		validation: &boleto.ValidationResult{Valid: true, Errors: []string{}},
		prediction: &boleto.ClassifierResult{
			IsFraud:      false,
			Confidence:   0.95,
			Score:        2,
			FeaturesUsed: map[string]interface{}{},
		},
	}
	worker := newTestWorker(store, blobs, stub)
	task := seedJob(t, store, blobs, "job-dup")

	worker.Process(context.Background(), task)
	first, _ := store.Find(context.Background(), "job-dup")

	// Second delivery: make the pipeline hostile so any re-run would flip
	// the row to failed.
	stub.extractErr = errors.New("should never run")
	worker.Process(context.Background(), task)

	second, _ := store.Find(context.Background(), "job-dup")
	if second.Status != models.AnalysisStatusCompleted {
		t.Fatalf("status after duplicate delivery = %s", second.Status)
	}
	if string(second.Result) != string(first.Result) {
		t.Fatalf("result changed on duplicate delivery")
	}
}

func TestProcessIgnoresUnknownJob(t *testing.T) {
	store := newMemoryStore()
	blobs := &memoryBlobs{objects: map[string][]byte{}}
	worker := newTestWorker(store, blobs, &pipelineStub{})

	// Must not panic or create rows.
	worker.Process(context.Background(), queue.AnalysisTask{
		AnalysisId: "ghost",
		ObjectKey:  "analyses/ghost.jpg",
	})

	if _, err := store.Find(context.Background(), "ghost"); !errors.Is(err, utils.ErrNotFound) {
		t.Fatalf("unexpected row for unknown job: %v", err)
	}
}
