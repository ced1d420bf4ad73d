package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/amand4priscil4/DetectaBB-Backend-3/config"
	"github.com/amand4priscil4/DetectaBB-Backend-3/utils"
	"github.com/redis/go-redis/v9"
)

// JobsListKey is the Redis list the worker pool pops analysis work from.
const JobsListKey = "boletos:jobs"

// AnalysisTask is one unit of work handed to the worker pool. It references
// the uploaded file by blob-store key rather than carrying the bytes.
type AnalysisTask struct {
	AnalysisId string `json:"analise_id"`
	ObjectKey  string `json:"object_key"`
	FileType   string `json:"file_type"`
}

// Publisher is the gateway's side of the work queue: append-only, at-least-once.
type Publisher interface {
	Publish(ctx context.Context, task AnalysisTask) error
}

func DecodeTask(data []byte) (AnalysisTask, error) {
	var task AnalysisTask
	if err := json.Unmarshal(data, &task); err != nil {
		return AnalysisTask{}, err
	}
	if task.AnalysisId == "" || task.ObjectKey == "" {
		return AnalysisTask{}, fmt.Errorf("%w: analise_id and object_key are required", utils.ErrInvalidInput)
	}
	return task, nil
}

// RedisQueue is the default work queue: RPUSH on publish, blocking LPOP on
// consume, mirroring the original boletos:jobs list.
type RedisQueue struct {
	Client *redis.Client
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{Client: client}
}

// client falls back to the shared connection so the queue can be handed to
// handlers before ConnectRedisWithRetry has finished.
func (q *RedisQueue) client() *redis.Client {
	if q.Client != nil {
		return q.Client
	}
	return config.GetRedisDB()
}

func (q *RedisQueue) Publish(ctx context.Context, task AnalysisTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.client().RPush(ctx, JobsListKey, data).Err()
}

// Pop blocks up to timeout for the next task. Returns (nil, nil) when the
// queue stayed empty, so poll loops can check ctx and try again.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (*AnalysisTask, error) {
	res, err := q.client().BLPop(ctx, timeout, JobsListKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// BLPOP returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BLPOP reply of length %d", len(res))
	}
	task, err := DecodeTask([]byte(res[1]))
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// PubSubTopicName returns the optional Pub/Sub topic for queue fan-out.
// Empty means the Redis list is the only transport.
func PubSubTopicName() string {
	return strings.TrimSpace(os.Getenv("ANALYSIS_PUBSUB_TOPIC"))
}
