package jobqueue

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/avdeevk/lms-api/model"
)

const (
	// Redis key layout
	jobKeyPrefix = "job:"
	jobQueueKey  = "job_queue"

	// JobTTL bounds how long an unprocessed job payload survives in Redis
	JobTTL = 24 * time.Hour
)

// Job is the unit of work passed through Redis
type Job struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Handler executes a named job and returns a human-readable status string.
// Handlers must be idempotent: the queue delivers at least once.
type Handler func(ctx context.Context, payload json.RawMessage) string

// Enqueuer is the producer side of the queue. Request handlers depend on
// this interface so tests can substitute a recorder.
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, payload interface{}) (string, error)
}

// Queue manages background jobs using Redis as the broker
type Queue struct {
	client   *redis.Client
	db       *gorm.DB
	handlers map[string]Handler
	workers  int
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

// NewQueue creates a new job queue
func NewQueue(client *redis.Client, db *gorm.DB, workers int) *Queue {
	if workers <= 0 {
		workers = 3
	}

	return &Queue{
		client:   client,
		db:       db,
		handlers: make(map[string]Handler),
		workers:  workers,
		stopCh:   make(chan struct{}),
	}
}

// Register binds a handler to a job name. Must be called before Start.
func (q *Queue) Register(name string, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[name] = handler
}

// Enqueue serializes the payload and pushes a job onto the queue
func (q *Queue) Enqueue(ctx context.Context, name string, payload interface{}) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	job := Job{
		ID:        uuid.New().String(),
		Name:      name,
		Payload:   data,
		CreatedAt: time.Now(),
	}

	encoded, err := json.Marshal(job)
	if err != nil {
		return "", err
	}

	if err := q.client.Set(ctx, jobKeyPrefix+job.ID, encoded, JobTTL).Err(); err != nil {
		return "", err
	}
	if err := q.client.LPush(ctx, jobQueueKey, job.ID).Err(); err != nil {
		return "", err
	}

	return job.ID, nil
}

// Start launches the worker goroutines
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}
	q.running = true

	log.Printf("[QUEUE] Starting %d workers", q.workers)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop signals the workers and waits for them to drain
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return
	}

	log.Println("[QUEUE] Stopping workers...")
	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	log.Println("[QUEUE] All workers stopped")
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			return
		default:
		}

		result, err := q.client.BRPop(ctx, 2*time.Second, jobQueueKey).Result()
		if err != nil {
			if err != redis.Nil {
				log.Printf("[QUEUE] Worker %d: BRPop error: %v", id, err)
				time.Sleep(time.Second)
			}
			continue
		}

		// result[0] is the queue key, result[1] the job id
		if len(result) < 2 {
			continue
		}
		q.process(ctx, result[1])
	}
}

func (q *Queue) process(ctx context.Context, jobID string) {
	jobKey := jobKeyPrefix + jobID

	data, err := q.client.Get(ctx, jobKey).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[QUEUE] Failed to load job %s: %v", jobID, err)
		}
		return
	}

	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		log.Printf("[QUEUE] Failed to decode job %s: %v", jobID, err)
		q.client.Del(ctx, jobKey)
		return
	}

	q.mu.Lock()
	handler, ok := q.handlers[job.Name]
	q.mu.Unlock()
	if !ok {
		log.Printf("[QUEUE] No handler registered for job %q", job.Name)
		q.client.Del(ctx, jobKey)
		return
	}

	jobLog := model.CronJobLog{
		JobName:   job.Name,
		Status:    "running",
		StartedAt: time.Now(),
		Metadata:  datatypes.JSON(job.Payload),
	}
	q.db.Create(&jobLog)

	status := handler(ctx, job.Payload)
	log.Printf("[QUEUE] Job %s (%s): %s", job.Name, job.ID, status)

	now := time.Now()
	q.db.Model(&jobLog).Updates(map[string]interface{}{
		"status":       "completed",
		"completed_at": now,
		"message":      status,
	})

	q.client.Del(ctx, jobKey)
}
