package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/ports"
	"github.com/taskdesk/task-system/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// Dispatcher routes task audit events to a fixed set of workers using
// consistent hashing on the task id, preserving per-task event order.
type Dispatcher struct {
	workers []chan domain.TaskEvent
	repo    ports.TaskEventRepository
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.TaskEventRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.TaskEvent, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.TaskEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers exit once Close has been
// called and their queue is drained.
func (d *Dispatcher) Start() {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(i, ch)
	}
}

// Publish hands an event to the worker responsible for its task. It never
// blocks: when the worker queue is full or the dispatcher is closed the
// event is dropped and counted.
func (d *Dispatcher) Publish(event domain.TaskEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(event, "dispatcher closed")
		return
	}

	idx := d.shardIndex(event.TaskID)
	select {
	case d.workers[idx] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.drop(event, "worker queue full")
	}
}

// Close stops accepting events and waits until queued events are written
// or ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps a task id deterministically to a worker index.
func (d *Dispatcher) shardIndex(taskID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(taskID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(id int, ch <-chan domain.TaskEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for event := range ch {
		metrics.AuditQueueDepth.WithLabelValues(label).Set(float64(len(ch)))

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := d.repo.InsertEvent(ctx, event)
		cancel()
		if err != nil {
			d.log.Error().Err(err).
				Str("task_id", event.TaskID).
				Str("kind", string(event.Kind)).
				Int("worker_id", id).
				Msg("audit event write failed")
			continue
		}
		metrics.AuditEventsTotal.WithLabelValues(string(event.Kind)).Inc()
	}
}

func (d *Dispatcher) drop(event domain.TaskEvent, reason string) {
	metrics.AuditEventsDroppedTotal.Inc()
	d.log.Warn().
		Str("task_id", event.TaskID).
		Str("kind", string(event.Kind)).
		Str("reason", reason).
		Msg("audit event dropped")
}
