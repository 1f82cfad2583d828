package taskpool

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Task is a unit of fire-and-forget work. Tasks sharing a Partition run on the
// same worker, so side effects for one agent (counters, knowledge writes, mails)
// are applied in dispatch order.
type Task struct {
	Partition string
	Name      string
	Handler   func(ctx context.Context) error
}

// PoolStats is a point-in-time snapshot of the pool.
type PoolStats struct {
	NumWorkers       int            `json:"num_workers"`
	QueueSize        int            `json:"queue_size"`
	ActiveWorkers    int            `json:"active_workers"`
	TotalDispatched  int64          `json:"total_dispatched"`
	TotalProcessed   int64          `json:"total_processed"`
	TotalDropped     int64          `json:"total_dropped"`
	TotalErrors      int64          `json:"total_errors"`
	WorkerStats      []WorkerStats  `json:"worker_stats"`
	ActivePartitions map[string]int `json:"active_partitions"` // partition -> worker_id
	UptimeSeconds    int64          `json:"uptime_seconds"`
}

type WorkerStats struct {
	WorkerID      int   `json:"worker_id"`
	QueueDepth    int   `json:"queue_depth"`
	IsProcessing  bool  `json:"is_processing"`
	TasksComplete int64 `json:"tasks_complete"`
}

type activeEntry struct {
	workerID  int
	updatedAt time.Time
}

// TaskPool runs tasks on a fixed set of workers, each with its own bounded queue.
type TaskPool struct {
	numWorkers int
	queueSize  int
	workers    []*worker
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopped    int32
	stopCh     chan struct{}

	totalDispatched int64
	totalProcessed  int64
	totalDropped    int64
	totalErrors     int64
	activeMu        sync.Mutex
	active          map[string]activeEntry
	startTime       time.Time

	// Optional hooks for external monitoring
	OnTaskStart func(workerID int, task Task)
	OnTaskEnd   func(workerID int, task Task, err error)
}

type worker struct {
	id            int
	queue         chan Task
	ctx           context.Context
	cancel        context.CancelFunc
	isProcessing  int32
	tasksComplete int64
	pool          *TaskPool
}

// NewTaskPool creates a pool; Start must be called before dispatching.
func NewTaskPool(numWorkers, queueSize int) *TaskPool {
	if numWorkers <= 0 {
		numWorkers = 4
	}
	if queueSize <= 0 {
		queueSize = 100
	}

	return &TaskPool{
		numWorkers: numWorkers,
		queueSize:  queueSize,
		workers:    make([]*worker, numWorkers),
		active:     make(map[string]activeEntry),
		stopCh:     make(chan struct{}),
		startTime:  time.Now(),
	}
}

// Start launches the workers and the janitor that expires stale partition entries.
func (p *TaskPool) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.stopCh:
				return
			case <-ticker.C:
				p.expireActive(time.Now())
			}
		}
	}()

	for i := 0; i < p.numWorkers; i++ {
		workerCtx, cancel := context.WithCancel(ctx)
		w := &worker{
			id:     i,
			queue:  make(chan Task, p.queueSize),
			ctx:    workerCtx,
			cancel: cancel,
			pool:   p,
		}
		p.workers[i] = w

		p.wg.Add(1)
		go w.run(&p.wg)
	}

	logrus.Infof("[TASK_POOL] Started with %d workers, queue size: %d", p.numWorkers, p.queueSize)
}

// TryDispatch enqueues the task without blocking and reports whether it was accepted.
// A full queue or a stopped pool drops the task.
func (p *TaskPool) TryDispatch(task Task) bool {
	if atomic.LoadInt32(&p.stopped) == 1 {
		atomic.AddInt64(&p.totalDropped, 1)
		return false
	}

	shard := p.shardFor(task.Partition)
	atomic.AddInt64(&p.totalDispatched, 1)

	p.activeMu.Lock()
	p.active[task.Partition] = activeEntry{workerID: shard, updatedAt: time.Now()}
	p.activeMu.Unlock()

	sent := func() (ok bool) {
		// queue may be closed concurrently by Stop
		defer func() {
			if r := recover(); r != nil {
				ok = false
			}
		}()
		select {
		case p.workers[shard].queue <- task:
			return true
		default:
			return false
		}
	}()

	if sent {
		return true
	}

	p.activeMu.Lock()
	delete(p.active, task.Partition)
	p.activeMu.Unlock()

	atomic.AddInt64(&p.totalDropped, 1)
	logrus.Warnf("[TASK_POOL] Worker %d queue full (or stopped), dropping task %s for %s", shard, task.Name, task.Partition)
	return false
}

// Dispatch is TryDispatch without the result.
func (p *TaskPool) Dispatch(task Task) {
	_ = p.TryDispatch(task)
}

// Stop drains the queues and waits for every worker to exit.
func (p *TaskPool) Stop() {
	p.stopOnce.Do(func() {
		atomic.StoreInt32(&p.stopped, 1)
		close(p.stopCh)
		logrus.Info("[TASK_POOL] Stopping workers...")

		for _, w := range p.workers {
			if w == nil {
				continue
			}
			w.cancel()
			close(w.queue)
		}
		p.wg.Wait()

		logrus.Info("[TASK_POOL] All workers stopped")
	})
}

func (p *TaskPool) shardFor(partition string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(partition))
	return int(h.Sum32() % uint32(p.numWorkers))
}

func (p *TaskPool) expireActive(now time.Time) {
	p.activeMu.Lock()
	defer p.activeMu.Unlock()
	for k, v := range p.active {
		if now.Sub(v.updatedAt) > 2*time.Second {
			delete(p.active, k)
		}
	}
}

// GetStats returns a snapshot of the pool counters.
func (p *TaskPool) GetStats() PoolStats {
	workerStats := make([]WorkerStats, 0, len(p.workers))
	activeWorkers := 0

	for _, w := range p.workers {
		if w == nil {
			continue
		}
		isProcessing := atomic.LoadInt32(&w.isProcessing) == 1
		if isProcessing {
			activeWorkers++
		}
		workerStats = append(workerStats, WorkerStats{
			WorkerID:      w.id,
			QueueDepth:    len(w.queue),
			IsProcessing:  isProcessing,
			TasksComplete: atomic.LoadInt64(&w.tasksComplete),
		})
	}

	p.expireActive(time.Now())
	p.activeMu.Lock()
	snapshot := make(map[string]int, len(p.active))
	for k, v := range p.active {
		snapshot[k] = v.workerID
	}
	p.activeMu.Unlock()

	return PoolStats{
		NumWorkers:       p.numWorkers,
		QueueSize:        p.queueSize,
		ActiveWorkers:    activeWorkers,
		TotalDispatched:  atomic.LoadInt64(&p.totalDispatched),
		TotalProcessed:   atomic.LoadInt64(&p.totalProcessed),
		TotalDropped:     atomic.LoadInt64(&p.totalDropped),
		TotalErrors:      atomic.LoadInt64(&p.totalErrors),
		WorkerStats:      workerStats,
		ActivePartitions: snapshot,
		UptimeSeconds:    int64(time.Since(p.startTime).Seconds()),
	}
}

func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()
	logrus.Debugf("[TASK_POOL] Worker %d started", w.id)

	for {
		select {
		case task, ok := <-w.queue:
			if !ok {
				logrus.Debugf("[TASK_POOL] Worker %d shutting down", w.id)
				return
			}
			w.execute(task)

		case <-w.ctx.Done():
			logrus.Debugf("[TASK_POOL] Worker %d context cancelled, draining queue...", w.id)
			w.drain()
			return
		}
	}
}

func (w *worker) execute(task Task) {
	var err error
	if w.pool.OnTaskStart != nil {
		w.pool.OnTaskStart(w.id, task)
	}
	atomic.StoreInt32(&w.isProcessing, 1)
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&w.pool.totalErrors, 1)
			logrus.Errorf("[TASK_POOL] Worker %d panic in task %s for %s: %v", w.id, task.Name, task.Partition, r)
		}
		if w.pool.OnTaskEnd != nil {
			w.pool.OnTaskEnd(w.id, task, err)
		}
		atomic.StoreInt32(&w.isProcessing, 0)
		atomic.AddInt64(&w.tasksComplete, 1)
		atomic.AddInt64(&w.pool.totalProcessed, 1)
	}()

	// Task contexts outlive the dispatching request; only pool shutdown cancels them.
	err = task.Handler(context.WithoutCancel(w.ctx))
	if err != nil {
		atomic.AddInt64(&w.pool.totalErrors, 1)
		logrus.WithError(err).Errorf("[TASK_POOL] Worker %d task %s failed for %s", w.id, task.Name, task.Partition)
	}
}

func (w *worker) drain() {
	for {
		select {
		case task, ok := <-w.queue:
			if !ok {
				return
			}
			w.execute(task)
		default:
			return
		}
	}
}
