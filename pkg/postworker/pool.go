// Package postworker runs channel-post processing on a sharded worker pool.
// Jobs for the same channel|group key always land on the same worker, so the
// raw events of one album are handled serially in arrival order while
// unrelated channels and groups proceed in parallel.
package postworker

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Job is one unit of post-event processing.
type Job struct {
	ChannelID int64
	// GroupKey shards sibling events of a multi-part post onto one worker.
	// Ungrouped posts use their message id, keeping the shard spread even.
	GroupKey string
	Handler  func(ctx context.Context) error
}

// Stats is a point-in-time snapshot of pool counters.
type Stats struct {
	NumWorkers      int   `json:"num_workers"`
	QueueSize       int   `json:"queue_size"`
	TotalDispatched int64 `json:"total_dispatched"`
	TotalProcessed  int64 `json:"total_processed"`
	TotalDropped    int64 `json:"total_dropped"`
	TotalErrors     int64 `json:"total_errors"`
}

// Pool is a fixed set of workers, each owning a bounded job queue.
type Pool struct {
	numWorkers int
	queueSize  int
	workers    []*worker
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopped    int32

	totalDispatched int64
	totalProcessed  int64
	totalDropped    int64
	totalErrors     int64
}

type worker struct {
	id       int
	jobQueue chan Job
	ctx      context.Context
	cancel   context.CancelFunc
	pool     *Pool
}

func NewPool(numWorkers, queueSize int) *Pool {
	if numWorkers <= 0 {
		numWorkers = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Pool{
		numWorkers: numWorkers,
		queueSize:  queueSize,
		workers:    make([]*worker, numWorkers),
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		workerCtx, cancel := context.WithCancel(ctx)
		w := &worker{
			id:       i,
			jobQueue: make(chan Job, p.queueSize),
			ctx:      workerCtx,
			cancel:   cancel,
			pool:     p,
		}
		p.workers[i] = w

		p.wg.Add(1)
		go w.run(&p.wg)
	}
	logrus.Infof("[POST_WORKER] Started with %d workers, queue size: %d", p.numWorkers, p.queueSize)
}

// TryDispatch enqueues the job on its shard without blocking; false means
// the queue was full or the pool is stopped.
func (p *Pool) TryDispatch(job Job) bool {
	if atomic.LoadInt32(&p.stopped) == 1 {
		atomic.AddInt64(&p.totalDropped, 1)
		return false
	}

	shard := p.shardFor(job.ChannelID, job.GroupKey)
	atomic.AddInt64(&p.totalDispatched, 1)

	sent := func() (ok bool) {
		defer func() {
			if r := recover(); r != nil {
				ok = false // queue closed during shutdown
			}
		}()
		select {
		case p.workers[shard].jobQueue <- job:
			return true
		default:
			return false
		}
	}()
	if sent {
		return true
	}

	atomic.AddInt64(&p.totalDropped, 1)
	logrus.Warnf("[POST_WORKER] Worker %d queue full (or stopped), dropping job for channel %d group %s",
		shard, job.ChannelID, job.GroupKey)
	return false
}

func (p *Pool) Dispatch(job Job) {
	_ = p.TryDispatch(job)
}

// Stop drains gracefully: queues are closed and workers finish what they hold.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		atomic.StoreInt32(&p.stopped, 1)
		logrus.Info("[POST_WORKER] Stopping workers...")

		for _, w := range p.workers {
			close(w.jobQueue)
		}
		p.wg.Wait()
		for _, w := range p.workers {
			w.cancel()
		}

		logrus.Info("[POST_WORKER] All workers stopped")
	})
}

func (p *Pool) GetStats() Stats {
	return Stats{
		NumWorkers:      p.numWorkers,
		QueueSize:       p.queueSize,
		TotalDispatched: atomic.LoadInt64(&p.totalDispatched),
		TotalProcessed:  atomic.LoadInt64(&p.totalProcessed),
		TotalDropped:    atomic.LoadInt64(&p.totalDropped),
		TotalErrors:     atomic.LoadInt64(&p.totalErrors),
	}
}

func (p *Pool) shardFor(channelID int64, groupKey string) int {
	h := fnv.New32a()
	fmt.Fprintf(h, "%d|%s", channelID, groupKey)
	return int(h.Sum32() % uint32(p.numWorkers))
}

func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for job := range w.jobQueue {
		w.handle(job)
	}
}

// handle contains failures at the job boundary: a panicking or failing
// handler never takes down the worker or its siblings.
func (w *worker) handle(job Job) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&w.pool.totalErrors, 1)
			logrus.Errorf("[POST_WORKER] Worker %d panic on channel %d group %s: %v",
				w.id, job.ChannelID, job.GroupKey, r)
		}
	}()

	if err := job.Handler(w.ctx); err != nil {
		atomic.AddInt64(&w.pool.totalErrors, 1)
		logrus.WithError(err).Errorf("[POST_WORKER] Worker %d job failed for channel %d group %s",
			w.id, job.ChannelID, job.GroupKey)
	}
	atomic.AddInt64(&w.pool.totalProcessed, 1)
}
