package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/recapdeck/internal/adapters/mq/queue"
	"github.com/okian/recapdeck/internal/adapters/mq/worker"
	"github.com/okian/recapdeck/internal/domain/model"
	"github.com/okian/recapdeck/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	tasks chan queue.Task
	once  sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{tasks: make(chan queue.Task, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Task {
	return mq.tasks
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.tasks) })
	return nil
}

type recorder struct {
	mu       sync.Mutex
	done     []string
	failFor  map[string]error
	delay    time.Duration
	deadline bool
	calls    chan string
}

func newRecorder() *recorder {
	return &recorder{failFor: make(map[string]error), calls: make(chan string, 100)}
}

func (r *recorder) Process(ctx context.Context, t worker.Task) error {
	defer func() { r.calls <- t.JobID }()
	_, r.deadline = ctx.Deadline()
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failFor[t.JobID]; err != nil {
		return err
	}
	r.done = append(r.done, t.JobID)
	return nil
}

func (r *recorder) processed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.done...)
}

func wait(calls <-chan string, n int) bool {
	timeout := time.After(2 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-calls:
		case <-timeout:
			return false
		}
	}
	return true
}

func task(id string) model.Task { return model.Task{JobID: id} }

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		q := newMockQueue()
		rec := newRecorder()
		w := worker.NewInMemoryWorker(q, rec, worker.WithName("w-test"), worker.WithLogger(logger.Nop()))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When tasks are queued", func() {
			q.tasks <- task("a")
			q.tasks <- task("b")

			convey.Convey("Then each task is processed in order under a deadline", func() {
				convey.So(wait(rec.calls, 2), convey.ShouldBeTrue)
				convey.So(rec.processed(), convey.ShouldResemble, []string{"a", "b"})
				convey.So(rec.deadline, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a task fails", func() {
			rec.mu.Lock()
			rec.failFor["bad"] = errors.New("boom")
			rec.mu.Unlock()
			q.tasks <- task("bad")
			q.tasks <- task("good")

			convey.Convey("Then the worker keeps going", func() {
				convey.So(wait(rec.calls, 2), convey.ShouldBeTrue)
				convey.So(rec.processed(), convey.ShouldResemble, []string{"good"})
			})
		})

		convey.Convey("When the worker is shut down", func() {
			err := w.Shutdown(context.Background())

			convey.Convey("Then it stops without error and a second shutdown is harmless", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})
}

func TestInMemoryWorker_Timeout(t *testing.T) {
	convey.Convey("Given a worker with a short job timeout", t, func() {
		q := newMockQueue()
		rec := newRecorder()
		rec.delay = time.Second
		w := worker.NewInMemoryWorker(q, rec, worker.WithJobTimeout(20*time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		q.tasks <- task("slow")

		convey.Convey("Then the task is cut off at the deadline", func() {
			convey.So(wait(rec.calls, 1), convey.ShouldBeTrue)
			convey.So(rec.processed(), convey.ShouldBeEmpty)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over the in-memory queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(50))
		var (
			mu    sync.Mutex
			count int
		)
		calls := make(chan string, 50)
		proc := worker.ProcessorFunc(func(ctx context.Context, tk worker.Task) error {
			mu.Lock()
			count++
			mu.Unlock()
			calls <- tk.JobID
			return nil
		})
		pool := worker.NewPool(4, q, proc, logger.Nop())
		convey.So(pool.Size(), convey.ShouldEqual, 4)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		for i := 0; i < 20; i++ {
			convey.So(q.Enqueue(ctx, task(fmt.Sprintf("job-%d", i))), convey.ShouldBeNil)
		}

		convey.Convey("Then every task is processed once and shutdown drains cleanly", func() {
			convey.So(wait(calls, 20), convey.ShouldBeTrue)
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
			convey.So(q.IsClosed(), convey.ShouldBeTrue)
			mu.Lock()
			defer mu.Unlock()
			convey.So(count, convey.ShouldEqual, 20)
		})
	})

	convey.Convey("Given a non-positive worker count", t, func() {
		pool := worker.NewPool(0, newMockQueue(), worker.ProcessorFunc(func(context.Context, worker.Task) error { return nil }), nil)
		convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
	})
}
