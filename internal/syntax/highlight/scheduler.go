package highlight

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// task is one in-flight background re-lex pass.
type task struct {
	id      uuid.UUID
	version uint64
	cancel  context.CancelFunc
	done    chan struct{}
}

// scheduler runs at most one re-lex pass at a time. A newer edit cancels
// the in-flight task; the task yields between chunks and discards the
// rest of its work. Cancellation is not an error.
type scheduler struct {
	mu      sync.Mutex
	current *task
	log     *slog.Logger
}

func newScheduler(log *slog.Logger) *scheduler {
	return &scheduler{log: log}
}

// dispatch cancels any running task and starts run in a fresh goroutine.
// The task's logger carries its id and version so every diagnostic the
// pass emits can be tied back to the task that produced it.
func (s *scheduler) dispatch(version uint64, run func(ctx context.Context, log *slog.Logger)) {
	s.mu.Lock()
	if s.current != nil {
		s.current.cancel()
		s.log.Debug("relex task superseded",
			"task", s.current.id, "version", s.current.version, "by_version", version)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t := &task{
		id:      uuid.New(),
		version: version,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.current = t
	s.mu.Unlock()

	tlog := s.log.With("task", t.id, "version", version)
	tlog.Debug("relex task start")
	go func() {
		defer close(t.done)
		defer cancel()
		run(ctx, tlog)
		tlog.Debug("relex task done")
	}()
}

// wait blocks until the current task, if any, finishes.
func (s *scheduler) wait() {
	s.mu.Lock()
	t := s.current
	s.mu.Unlock()
	if t != nil {
		<-t.done
	}
}

// stop cancels the current task and waits it out.
func (s *scheduler) stop() {
	s.mu.Lock()
	t := s.current
	s.mu.Unlock()
	if t != nil {
		t.cancel()
		<-t.done
		s.log.Debug("relex task stopped", "task", t.id, "version", t.version)
	}
}
