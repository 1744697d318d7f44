package poller

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Level is the observable value of a poller
type Level string

const (
	Loading     Level = "loading"
	Online      Level = "online"
	Offline     Level = "offline"
	Available   Level = "available"
	Unavailable Level = "unavailable"
)

// Status is the latest outcome of a check
type Status struct {
	Level     Level
	Message   string
	CheckedAt time.Time
	Detail    any
}

// Check performs one status check. It must not return an error: a failed check is
// reported as an Offline or Unavailable status.
type Check func(ctx context.Context) Status

// Handle controls a running poller
type Handle struct {
	cron     *cron.Cron
	check    Check
	onChange func(Status)
	timeout  time.Duration
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	status  Status
	stopped bool
}

// StartPolling runs check immediately in the background and then every
// interval. Intervals below one second are rounded up to one second.
// onChange, if set, is called after every check. A tick that fires while a
// check (including the immediate one) is still running is skipped.
func StartPolling(interval time.Duration, check Check, onChange func(Status)) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		cron:     cron.New(),
		check:    check,
		onChange: onChange,
		timeout:  interval,
		logger:   log.With().Str("component", "poller").Logger(),
		ctx:      ctx,
		cancel:   cancel,
		status:   Status{Level: Loading},
	}

	// the immediate run and the scheduled runs share one guard
	job := cron.NewChain(
		cron.Recover(cron.DiscardLogger),
		cron.SkipIfStillRunning(cron.DiscardLogger),
	).Then(cron.FuncJob(h.run))

	h.cron.Schedule(cron.Every(interval), job)
	h.cron.Start()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		job.Run()
	}()

	return h
}

// Status returns the latest observed status
func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Stop cancels the schedule and any running check and waits for them to
// return. No onChange call happens after Stop returns.
func (h *Handle) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	h.cancel()
	<-h.cron.Stop().Done()
	h.wg.Wait()
}

func (h *Handle) run() {
	if h.ctx.Err() != nil {
		return
	}

	timeout := h.timeout
	if timeout < time.Second {
		timeout = time.Second
	}
	ctx, cancel := context.WithTimeout(h.ctx, timeout)
	defer cancel()

	status := h.check(ctx)
	if status.CheckedAt.IsZero() {
		status.CheckedAt = time.Now()
	}

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	changed := status.Level != h.status.Level
	h.status = status
	onChange := h.onChange
	h.mu.Unlock()

	if changed {
		h.logger.Info().Str("level", string(status.Level)).Str("message", status.Message).Msg("Status changed")
	}
	if onChange != nil {
		onChange(status)
	}
}
