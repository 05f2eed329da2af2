package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/gopacket/afpacket"
	"github.com/sirupsen/logrus"

	"firestige.xyz/strix/internal/fastpath"
	"firestige.xyz/strix/internal/metrics"
)

// openHandle is swapped in tests; production workers open AF_PACKET rings.
var openHandle = NewAFPacketHandle

// openInjector is swapped in tests.
var openInjector = NewInjector

// Engine runs N receive workers, each with its own ring handle and frame
// buffer, all sharing one pipeline. Frames are processed synchronously
// within the worker; there is no cross-frame ordering guarantee.
type Engine struct {
	opts     Options
	workers  int
	pipeline *fastpath.Pipeline

	wg sync.WaitGroup
}

// NewEngine creates an engine with the given worker count.
func NewEngine(opts Options, workers int, pipeline *fastpath.Pipeline) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{opts: opts, workers: workers, pipeline: pipeline}
}

// Run starts the workers and blocks until ctx is cancelled and all workers
// have drained.
func (e *Engine) Run(ctx context.Context) error {
	logrus.WithFields(logrus.Fields{
		"device":  e.opts.Device,
		"port":    e.opts.Port,
		"workers": e.workers,
	}).Info("starting capture engine")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, e.workers)
	for i := 0; i < e.workers; i++ {
		handle, err := openHandle(e.opts)
		if err != nil {
			// Stop and drain any workers already started before
			// reporting the failed one.
			cancel()
			e.wg.Wait()
			return fmt.Errorf("worker %d: %w", i, err)
		}
		tx, err := openInjector(e.opts.Device, e.opts.SnapLen)
		if err != nil {
			handle.Close()
			cancel()
			e.wg.Wait()
			return fmt.Errorf("worker %d: %w", i, err)
		}

		e.wg.Add(1)
		go func(id int, handle Handle, tx Transmitter) {
			defer e.wg.Done()
			defer handle.Close()
			defer tx.Close()
			if err := e.workerLoop(ctx, id, handle, tx); err != nil {
				errCh <- err
			}
		}(i, handle, tx)
	}

	e.wg.Wait()
	close(errCh)
	return <-errCh // nil when the channel is empty
}

// workerLoop reads frames until the context is cancelled. Each worker owns
// one reusable Frame, so the steady state allocates nothing.
func (e *Engine) workerLoop(ctx context.Context, id int, handle Handle, tx Transmitter) error {
	frame := fastpath.NewFrame(make([]byte, 0, e.opts.SnapLen))

	for {
		if ctx.Err() != nil {
			return nil
		}

		data, _, err := handle.ReadPacketData()
		if err != nil {
			if errors.Is(err, afpacket.ErrTimeout) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("worker %d read failed: %w", id, err)
		}

		frame.SetData(data)
		start := time.Now()
		verdict := e.pipeline.Process(frame)
		metrics.FramesTotal.WithLabelValues(verdict.String()).Inc()

		switch verdict {
		case fastpath.VerdictTransmit:
			metrics.ResponseBuildSeconds.Observe(time.Since(start).Seconds())
			if err := tx.WritePacketData(frame.Bytes()); err != nil {
				// The frame is gone either way; count it and move on.
				metrics.TransmitErrorsTotal.Inc()
				continue
			}
			metrics.ResponsesTotal.Inc()
		case fastpath.VerdictPassThrough:
			// The kernel stack saw the original frame already; nothing
			// to do on a tap socket.
		case fastpath.VerdictDrop:
			// No response and no retry; the client times out.
		}
	}
}
