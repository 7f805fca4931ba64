package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-vector/pkg/robot"
)

// torchRefresh is how long each white screen lasts before it is repainted.
var torchRefresh = time.Second

// torch keeps the face screen white while enabled. The screen only holds a
// color for a fixed duration, so a goroutine repaints it until switched off.
type torch struct {
	robot  Robot
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func newTorch(r Robot, logger *slog.Logger) *torch {
	return &torch{robot: r, logger: logger}
}

func (t *torch) on() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return
	}

	if err := t.robot.SetEyeColor(eyeHue, torchSaturation); err != nil {
		t.logger.Warn("torch: set eye color failed", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.run(ctx, t.done)
	t.logger.Info("torch on")
}

func (t *torch) off() {
	t.stop()
	if err := t.robot.SetEyeColor(eyeHue, eyeSaturation); err != nil {
		t.logger.Warn("torch: set eye color failed", "error", err)
	}
	if err := t.robot.SetScreenColor(robot.Black, 10*time.Millisecond, true); err != nil {
		t.logger.Warn("torch: clear screen failed", "error", err)
	}
	t.logger.Info("torch off")
}

// stop ends the refresh loop, if running, and waits for it to exit.
func (t *torch) stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (t *torch) running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

func (t *torch) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(torchRefresh)
	defer ticker.Stop()

	for {
		if err := t.robot.SetScreenColor(robot.White, torchRefresh, true); err != nil {
			t.logger.Warn("torch: set screen color failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
