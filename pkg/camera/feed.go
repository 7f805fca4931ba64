package camera

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-vector/internal/log"
)

// frame is one published image.
type frame struct {
	img image.Image
	at  time.Time
}

// Feed is the latest camera frame, shared by one producer and any number of
// viewers. Publish never blocks on viewers.
type Feed struct {
	cfg    atomic.Pointer[FeedConfig]
	latest atomic.Pointer[frame]
	seq    atomic.Uint64

	mu   sync.Mutex
	wake chan struct{} // closed and replaced on every Publish

	streams atomic.Int64 // multipart streams
	relays  atomic.Int64 // bare frame sources
}

// NewFeed creates an empty feed.
func NewFeed(cfg FeedConfig) *Feed {
	f := &Feed{wake: make(chan struct{})}
	f.cfg.Store(&cfg)
	return f
}

// SetConfig replaces the feed settings. Running streams pick them up on
// their next frame.
func (f *Feed) SetConfig(cfg FeedConfig) {
	f.cfg.Store(&cfg)
}

// Config returns the current feed settings.
func (f *Feed) Config() FeedConfig {
	return *f.cfg.Load()
}

// Publish makes img the current frame and wakes waiting streams.
func (f *Feed) Publish(img image.Image) {
	if img == nil {
		return
	}
	f.latest.Store(&frame{img: img, at: time.Now()})
	f.seq.Add(1)

	f.mu.Lock()
	close(f.wake)
	f.wake = make(chan struct{})
	f.mu.Unlock()
}

// Latest returns the current frame, or the placeholder if none has been
// published yet. ok is false for the placeholder.
func (f *Feed) Latest() (img image.Image, ok bool) {
	if fr := f.latest.Load(); fr != nil {
		return fr.img, true
	}
	cfg := f.Config()
	return Placeholder(cfg.Width, cfg.Height), false
}

// LastFrameAt returns when the current frame was published, or the zero
// time before the first frame.
func (f *Feed) LastFrameAt() time.Time {
	if fr := f.latest.Load(); fr != nil {
		return fr.at
	}
	return time.Time{}
}

// Published returns how many frames have been published.
func (f *Feed) Published() uint64 {
	return f.seq.Load()
}

// Streams returns the number of running multipart streams.
func (f *Feed) Streams() int {
	return int(f.streams.Load())
}

// Relays returns the number of running Frames sources.
func (f *Feed) Relays() int {
	return int(f.relays.Load())
}

// Snapshot encodes the current frame once.
func (f *Feed) Snapshot() (data []byte, contentType string, err error) {
	cfg := f.Config()
	img, _ := f.Latest()
	data, err = Encode(img, cfg)
	if err != nil {
		return nil, "", err
	}
	return data, cfg.ContentType(), nil
}

// Stream starts a goroutine that sends the current frame as a multipart part
// whenever a new frame is published, or after PollInterval without one.
// The channel is closed once ctx is done; callers cancel ctx when their
// client disconnects.
func (f *Feed) Stream(ctx context.Context) <-chan []byte {
	return f.run(ctx, Part, &f.streams)
}

// Frames is like Stream but sends bare encoded frames. Frames sources are
// counted by Relays, not Streams.
func (f *Feed) Frames(ctx context.Context) <-chan []byte {
	return f.run(ctx, nil, &f.relays)
}

func (f *Feed) run(ctx context.Context, wrap func(data []byte, contentType string) []byte, count *atomic.Int64) <-chan []byte {
	out := make(chan []byte)
	n := count.Add(1)

	go func() {
		defer close(out)
		defer count.Add(-1)

		logger := log.Component("camera")
		logger.Debug("stream started", "running", n)
		defer logger.Debug("stream stopped")

		for {
			wake := f.changed()

			cfg := f.Config()
			img, _ := f.Latest()
			data, err := Encode(img, cfg)
			if err != nil {
				logger.Warn("frame encode failed", "error", err)
			} else {
				if wrap != nil {
					data = wrap(data, cfg.ContentType())
				}
				select {
				case out <- data:
				case <-ctx.Done():
					return
				}
			}

			timer := time.NewTimer(cfg.PollInterval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-wake:
				timer.Stop()
			case <-timer.C:
			}
		}
	}()

	return out
}

func (f *Feed) changed() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wake
}
