package robot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-vector/internal/httpc"
	"github.com/teslashibe/go-vector/internal/log"
)

// Defaults for the bridge connection.
const (
	DefaultCommandBuffer = 64
	DefaultPollInterval  = 100 * time.Millisecond
)

// command is a queued bridge POST. A setpoint replaces any pending command
// for the same path; other commands are one-shot actions sent in order.
type command struct {
	path     string
	payload  any
	setpoint bool
}

// HTTPController implements Controller using the robot bridge's HTTP API.
//
// Motor, behavior and action calls never block on the network: they are
// queued and sent in order by the dispatch loop started with Run. Motor,
// eye and screen calls are setpoints, so only the newest one per endpoint
// is kept while it waits. Failures are logged, not returned. Telemetry is
// polled on its own goroutine and served from a cache.
type HTTPController struct {
	BaseURL string

	client       *http.Client
	pollInterval time.Duration
	logger       *slog.Logger

	queueMu sync.Mutex
	queue   []command
	actions int // one-shot commands in queue
	wake    chan struct{}

	mu    sync.RWMutex
	state State

	sentCount  atomic.Uint64
	errorCount atomic.Uint64
}

// NewHTTPController creates a new HTTP-based robot controller.
func NewHTTPController(baseURL string) *HTTPController {
	return &HTTPController{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		client:       httpc.Client,
		wake:         make(chan struct{}, 1),
		pollInterval: DefaultPollInterval,
		logger:       log.Component("robot"),
	}
}

// SetPollInterval changes how often telemetry is refreshed. Call before Run.
func (r *HTTPController) SetPollInterval(d time.Duration) {
	if d > 0 {
		r.pollInterval = d
	}
}

// Connect verifies the bridge is reachable and loads the first telemetry
// snapshot.
func (r *HTTPController) Connect(ctx context.Context) error {
	if err := r.refreshState(ctx); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotConnected, r.BaseURL, err)
	}
	return nil
}

// Run sends queued commands until ctx is cancelled. Telemetry is polled on
// a separate goroutine.
func (r *HTTPController) Run(ctx context.Context) error {
	go r.pollState(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.wake:
			for {
				cmd, ok := r.next()
				if !ok {
					break
				}
				r.send(ctx, cmd)
				if ctx.Err() != nil {
					return ctx.Err()
				}
			}
		}
	}
}

func (r *HTTPController) pollState(ctx context.Context) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.refreshState(ctx); err != nil && ctx.Err() == nil {
				r.logger.Debug("telemetry poll failed", "error", err)
			}
		}
	}
}

// SetWheelMotors sets both wheel speeds (mm/s) and accelerations (mm/s²).
func (r *HTTPController) SetWheelMotors(leftSpeed, rightSpeed, leftAccel, rightAccel float64) error {
	return r.setpoint("/api/motors/wheels", map[string]float64{
		"left_wheel_speed":  leftSpeed,
		"right_wheel_speed": rightSpeed,
		"left_wheel_accel":  leftAccel,
		"right_wheel_accel": rightAccel,
	})
}

// SetLiftMotor sets the lift motor speed (rad/s).
func (r *HTTPController) SetLiftMotor(speed float64) error {
	return r.setpoint("/api/motors/lift", map[string]float64{"speed": speed})
}

// SetHeadMotor sets the head motor speed (rad/s).
func (r *HTTPController) SetHeadMotor(speed float64) error {
	return r.setpoint("/api/motors/head", map[string]float64{"speed": speed})
}

// DriveOnCharger asks the robot to dock. Repeated calls are harmless.
func (r *HTTPController) DriveOnCharger() error {
	return r.enqueue("/api/behavior/drive_on_charger", nil)
}

// SetEyeColor sets the eye color (hue and saturation in 0..1).
func (r *HTTPController) SetEyeColor(hue, saturation float64) error {
	return r.setpoint("/api/behavior/eye_color", map[string]float64{
		"hue":        hue,
		"saturation": saturation,
	})
}

// SetScreenColor fills the face display with a color for duration.
func (r *HTTPController) SetScreenColor(c Color, duration time.Duration, interruptRunning bool) error {
	return r.setpoint("/api/screen/color", map[string]any{
		"color":             c,
		"duration_sec":      duration.Seconds(),
		"interrupt_running": interruptRunning,
	})
}

// PlayAnimation plays a named animation.
func (r *HTTPController) PlayAnimation(name string) error {
	return r.enqueue("/api/anim/play", map[string]string{"name": name})
}

// SayText speaks text through the robot's speaker.
func (r *HTTPController) SayText(text string) error {
	return r.enqueue("/api/say", map[string]string{"text": text})
}

// ReleaseControl hands behavior control back to the robot (freeplay).
func (r *HTTPController) ReleaseControl() error {
	return r.enqueue("/api/control/release", nil)
}

// RequestControl takes behavior control from the robot.
func (r *HTTPController) RequestControl() error {
	return r.enqueue("/api/control/request", nil)
}

// ListAnimations fetches the robot's animation names. This call is synchronous.
func (r *HTTPController) ListAnimations(ctx context.Context) ([]string, error) {
	var resp struct {
		Animations []string `json:"animations"`
	}
	if err := r.getJSON(ctx, "/api/anim/list", &resp); err != nil {
		return nil, fmt.Errorf("list animations: %w", err)
	}
	return resp.Animations, nil
}

// HeadAngleRad returns the cached head angle.
func (r *HTTPController) HeadAngleRad() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.HeadAngleRad
}

// State returns the cached telemetry snapshot.
func (r *HTTPController) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Stats returns the number of commands sent and failed.
func (r *HTTPController) Stats() (sent, failed uint64) {
	return r.sentCount.Load(), r.errorCount.Load()
}

// enqueue queues a one-shot command without blocking. It fails with
// ErrCommandDropped once DefaultCommandBuffer actions are waiting.
func (r *HTTPController) enqueue(path string, payload any) error {
	r.queueMu.Lock()
	if r.actions >= DefaultCommandBuffer {
		r.queueMu.Unlock()
		r.logger.Warn("command dropped", "path", path)
		return ErrCommandDropped
	}
	r.queue = append(r.queue, command{path: path, payload: payload})
	r.actions++
	r.queueMu.Unlock()

	r.signal()
	return nil
}

// setpoint queues a command that supersedes any pending one for path.
// The newest value goes to the back of the queue and is never dropped.
func (r *HTTPController) setpoint(path string, payload any) error {
	r.queueMu.Lock()
	for i, cmd := range r.queue {
		if cmd.setpoint && cmd.path == path {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			break
		}
	}
	r.queue = append(r.queue, command{path: path, payload: payload, setpoint: true})
	r.queueMu.Unlock()

	r.signal()
	return nil
}

func (r *HTTPController) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// next pops the oldest queued command.
func (r *HTTPController) next() (command, bool) {
	r.queueMu.Lock()
	defer r.queueMu.Unlock()

	if len(r.queue) == 0 {
		return command{}, false
	}
	cmd := r.queue[0]
	r.queue[0] = command{}
	r.queue = r.queue[1:]
	if !cmd.setpoint {
		r.actions--
	}
	return cmd, true
}

// Pending returns the number of commands waiting to be sent.
func (r *HTTPController) Pending() int {
	r.queueMu.Lock()
	defer r.queueMu.Unlock()
	return len(r.queue)
}

// send posts one command. Errors are logged, rate limited.
func (r *HTTPController) send(ctx context.Context, cmd command) {
	err := r.postJSON(ctx, cmd.path, cmd.payload)
	r.sentCount.Add(1)
	if err == nil {
		return
	}

	n := r.errorCount.Add(1)
	if n%100 == 1 {
		r.logger.Warn("robot command failed", "path", cmd.path, "error", err, "total_errors", n)
	}
}

func (r *HTTPController) refreshState(ctx context.Context) error {
	var s State
	if err := r.getJSON(ctx, "/api/state", &s); err != nil {
		return err
	}
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
	return nil
}

func (r *HTTPController) postJSON(ctx context.Context, path string, payload any) error {
	var body []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", path, err)
		}
		body = data
	}

	resp, err := httpc.PostJSON(ctx, r.client, r.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	return checkResponse(path, resp)
}

func (r *HTTPController) getJSON(ctx context.Context, path string, v any) error {
	resp, err := httpc.GetContext(ctx, r.client, r.BaseURL+path)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(path, resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func checkResponse(path string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &APIError{
		StatusCode: resp.StatusCode,
		Path:       path,
		Message:    strings.TrimSpace(string(msg)),
	}
}
