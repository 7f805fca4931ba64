package robot

import (
	"context"
	"sync"
	"time"
)

// Mock implements Controller for tests and for running the web UI without a
// robot. Every call is recorded.
type Mock struct {
	// Animations is returned by ListAnimations.
	Animations []string

	// Err, if set, is returned by every command method.
	Err error

	mu        sync.Mutex
	calls     []MockCall
	headAngle float64
	state     State
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Args   []any
}

// NewMock creates a mock with the given animation names.
func NewMock(animations ...string) *Mock {
	return &Mock{Animations: animations}
}

func (m *Mock) record(method string, args ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Args: args})
	return m.Err
}

// SetWheelMotors records the call.
func (m *Mock) SetWheelMotors(leftSpeed, rightSpeed, leftAccel, rightAccel float64) error {
	return m.record("SetWheelMotors", leftSpeed, rightSpeed, leftAccel, rightAccel)
}

// SetLiftMotor records the call.
func (m *Mock) SetLiftMotor(speed float64) error {
	return m.record("SetLiftMotor", speed)
}

// SetHeadMotor records the call.
func (m *Mock) SetHeadMotor(speed float64) error {
	return m.record("SetHeadMotor", speed)
}

// DriveOnCharger records the call.
func (m *Mock) DriveOnCharger() error {
	return m.record("DriveOnCharger")
}

// SetEyeColor records the call.
func (m *Mock) SetEyeColor(hue, saturation float64) error {
	return m.record("SetEyeColor", hue, saturation)
}

// SetScreenColor records the call.
func (m *Mock) SetScreenColor(c Color, duration time.Duration, interruptRunning bool) error {
	return m.record("SetScreenColor", c, duration, interruptRunning)
}

// PlayAnimation records the call.
func (m *Mock) PlayAnimation(name string) error {
	return m.record("PlayAnimation", name)
}

// SayText records the call.
func (m *Mock) SayText(text string) error {
	return m.record("SayText", text)
}

// ReleaseControl records the call.
func (m *Mock) ReleaseControl() error {
	return m.record("ReleaseControl")
}

// RequestControl records the call.
func (m *Mock) RequestControl() error {
	return m.record("RequestControl")
}

// ListAnimations returns Animations.
func (m *Mock) ListAnimations(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]string, len(m.Animations))
	copy(out, m.Animations)
	return out, nil
}

// SetHeadAngleRad sets the value HeadAngleRad reports.
func (m *Mock) SetHeadAngleRad(rad float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.headAngle = rad
	m.state.HeadAngleRad = rad
}

// HeadAngleRad returns the configured head angle.
func (m *Mock) HeadAngleRad() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.headAngle
}

// SetState sets the snapshot State reports.
func (m *Mock) SetState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	m.headAngle = s.HeadAngleRad
}

// State returns the configured snapshot.
func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Calls returns a copy of all recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallsTo returns the recorded calls to method.
func (m *Mock) CallsTo(method string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MockCall
	for _, c := range m.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
