// Package session implements the remote-control session for a Vector robot.
//
// A Controller turns browser input events into motor commands and queues
// one-shot actions (speech, animations) that are dispatched one per Tick.
// It holds no locks: callers must not invoke its methods concurrently. The
// web layer serializes requests for this.
package session

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/teslashibe/go-vector/internal/log"
	"github.com/teslashibe/go-vector/pkg/motion"
	"github.com/teslashibe/go-vector/pkg/robot"
)

// DefaultTextToSay is spoken by the space key until the operator changes it.
const DefaultTextToSay = "Hi I'm Vector"

// Mouse-look tuning.
const (
	MouseSensitivity = 1.5  // max turn offset at the window edge; higher = more twitchy
	MouseHeadUpDeg   = 45.0 // head target at the top of the window
	MouseHeadDownDeg = -25.0
	MouseHeadGain    = 0.03 // head speed per degree of error
)

// Eye colors (hue, saturation).
const (
	eyeHue          = 0.0
	eyeSaturation   = 1.0
	torchSaturation = 0.0
)

// Robot is everything the session drives.
type Robot interface {
	robot.MotorController
	robot.HeadSensor
	robot.BehaviorController
	robot.ScreenController
	robot.ControlArbiter
	ActionRunner
}

// Controller owns the intent state and action queue of one operator session.
type Controller struct {
	id     string
	robot  Robot
	logger *slog.Logger

	intent    Intent
	catalog   *Catalog
	bindings  Bindings
	queue     *Queue
	textToSay string

	freeplay bool
	explore  bool
	torch    *torch
}

// New creates a session controller for r using the given animation catalog.
// The robot's eyes are set to the remote-control color.
func New(r Robot, catalog *Catalog) *Controller {
	if catalog == nil {
		catalog = NewCatalog(nil)
	}

	id := uuid.NewString()
	logger := log.With("component", "session", "session_id", id)

	c := &Controller{
		id:        id,
		robot:     r,
		logger:    logger,
		catalog:   catalog,
		bindings:  DefaultBindings(catalog, logger),
		queue:     NewQueue(QueueCapacity),
		textToSay: DefaultTextToSay,
		torch:     newTorch(r, logger),
	}

	c.check("set eye color", r.SetEyeColor(eyeHue, eyeSaturation))
	logger.Info("session started", "animations", catalog.Len())
	return c
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// Intent returns a copy of the current intent state.
func (c *Controller) Intent() Intent { return c.intent }

// Catalog returns the animation catalog.
func (c *Controller) Catalog() *Catalog { return c.catalog }

// Bindings returns the current animation key bindings.
func (c *Controller) Bindings() Bindings { return c.bindings }

// TextToSay returns the text the space key speaks.
func (c *Controller) TextToSay() string { return c.textToSay }

// Pending returns the queued actions in order.
func (c *Controller) Pending() []QueueEntry { return c.queue.Entries() }

// OnKey handles a key press or release. Holding a key may repeat presses.
func (c *Controller) OnKey(code int, shiftDown, altDown, keyDown bool) {
	prevTier := c.intent.Tier()
	c.intent.GoFast = shiftDown
	c.intent.GoSlow = altDown
	speedChanged := c.intent.Tier() != prevTier

	driveChanged := c.updateDriveState(code, keyDown) || speedChanged
	liftChanged := c.updateLiftState(code, keyDown) || speedChanged
	headChanged := c.updateHeadState(code, keyDown) || speedChanged

	if driveChanged {
		c.updateDriving()
	}
	if headChanged {
		c.updateHead()
	}
	if liftChanged {
		c.updateLift()
	}
	if code == KeyDock && keyDown {
		c.check("drive on charger", c.robot.DriveOnCharger())
	}

	if keyDown {
		return
	}

	switch {
	case isDigit(code):
		name, ok := c.animationForKey(code)
		if !ok {
			c.logger.Warn("no animation bound to key", "key", string(rune(code)))
			return
		}
		c.enqueue(PlayAnimation{Name: name})
	case code == KeySpeak:
		c.enqueue(Speak{Text: c.textToSay})
	}
}

// OnMouseMove handles a mouse position in window coordinates, both in 0..1
// with (0,0) at the top left. It does nothing unless mouse-look is enabled.
func (c *Controller) OnMouseMove(x, y float64) {
	if !c.intent.MouseLookEnabled {
		return
	}

	c.intent.MouseTurnOffset = motion.Remap(x, 0, 1, -MouseSensitivity, MouseSensitivity)
	c.updateDriving()

	c.intent.MouseHeadTarget = motion.Remap(y, 0, 1, MouseHeadUpDeg, MouseHeadDownDeg)
	delta := c.intent.MouseHeadTarget - robot.Degrees(c.robot.HeadAngleRad())
	c.check("set head motor", c.robot.SetHeadMotor(delta*MouseHeadGain))
}

// SetMouseLookEnabled toggles mouse-look. Turning it off stops any
// mouse-driven turning and hands the head back to the keyboard.
func (c *Controller) SetMouseLookEnabled(enabled bool) {
	was := c.intent.MouseLookEnabled
	c.intent.MouseLookEnabled = enabled
	if enabled {
		return
	}

	c.intent.MouseTurnOffset = 0
	if was {
		c.updateDriving()
		c.updateHead()
	}
}

// SetAnimationBinding binds the digit key slot to a catalog index.
func (c *Controller) SetAnimationBinding(slot, index int) error {
	if slot < 0 || slot >= NumSlots {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	if index < 0 || index >= c.catalog.Len() {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	c.bindings[slot] = index
	return nil
}

// SetTextToSay replaces the text spoken by the space key.
func (c *Controller) SetTextToSay(text string) {
	c.textToSay = text
}

// SetTorchEnabled turns the face screen into a white torch, or back off.
func (c *Controller) SetTorchEnabled(enabled bool) {
	c.intent.TorchEnabled = enabled
	if enabled {
		c.torch.on()
	} else {
		c.torch.off()
	}
}

// SetFreeplayEnabled releases control so the robot can run its own
// behaviors, or takes it back.
func (c *Controller) SetFreeplayEnabled(enabled bool) {
	c.freeplay = enabled
	if enabled {
		c.check("release control", c.robot.ReleaseControl())
		return
	}
	c.check("request control", c.robot.RequestControl())
	c.check("set eye color", c.robot.SetEyeColor(eyeHue, eyeSaturation))
}

// SetExploreEnabled records the explore toggle. Exploring is not implemented
// by the robot bridge yet, so this only logs.
func (c *Controller) SetExploreEnabled(enabled bool) {
	c.explore = enabled
	c.logger.Info("explore toggled", "enabled", enabled)
}

// Tick dispatches the head of the action queue and returns what is still
// pending. Dispatch is fire-and-forget, so the head action counts as complete
// as soon as it is sent; robot-side failures are only logged.
func (c *Controller) Tick() []QueueEntry {
	if a, ok := c.queue.Peek(); ok {
		if err := a.Dispatch(c.robot); err != nil {
			c.logger.Warn("action dispatch failed", "action", a.Kind(), "payload", a.Payload(), "error", err)
		}
		c.queue.Pop()
	}
	return c.queue.Entries()
}

// Close stops background effects such as the torch refresh loop.
func (c *Controller) Close() {
	c.torch.stop()
	c.logger.Info("session closed")
}

func (c *Controller) enqueue(a Action) {
	if evicted := c.queue.Push(a); evicted != nil {
		c.logger.Debug("action queue full, evicted oldest", "evicted", evicted.Kind(), "payload", evicted.Payload())
	}
	c.logger.Debug("action queued", "action", a.Kind(), "payload", a.Payload(), "pending", c.queue.Len())
}

func (c *Controller) animationForKey(code int) (string, bool) {
	return c.catalog.Name(c.bindings[code-KeyDigitZero])
}

func (c *Controller) updateDriveState(code int, down bool) bool {
	switch code {
	case KeyForward:
		return setFlag(&c.intent.DriveForward, down)
	case KeyBack:
		return setFlag(&c.intent.DriveBack, down)
	case KeyLeft:
		return setFlag(&c.intent.TurnLeft, down)
	case KeyRight:
		return setFlag(&c.intent.TurnRight, down)
	}
	return false
}

func (c *Controller) updateLiftState(code int, down bool) bool {
	switch code {
	case KeyLiftUp:
		return setFlag(&c.intent.LiftUp, down)
	case KeyLiftDown:
		return setFlag(&c.intent.LiftDown, down)
	}
	return false
}

func (c *Controller) updateHeadState(code int, down bool) bool {
	switch code {
	case KeyHeadUp:
		return setFlag(&c.intent.HeadUp, down)
	case KeyHeadDown:
		return setFlag(&c.intent.HeadDown, down)
	}
	return false
}

// updateDriving sends the wheel command for the current keys and mouse offset.
func (c *Controller) updateDriving() {
	cmd := motion.Wheels(c.intent.DriveDir(), c.intent.TurnDir(), c.intent.Tier())
	c.check("set wheel motors", c.robot.SetWheelMotors(cmd.Left, cmd.Right, cmd.LeftAccel, cmd.RightAccel))
}

// updateHead sends the keyboard head speed. The mouse owns the head while
// mouse-look is on.
func (c *Controller) updateHead() {
	if c.intent.MouseLookEnabled {
		return
	}
	v := motion.HeadVelocity(c.intent.HeadUp, c.intent.HeadDown, c.intent.Tier())
	c.check("set head motor", c.robot.SetHeadMotor(v))
}

func (c *Controller) updateLift() {
	v := motion.LiftVelocity(c.intent.LiftUp, c.intent.LiftDown, c.intent.Tier())
	c.check("set lift motor", c.robot.SetLiftMotor(v))
}

func (c *Controller) check(op string, err error) {
	if err != nil {
		c.logger.Warn("robot command failed", "op", op, "error", err)
	}
}
