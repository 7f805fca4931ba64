// Package motion maps discrete driving intent and a speed tier to Vector's
// motor velocity commands. Everything here is pure; callers own the state.
package motion

// Tier selects which magnitude table a motor command uses.
type Tier int

const (
	Normal Tier = iota
	Fast
	Slow
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case Fast:
		return "fast"
	case Slow:
		return "slow"
	default:
		return "normal"
	}
}

// SelectTier derives the speed tier from the modifier keys.
// Fast wins only when slow is not also held; holding both is Normal.
func SelectTier(goFast, goSlow bool) Tier {
	switch {
	case goFast && !goSlow:
		return Fast
	case goSlow && !goFast:
		return Slow
	default:
		return Normal
	}
}

// Pick returns the value for this tier.
func (t Tier) Pick(fast, normal, slow float64) float64 {
	switch t {
	case Fast:
		return fast
	case Slow:
		return slow
	default:
		return normal
	}
}

// Speed tables, fast/normal/slow.
var (
	ForwardSpeed = [3]float64{150, 75, 50} // mm/s
	TurnSpeed    = [3]float64{100, 50, 30} // mm/s per unit of turn
	LiftSpeed    = [3]float64{8, 4, 2}     // rad/s
	HeadSpeed    = [3]float64{2, 1, 0.5}   // rad/s
)

// AccelFactor scales wheel speed into wheel acceleration.
const AccelFactor = 4

// WheelCommand is a set_wheel_motors call.
type WheelCommand struct {
	Left       float64 `json:"left_wheel_speed"`
	Right      float64 `json:"right_wheel_speed"`
	LeftAccel  float64 `json:"left_wheel_accel"`
	RightAccel float64 `json:"right_wheel_accel"`
}

// Wheels computes the wheel command for a drive direction (-1, 0, 1) and a
// turn amount (keys contribute ±1, mouse-look up to ±1.5 more).
// Turning is mirrored while reversing.
func Wheels(driveDir, turnDir float64, tier Tier) WheelCommand {
	if driveDir < 0 {
		turnDir = -turnDir
	}

	forward := tier.Pick(ForwardSpeed[0], ForwardSpeed[1], ForwardSpeed[2])
	turn := tier.Pick(TurnSpeed[0], TurnSpeed[1], TurnSpeed[2])

	left := driveDir*forward + turn*turnDir
	right := driveDir*forward - turn*turnDir

	return WheelCommand{
		Left:       left,
		Right:      right,
		LeftAccel:  left * AccelFactor,
		RightAccel: right * AccelFactor,
	}
}

// LiftVelocity returns the lift motor speed for the held lift keys.
func LiftVelocity(up, down bool, tier Tier) float64 {
	return Axis(up, down) * tier.Pick(LiftSpeed[0], LiftSpeed[1], LiftSpeed[2])
}

// HeadVelocity returns the head motor speed for the held head keys.
func HeadVelocity(up, down bool, tier Tier) float64 {
	return Axis(up, down) * tier.Pick(HeadSpeed[0], HeadSpeed[1], HeadSpeed[2])
}

// Axis converts a pair of opposing keys to -1, 0 or 1.
func Axis(positive, negative bool) float64 {
	var v float64
	if positive {
		v++
	}
	if negative {
		v--
	}
	return v
}
