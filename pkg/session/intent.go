package session

import "github.com/teslashibe/go-vector/pkg/motion"

// Intent is the latest desired motion derived from operator input.
type Intent struct {
	DriveForward bool `json:"drive_forward"`
	DriveBack    bool `json:"drive_back"`
	TurnLeft     bool `json:"turn_left"`
	TurnRight    bool `json:"turn_right"`
	LiftUp       bool `json:"lift_up"`
	LiftDown     bool `json:"lift_down"`
	HeadUp       bool `json:"head_up"`
	HeadDown     bool `json:"head_down"`
	GoFast       bool `json:"go_fast"`
	GoSlow       bool `json:"go_slow"`

	MouseLookEnabled bool `json:"mouse_look_enabled"`
	TorchEnabled     bool `json:"torch_enabled"`

	// MouseTurnOffset is added to the keyboard turn while mouse-look is on.
	MouseTurnOffset float64 `json:"mouse_turn_offset"`
	// MouseHeadTarget is the head angle (degrees) the mouse last asked for.
	MouseHeadTarget float64 `json:"mouse_head_target"`
}

// Tier returns the speed tier selected by the modifier keys.
func (i Intent) Tier() motion.Tier {
	return motion.SelectTier(i.GoFast, i.GoSlow)
}

// DriveDir is -1, 0 or 1.
func (i Intent) DriveDir() float64 {
	return motion.Axis(i.DriveForward, i.DriveBack)
}

// TurnDir combines the turn keys with the mouse-look offset.
func (i Intent) TurnDir() float64 {
	return motion.Axis(i.TurnRight, i.TurnLeft) + i.MouseTurnOffset
}

// setFlag stores v in *flag and reports whether it changed.
func setFlag(flag *bool, v bool) bool {
	if *flag == v {
		return false
	}
	*flag = v
	return true
}
