package robot

import "math"

// Color is an RGB screen color.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Common screen colors.
var (
	White = Color{R: 255, G: 255, B: 255}
	Black = Color{}
)

// Vec3 is a position in millimeters.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ImageRect is a face bounding box in camera pixels.
type ImageRect struct {
	XTopLeft float64 `json:"x_top_left"`
	YTopLeft float64 `json:"y_top_left"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
}

// Face is a face currently observed by the vision system.
type Face struct {
	ID              int       `json:"face_id"`
	UpdatedID       int       `json:"updated_face_id"`
	Name            string    `json:"name"`
	IsVisible       bool      `json:"is_visible"`
	Position        Vec3      `json:"position"`
	Expression      string    `json:"expression"`
	ExpressionScore []int     `json:"expression_score"`
	ImageRect       ImageRect `json:"image_rect"`
}

// StatusFlags mirrors the robot's status bits.
type StatusFlags struct {
	AreMotorsMoving   bool `json:"are_motors_moving"`
	AreWheelsMoving   bool `json:"are_wheels_moving"`
	IsAnimating       bool `json:"is_animating"`
	IsBeingHeld       bool `json:"is_being_held"`
	IsButtonPressed   bool `json:"is_button_pressed"`
	IsCarryingBlock   bool `json:"is_carrying_block"`
	IsCharging        bool `json:"is_charging"`
	IsCliffDetected   bool `json:"is_cliff_detected"`
	IsDockingToMarker bool `json:"is_docking_to_marker"`
	IsFalling         bool `json:"is_falling"`
	IsHeadInPos       bool `json:"is_head_in_pos"`
	IsInCalmPowerMode bool `json:"is_in_calm_power_mode"`
	IsLiftInPos       bool `json:"is_lift_in_pos"`
	IsOnCharger       bool `json:"is_on_charger"`
	IsPathing         bool `json:"is_pathing"`
	IsPickedUp        bool `json:"is_picked_up"`
	IsRobotMoving     bool `json:"is_robot_moving"`
}

// State is a telemetry snapshot reported by the robot bridge.
type State struct {
	LeftWheelSpeedMMPS  float64     `json:"left_wheel_speed_mmps"`
	RightWheelSpeedMMPS float64     `json:"right_wheel_speed_mmps"`
	HeadAngleRad        float64     `json:"head_angle_rad"`
	LiftHeightMM        float64     `json:"lift_height_mm"`
	BatteryLevel        int         `json:"battery_level"`
	BatteryCharging     bool        `json:"battery_charging"`
	Faces               []Face      `json:"faces"`
	Status              StatusFlags `json:"status"`
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
