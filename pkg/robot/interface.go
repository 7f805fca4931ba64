// Package robot provides interfaces and implementations for Vector robot control.
//
// This package follows the Interface Segregation Principle (ISP) by defining
// small, focused interfaces that can be composed as needed. Consumers should
// depend only on the interfaces they actually use.
package robot

import (
	"context"
	"time"
)

// MotorController drives the wheel, lift and head motors directly.
// Speeds are open-loop velocities; a zero speed stops the motor.
type MotorController interface {
	SetWheelMotors(leftSpeed, rightSpeed, leftAccel, rightAccel float64) error
	SetLiftMotor(speed float64) error
	SetHeadMotor(speed float64) error
}

// HeadSensor reports the last known head angle.
type HeadSensor interface {
	HeadAngleRad() float64
}

// BehaviorController triggers built-in robot behaviors.
type BehaviorController interface {
	DriveOnCharger() error
	SetEyeColor(hue, saturation float64) error
}

// ScreenController paints the face display.
type ScreenController interface {
	SetScreenColor(c Color, duration time.Duration, interruptRunning bool) error
}

// AnimationController plays canned animations.
type AnimationController interface {
	PlayAnimation(name string) error
	ListAnimations(ctx context.Context) ([]string, error)
}

// Speaker makes the robot say text.
type Speaker interface {
	SayText(text string) error
}

// ControlArbiter releases or reacquires behavior control so the robot can
// run freeplay between remote-control sessions.
type ControlArbiter interface {
	ReleaseControl() error
	RequestControl() error
}

// TelemetryReader exposes the last telemetry snapshot.
type TelemetryReader interface {
	State() State
}

// Controller is the composite interface for full robot control.
// Use this when you need complete robot control capabilities.
type Controller interface {
	MotorController
	HeadSensor
	BehaviorController
	ScreenController
	AnimationController
	Speaker
	ControlArbiter
	TelemetryReader
}

// Ensure implementations satisfy Controller
var (
	_ Controller = (*HTTPController)(nil)
	_ Controller = (*Mock)(nil)
)
