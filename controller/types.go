package controller

import "context"

// Task names, as reported by Manager.Tasks and in log lines
const (
	TaskReadMode       = "read_mode"
	TaskRigidOverride  = "rigid_override"
	TaskDetectMotion   = "detect_motion"
	TaskDriveActuators = "drive_actuators"
)

// Task is one long-running loop owned by the Manager
type Task struct {
	Name     string
	Priority int // Higher starts first
	Run      func(ctx context.Context)
}
