package actuator

import (
	"ham/core"
)

// LimitState is the 2-bit limit switch reading of one unit
type LimitState uint8

const (
	LimitBottom LimitState = 1 << 0 // Bottom limit switch closed
	LimitTop    LimitState = 1 << 1 // Top limit switch closed
)

// Top reports whether the top limit is reached
func (l LimitState) Top() bool { return l&LimitTop != 0 }

// Bottom reports whether the bottom limit is reached
func (l LimitState) Bottom() bool { return l&LimitBottom != 0 }

// ReadLimits samples both limit switches of a unit. A switch reads high
// when its limit is reached. Never cached.
func ReadLimits(gpio core.GPIODriver, u Unit) LimitState {
	var l LimitState
	if gpio.ReadPin(u.TopPin) {
		l |= LimitTop
	}
	if gpio.ReadPin(u.BottomPin) {
		l |= LimitBottom
	}
	return l
}

// Permitted is the interlock: travel toward a limit that is already
// reached is refused. Positive lengths travel toward the top.
func Permitted(length int, limits LimitState) bool {
	if length > 0 && limits.Top() {
		return false
	}
	if length < 0 && limits.Bottom() {
		return false
	}
	return true
}
