package flexcan

import (
	"github.com/omzlo/canbridge/clog"
)

// Platform is the board support the driver relies on but does not own:
// clock gating and pin multiplexing.
type Platform interface {
	EnableModuleClock(index int)
	ConfigurePins(index int)
}

// HostPlatform stands in for board support when running on a host. It only
// records what it was asked to do.
type HostPlatform struct {
	ClockEnabled [NUM_CONTROLLERS]bool
	PinsMuxed    [NUM_CONTROLLERS]bool
}

func (hp *HostPlatform) EnableModuleClock(index int) {
	clog.DebugX("CAN%d: module clock enabled", index)
	hp.ClockEnabled[index] = true
}

func (hp *HostPlatform) ConfigurePins(index int) {
	clog.DebugX("CAN%d: pins configured", index)
	hp.PinsMuxed[index] = true
}
