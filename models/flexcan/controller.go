package flexcan

import (
	"errors"
	"fmt"

	"github.com/omzlo/canbridge/clog"
)

// State is the lifecycle position of a controller.
type State uint8

const (
	StateDisabled State = iota
	StateClockEnabled
	StateSoftResetInProgress
	StateFrozen
	StateConfigured
	StateNormal
)

var stateNames = [...]string{
	"disabled",
	"clock-enabled",
	"soft-reset",
	"frozen",
	"configured",
	"normal",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Stage names the acknowledge a lifecycle poll is waiting for.
type Stage uint8

const (
	StageSoftReset Stage = iota
	StageFreeze
	StageUnfreeze
	StageReady
)

var stageNames = [...]string{
	"soft reset acknowledge",
	"freeze acknowledge",
	"freeze release",
	"module ready",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", uint8(s))
}

const DEFAULT_SPIN_LIMIT = 100000

var ErrHardwareTimeout = errors.New("hardware timeout")

// TimeoutError reports a lifecycle poll that never saw its acknowledge.
type TimeoutError struct {
	Index int
	Stage Stage
	Polls int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("CAN%d: %s: no %s after %d polls", e.Index, ErrHardwareTimeout, e.Stage, e.Polls)
}

func (e *TimeoutError) Unwrap() error {
	return ErrHardwareTimeout
}

type Options struct {
	// SpinLimit bounds each lifecycle poll, in register reads.
	// Zero selects DEFAULT_SPIN_LIMIT.
	SpinLimit int
	// LegacyBitRateFallback maps unsupported rates to the slowest tier
	// instead of failing.
	LegacyBitRateFallback bool
}

func (o Options) spinLimit() int {
	if o.SpinLimit <= 0 {
		return DEFAULT_SPIN_LIMIT
	}
	return o.SpinLimit
}

// Controller is the handle of one controller instance. It is created once and
// owns its register block for the life of the program.
type Controller struct {
	Index    int
	Base     uint32
	regs     RegisterBlock
	platform Platform
	options  Options
	state    State
	timing   BitTiming
	bitRate  uint
	reserved uint8
}

func NewController(index int, regs RegisterBlock, platform Platform, options Options) (*Controller, error) {
	if index < 0 || index >= NUM_CONTROLLERS {
		return nil, fmt.Errorf("no CAN controller with index %d", index)
	}
	return &Controller{
		Index:    index,
		Base:     BaseAddresses[index],
		regs:     regs,
		platform: platform,
		options:  options,
		state:    StateDisabled,
	}, nil
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Timing() BitTiming {
	return c.timing
}

func (c *Controller) BitRate() uint {
	return c.bitRate
}

func (c *Controller) String() string {
	return fmt.Sprintf("CAN%d@%08x (%s)", c.Index, c.Base, c.state)
}

func (c *Controller) setState(s State) {
	clog.DebugX("CAN%d: %s -> %s", c.Index, c.state, s)
	c.state = s
}

// waitFor polls MCR until done accepts it or the spin limit runs out.
func (c *Controller) waitFor(stage Stage, done func(mcr uint32) bool) error {
	limit := c.options.spinLimit()
	for i := 0; i < limit; i++ {
		if done(c.regs.Read32(REG_MCR)) {
			return nil
		}
	}
	return &TimeoutError{Index: c.Index, Stage: stage, Polls: limit}
}

// Initialize takes the controller from any state to normal operation at the
// requested rate. On failure the controller stays in the last state reached.
func (c *Controller) Initialize(bitRateKHz uint) error {
	timing, err := ComputeBitTiming(bitRateKHz, c.options.LegacyBitRateFallback)
	if err != nil {
		return fmt.Errorf("CAN%d: %w", c.Index, err)
	}
	if !timing.valid() {
		return fmt.Errorf("CAN%d: bit timing does not fit CTRL1: %s", c.Index, timing)
	}

	c.state = StateDisabled

	c.platform.EnableModuleClock(c.Index)
	c.platform.ConfigurePins(c.Index)
	clearBits(c.regs, REG_MCR, MCR_MDIS)
	c.setState(StateClockEnabled)

	setBits(c.regs, REG_MCR, MCR_SOFTRST)
	c.setState(StateSoftResetInProgress)
	if err := c.waitFor(StageSoftReset, func(mcr uint32) bool { return mcr&MCR_SOFTRST == 0 }); err != nil {
		return err
	}

	setBits(c.regs, REG_MCR, MCR_FRZ|MCR_HALT)
	if err := c.waitFor(StageFreeze, func(mcr uint32) bool { return mcr&MCR_FRZACK != 0 }); err != nil {
		return err
	}
	c.setState(StateFrozen)

	c.configure(timing)
	c.timing = timing
	c.bitRate = bitRateKHz
	c.setState(StateConfigured)

	clearBits(c.regs, REG_MCR, MCR_FRZ|MCR_HALT)
	if err := c.waitFor(StageUnfreeze, func(mcr uint32) bool { return mcr&MCR_FRZACK == 0 }); err != nil {
		return err
	}
	if err := c.waitFor(StageReady, func(mcr uint32) bool { return mcr&MCR_NOTRDY == 0 }); err != nil {
		return err
	}
	c.setState(StateNormal)

	clog.Info("CAN%d: running at %s", c.Index, timing)
	return nil
}

// configure is only valid in freeze mode.
func (c *Controller) configure(timing BitTiming) {
	ctrl1 := c.regs.Read32(REG_CTRL1) &^ CTRL1_TIMING_MASK
	c.regs.Write32(REG_CTRL1, ctrl1|timing.ctrl1())

	c.resetFilters()

	mcr := c.regs.Read32(REG_MCR) &^ MCR_MAXMB
	mcr |= MCR_SRXDIS | MCR_RFEN | (NUM_MAILBOXES - 1)
	c.regs.Write32(REG_MCR, mcr)

	c.resetTransmitSlots()
}
