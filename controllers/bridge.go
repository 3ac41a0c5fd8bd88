package controllers

import (
	"errors"
	"fmt"

	"github.com/omzlo/canbridge/clog"
	"github.com/omzlo/canbridge/models/can"
	"github.com/omzlo/canbridge/models/flexcan"
)

var (
	ErrUnknownChannel = errors.New("unknown CAN channel")
	ErrBusy           = errors.New("all transmit mailboxes busy")
	ErrNotInitialized = errors.New("CAN channel not initialized")
)

const TRACE_CAPACITY = 256

type ChannelStats struct {
	Received    uint64
	Echoed      uint64
	BusyRetries uint64
}

type channelContext struct {
	controller *flexcan.Controller
	pending    *can.Frame
	stats      ChannelStats
}

// Bridge owns the three controller handles and is the only way the
// application reaches them. It is not safe for concurrent use: a single
// polling loop is expected to drive it.
type Bridge struct {
	channels [flexcan.NUM_CONTROLLERS]channelContext
	monitor  statusMonitor
	Trace    *clog.MemoryLog
}

func NewBridge(blocks [flexcan.NUM_CONTROLLERS]flexcan.RegisterBlock, platform flexcan.Platform, options flexcan.Options) (*Bridge, error) {
	b := &Bridge{Trace: clog.NewMemoryLog(TRACE_CAPACITY)}

	for i, regs := range blocks {
		if regs == nil {
			return nil, fmt.Errorf("CAN%d: no register block", i)
		}
		controller, err := flexcan.NewController(i, regs, platform, options)
		if err != nil {
			return nil, err
		}
		b.channels[i].controller = controller
	}
	return b, nil
}

func (b *Bridge) channel(index int) (*channelContext, error) {
	if index < 0 || index >= len(b.channels) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownChannel, index)
	}
	return &b.channels[index], nil
}

func (b *Bridge) Controller(index int) (*flexcan.Controller, error) {
	ctx, err := b.channel(index)
	if err != nil {
		return nil, err
	}
	return ctx.controller, nil
}

// Initialize brings a channel to normal operation at the given rate.
func (b *Bridge) Initialize(index int, bitRateKHz uint) error {
	ctx, err := b.channel(index)
	if err != nil {
		return err
	}
	ctx.pending = nil
	if err := ctx.controller.Initialize(bitRateKHz); err != nil {
		clog.Error("CAN%d: initialization failed: %s", index, err)
		return err
	}
	return nil
}

func (b *Bridge) Initialized(index int) bool {
	ctx, err := b.channel(index)
	return err == nil && ctx.controller.State() == flexcan.StateNormal
}

// Send queues one frame for transmission in the first free mailbox. It
// returns ErrBusy, without touching any mailbox, when all are in use; the
// caller decides whether to retry.
func (b *Bridge) Send(index int, id uint32, extended bool, length uint8, payload [8]byte) error {
	ctx, err := b.channel(index)
	if err != nil {
		return err
	}
	if ctx.controller.State() != flexcan.StateNormal {
		return fmt.Errorf("CAN%d: %w", index, ErrNotInitialized)
	}

	slot, err := ctx.controller.AcquireFreeTransmitSlot()
	if err != nil {
		if errors.Is(err, flexcan.ErrNoFreeMailbox) {
			return fmt.Errorf("CAN%d: %w", index, ErrBusy)
		}
		return err
	}

	frame := &can.Frame{CanId: id, Extended: extended, Dlc: length, Data: payload}
	if err := ctx.controller.CommitTransmit(slot, frame); err != nil {
		ctx.controller.ReleaseTransmitSlot(slot)
		return err
	}
	clog.DebugXX("CAN%d: SEND FRAME %s in slot %d", index, frame, slot)
	return nil
}

// Receive returns the next frame waiting in the receive FIFO, or nil when
// there is none. An empty FIFO is not an error and leaves the hardware
// untouched.
func (b *Bridge) Receive(index int) (*can.Frame, error) {
	ctx, err := b.channel(index)
	if err != nil {
		return nil, err
	}
	if ctx.controller.State() != flexcan.StateNormal {
		return nil, fmt.Errorf("CAN%d: %w", index, ErrNotInitialized)
	}
	if !ctx.controller.PollReceiveReady() {
		return nil, nil
	}

	frame := ctx.controller.ReadReceive()
	ctx.controller.AcknowledgeReceive()
	clog.DebugXX("CAN%d: RECV FRAME %s", index, &frame)
	return &frame, nil
}

func (b *Bridge) Stats(index int) (ChannelStats, error) {
	ctx, err := b.channel(index)
	if err != nil {
		return ChannelStats{}, err
	}
	return ctx.stats, nil
}
