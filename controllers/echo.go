package controllers

import (
	"errors"
	"time"

	"github.com/omzlo/canbridge/clog"
)

// Poll runs one pass of the echo loop over every initialized channel and
// returns the number of frames sent back.
//
// A channel whose echo found all mailboxes busy keeps that frame and retries
// it on the next pass before taking anything new from its FIFO.
func (b *Bridge) Poll() int {
	echoed := 0
	for i := range b.channels {
		if !b.Initialized(i) {
			continue
		}
		if b.echoChannel(i) {
			echoed++
		}
	}
	return echoed
}

func (b *Bridge) echoChannel(index int) bool {
	ctx := &b.channels[index]

	frame := ctx.pending
	if frame == nil {
		received, err := b.Receive(index)
		if err != nil {
			clog.Warning("CAN%d: receive failed: %s", index, err)
			return false
		}
		if received == nil {
			return false
		}
		ctx.stats.Received++
		frame = received
	}

	err := b.Send(index, frame.CanId, frame.Extended, frame.Dlc, frame.Data)
	if errors.Is(err, ErrBusy) {
		ctx.stats.BusyRetries++
		ctx.pending = frame
		return false
	}
	ctx.pending = nil
	if err != nil {
		clog.Warning("CAN%d: echo of %s failed: %s", index, frame, err)
		return false
	}
	ctx.stats.Echoed++
	b.Trace.Printf("CAN%d echo %s", index, frame)
	return true
}

// Serve polls until stop is closed, sleeping interval between passes that
// found nothing to do.
func (b *Bridge) Serve(stop <-chan struct{}, interval time.Duration) {
	clog.Info("Echo loop started.")
	for {
		select {
		case <-stop:
			b.reportStatus()
			clog.Info("Echo loop stopped.")
			return
		default:
		}
		if b.Poll() == 0 && interval > 0 {
			time.Sleep(interval)
		}
		b.monitor.tick(b)
	}
}
