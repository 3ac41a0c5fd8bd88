package main

import (
	"time"

	"github.com/omzlo/canbridge/clog"
	"github.com/omzlo/canbridge/models/can"
	"github.com/omzlo/canbridge/models/flexcan"
)

// busPeer plays the other node on each simulated bus: it sends a frame,
// then expects the bridge to echo it back unchanged.
type busPeer struct {
	index    int
	sim      *flexcan.SimulatedController
	counter  uint32
	expected []can.Frame
	echoed   int
	lost     int
}

func (p *busPeer) inject() {
	p.counter++
	frame := can.Frame{Extended: p.counter%4 == 0, Dlc: uint8(p.counter % 9)}
	if frame.Extended {
		frame.CanId = (p.counter << 8) & can.MAX_EXTENDED_ID
	} else {
		frame.CanId = p.counter & can.MAX_STANDARD_ID
	}
	for i := range frame.Data {
		frame.Data[i] = byte(p.counter) + byte(i)
	}

	if !p.sim.Deliver(&frame) {
		p.lost++
		clog.Warning("CAN%d: peer frame %s lost", p.index, &frame)
		return
	}
	p.expected = append(p.expected, frame)
}

func (p *busPeer) collect() {
	for _, frame := range p.sim.Transmit() {
		if len(p.expected) == 0 {
			clog.Error("CAN%d: unexpected frame on bus %s", p.index, &frame)
			continue
		}
		want := p.expected[0]
		p.expected = p.expected[1:]
		if frame != want {
			clog.Error("CAN%d: echo mismatch, got %s, want %s", p.index, &frame, &want)
			continue
		}
		p.echoed++
	}
}

// runPeers drives all peers until stop is closed. Each peer owns its own
// simulated controller, whose methods are safe to call next to the bridge.
func runPeers(peers []*busPeer, interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(done)

	for {
		select {
		case <-stop:
			for _, p := range peers {
				p.collect()
			}
			return
		case <-ticker.C:
			for _, p := range peers {
				p.collect()
				p.inject()
			}
		}
	}
}
