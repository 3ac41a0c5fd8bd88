package flexcan

import (
	"testing"

	"github.com/omzlo/canbridge/models/can"
)

func TestSimulatorRefusesFramesBeforeInit(t *testing.T) {
	sim := NewSimulatedController()
	frame := can.Frame{CanId: 1}
	if sim.Deliver(&frame) {
		t.Fatalf("disabled controller accepted a frame")
	}
	if sent := sim.Transmit(); sent != nil {
		t.Fatalf("disabled controller transmitted %v", sent)
	}
}

func TestSimulatorFifoOverflowDropsFrames(t *testing.T) {
	c, sim, _ := newTestController(t, 0)
	if err := c.Initialize(500); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	for i := 0; i < RX_FIFO_DEPTH+2; i++ {
		frame := can.Frame{CanId: uint32(i), Dlc: 1, Data: [8]byte{byte(i)}}
		accepted := sim.Deliver(&frame)
		if want := i < RX_FIFO_DEPTH; accepted != want {
			t.Fatalf("Deliver #%d = %v, want %v", i, accepted, want)
		}
	}
	if sim.Dropped() != 2 || sim.Pending() != RX_FIFO_DEPTH {
		t.Fatalf("dropped %d, pending %d", sim.Dropped(), sim.Pending())
	}
	if sim.Read32(REG_IFLAG1)&(1<<RxFifoOverflowFlag) == 0 {
		t.Fatalf("overflow flag not raised")
	}

	// The oldest frames survive, in arrival order.
	for i := 0; i < RX_FIFO_DEPTH; i++ {
		got := c.ReadReceive()
		if got.CanId != uint32(i) {
			t.Fatalf("frame %d has id %x", i, got.CanId)
		}
		c.AcknowledgeReceive()
	}
}

func TestSimulatorSelfReception(t *testing.T) {
	c, sim, _ := newTestController(t, 0)
	if err := c.Initialize(500); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	// Re-enable self reception behind the driver's back.
	sim.Write32(REG_MCR, sim.Read32(REG_MCR)&^MCR_SRXDIS)

	frame := can.Frame{CanId: 0x55, Dlc: 2, Data: [8]byte{9, 8}}
	slot, _ := c.AcquireFreeTransmitSlot()
	c.CommitTransmit(slot, &frame)
	sim.Transmit()

	if !c.PollReceiveReady() {
		t.Fatalf("own frame not received with self reception enabled")
	}
	if got := c.ReadReceive(); got != frame {
		t.Fatalf("received %s, want %s", &got, &frame)
	}
}
