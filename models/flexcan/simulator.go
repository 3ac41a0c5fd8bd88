package flexcan

import (
	"fmt"
	"sync"

	"github.com/omzlo/canbridge/models/can"
	"golang.org/x/exp/slices"
)

const (
	mcrWritable = MCR_MDIS | MCR_FRZ | MCR_RFEN | MCR_HALT | MCR_SRXDIS | MCR_MAXMB
	mcrReset    = MCR_FRZ | MCR_HALT | 0x0F
)

type transition uint8

const (
	noTransition transition = iota
	resetTransition
	freezeTransition
	unfreezeTransition
	readyTransition
)

var transitionStage = map[transition]Stage{
	resetTransition:    StageSoftReset,
	freezeTransition:   StageFreeze,
	unfreezeTransition: StageUnfreeze,
	readyTransition:    StageReady,
}

// SimulatedController is a register-level model of one controller, good
// enough to run the driver on a host: soft reset, freeze handshakes, the
// 6-deep receive FIFO with its write-one-to-clear ready flag, and one-shot
// transmission from the transmit mailboxes.
//
// Acknowledge bits change only while MCR is being polled. Latency sets how
// many MCR reads each handshake takes.
type SimulatedController struct {
	Latency int

	mutex     sync.Mutex
	words     [REGISTER_WINDOW / 4]uint32
	mcr       uint32
	iflag     uint32
	resetting bool
	frozen    bool
	notReady  bool
	pending   transition
	countdown int
	stalled   [4]bool
	rxQueue   []Mailbox

	writes           int
	dropped          int
	freezeViolations int
}

func NewSimulatedController() *SimulatedController {
	return &SimulatedController{
		mcr:      MCR_MDIS | mcrReset,
		notReady: true,
	}
}

// Stall makes a handshake never complete, as a wedged controller would.
func (s *SimulatedController) Stall(stage Stage, stalled bool) {
	s.mutex.Lock()
	s.stalled[stage] = stalled
	s.mutex.Unlock()
}

func (s *SimulatedController) dueTransition() transition {
	switch {
	case s.resetting:
		return resetTransition
	case s.mcr&MCR_MDIS != 0:
		return noTransition
	case !s.frozen && s.mcr&(MCR_FRZ|MCR_HALT) == MCR_FRZ|MCR_HALT:
		return freezeTransition
	case s.frozen && s.mcr&(MCR_FRZ|MCR_HALT) != MCR_FRZ|MCR_HALT:
		return unfreezeTransition
	case !s.frozen && s.notReady:
		return readyTransition
	}
	return noTransition
}

func (s *SimulatedController) step() {
	t := s.dueTransition()
	if t != s.pending {
		s.pending = t
		s.countdown = s.Latency
	}
	if t == noTransition || s.stalled[transitionStage[t]] {
		return
	}
	if s.countdown > 0 {
		s.countdown--
		return
	}

	switch t {
	case resetTransition:
		s.resetting = false
		s.words = [REGISTER_WINDOW / 4]uint32{}
		s.iflag = 0
		s.rxQueue = nil
		s.mcr = mcrReset
		s.frozen = false
		s.notReady = true
	case freezeTransition:
		s.frozen = true
		s.notReady = true
	case unfreezeTransition:
		s.frozen = false
	case readyTransition:
		s.notReady = false
	}
	s.pending = noTransition
}

func (s *SimulatedController) running() bool {
	return s.mcr&MCR_MDIS == 0 && !s.resetting && !s.frozen && !s.notReady
}

// Running reports whether the controller takes part in bus traffic.
func (s *SimulatedController) Running() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.running()
}

func (s *SimulatedController) Read32(offset uint32) uint32 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	switch offset {
	case REG_MCR:
		s.step()
		v := s.mcr
		if s.resetting {
			v |= MCR_SOFTRST
		}
		if s.frozen {
			v |= MCR_FRZACK
		}
		if s.notReady {
			v |= MCR_NOTRDY
		}
		return v
	case REG_IFLAG1:
		v := s.iflag
		if len(s.rxQueue) > 0 {
			v |= 1 << RxFifoReadyFlag
		}
		return v
	}
	return s.words[s.index(offset)]
}

func (s *SimulatedController) Write32(offset uint32, value uint32) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.writes++
	switch offset {
	case REG_MCR:
		s.mcr = value & mcrWritable
		if value&MCR_SOFTRST != 0 && !s.resetting {
			s.resetting = true
		}
		return
	case REG_IFLAG1:
		if value&(1<<RxFifoReadyFlag) != 0 && len(s.rxQueue) > 0 {
			s.rxQueue = slices.Delete(s.rxQueue, 0, 1)
			if len(s.rxQueue) > 0 {
				s.loadOutputMailbox(s.rxQueue[0])
			}
		}
		s.iflag &^= value
		return
	case REG_CTRL1, REG_RXMGMASK, REG_RX14MASK, REG_RX15MASK, REG_RXFGMASK:
		if !s.frozen {
			s.freezeViolations++
			return
		}
	}
	if offset >= REG_RXIMR && offset < REG_RXIMR+NUM_INDIVIDUAL_MASK*4 && !s.frozen {
		s.freezeViolations++
		return
	}
	s.words[s.index(offset)] = value
}

func (s *SimulatedController) index(offset uint32) uint32 {
	if offset%4 != 0 || offset >= REGISTER_WINDOW {
		panic(fmt.Sprintf("flexcan: bad register offset 0x%x", offset))
	}
	return offset / 4
}

func (s *SimulatedController) loadOutputMailbox(mb Mailbox) {
	base := mailboxOffset(RX_FIFO_MAILBOX) / 4
	s.words[base] = mb.CS
	s.words[base+1] = mb.ID
	s.words[base+2] = mb.Data[0]
	s.words[base+3] = mb.Data[1]
}

// Deliver offers a frame arriving from the bus to the receive FIFO. It
// returns false if the controller is not receiving or the FIFO is full, in
// which case the frame is lost.
func (s *SimulatedController) Deliver(frame *can.Frame) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.deliver(frame)
}

func (s *SimulatedController) deliver(frame *can.Frame) bool {
	if !s.running() || s.mcr&MCR_RFEN == 0 {
		return false
	}
	if len(s.rxQueue) >= RX_FIFO_DEPTH {
		s.dropped++
		s.iflag |= 1 << RxFifoOverflowFlag
		return false
	}
	mb := EncodeMailbox(frame, CODE_RX_INACTIVE)
	s.rxQueue = append(s.rxQueue, mb)
	if len(s.rxQueue) == 1 {
		s.loadOutputMailbox(mb)
	}
	if len(s.rxQueue) >= RX_FIFO_DEPTH-1 {
		s.iflag |= 1 << RxFifoWarningFlag
	}
	return true
}

// Transmit sends every active-once transmit mailbox, lowest mailbox first,
// and returns the frames put on the bus. Each sent mailbox goes back to
// inactive and raises its IFLAG1 bit. Unless self reception is disabled the
// controller also receives its own frames.
func (s *SimulatedController) Transmit() []can.Frame {
	var sent []can.Frame

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.running() {
		return nil
	}
	for mb := FIRST_TX_MAILBOX; mb < NUM_MAILBOXES; mb++ {
		cs := s.index(mailboxOffset(mb) + MB_CS)
		image := Mailbox{
			CS: s.words[cs],
			ID: s.words[cs+1],
			Data: [2]uint32{
				s.words[cs+2],
				s.words[cs+3],
			},
		}
		if image.Code() != CODE_ACTIVE_ONCE {
			continue
		}
		frame := DecodeMailbox(image)
		sent = append(sent, frame)
		s.words[cs] = (image.CS &^ CS_CODE_MASK) | uint32(CODE_INACTIVE)<<CS_CODE_SHIFT
		s.iflag |= 1 << mb
		if s.mcr&MCR_SRXDIS == 0 {
			s.deliver(&frame)
		}
	}
	return sent
}

// Mailbox returns a mailbox image without any side effect.
func (s *SimulatedController) Mailbox(index int) Mailbox {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	base := s.index(mailboxOffset(index))
	return Mailbox{
		CS:   s.words[base],
		ID:   s.words[base+1],
		Data: [2]uint32{s.words[base+2], s.words[base+3]},
	}
}

// Pending is the number of frames waiting in the receive FIFO.
func (s *SimulatedController) Pending() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.rxQueue)
}

func (s *SimulatedController) Writes() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.writes
}

// Dropped counts frames lost to a full receive FIFO.
func (s *SimulatedController) Dropped() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.dropped
}

// FreezeViolations counts writes to freeze-only registers outside freeze
// mode. The controller ignores such writes.
func (s *SimulatedController) FreezeViolations() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.freezeViolations
}
