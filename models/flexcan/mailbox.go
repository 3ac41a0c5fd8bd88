package flexcan

import (
	"errors"
	"fmt"

	"github.com/omzlo/canbridge/models/can"
)

var ErrNoFreeMailbox = errors.New("no free transmit mailbox")

// FilterEntry is one slot of the receive FIFO identifier filter table
// (format A: one full identifier per entry).
type FilterEntry struct {
	Id       uint32
	Extended bool
	Remote   bool
}

func (fe FilterEntry) encode() uint32 {
	var v uint32

	if fe.Remote {
		v |= 1 << 31
	}
	if fe.Extended {
		v |= 1<<30 | (fe.Id&ID_EXT_MASK)<<1
	} else {
		v |= (fe.Id & 0x7FF) << 19
	}
	return v
}

// resetFilters leaves the receive path non-selective: zero global and
// individual masks make every filter entry match every frame.
func (c *Controller) resetFilters() {
	c.regs.Write32(REG_RXMGMASK, 0)
	c.regs.Write32(REG_RX14MASK, 0)
	c.regs.Write32(REG_RX15MASK, 0)
	c.regs.Write32(REG_RXFGMASK, 0)
	for i := 0; i < NUM_INDIVIDUAL_MASK; i++ {
		c.regs.Write32(REG_RXIMR+uint32(i)*4, 0)
	}
	for i := 0; i < NUM_FILTER_SLOTS; i++ {
		c.regs.Write32(REG_FILTER_TABLE+uint32(i)*FILTER_ENTRY_SIZE, FilterEntry{}.encode())
	}
}

func (c *Controller) resetTransmitSlots() {
	for slot := 0; slot < NUM_TRANSMIT_SLOTS; slot++ {
		c.regs.Write32(mailboxOffset(FIRST_TX_MAILBOX+slot)+MB_CS, uint32(CODE_INACTIVE)<<CS_CODE_SHIFT)
	}
	c.reserved = 0
}

// TransmitState returns the control code currently held by a transmit slot.
func (c *Controller) TransmitState(slot int) MailboxCode {
	cs := c.regs.Read32(mailboxOffset(FIRST_TX_MAILBOX+slot) + MB_CS)
	return MailboxCode((cs & CS_CODE_MASK) >> CS_CODE_SHIFT)
}

// AcquireFreeTransmitSlot returns the lowest transmit slot whose mailbox is
// inactive or abort-pending and that has not already been handed out. The
// slot stays reserved until CommitTransmit or ReleaseTransmitSlot.
//
// The scan always starts at slot 0, so low slots are favoured under load.
func (c *Controller) AcquireFreeTransmitSlot() (int, error) {
	for slot := 0; slot < NUM_TRANSMIT_SLOTS; slot++ {
		if c.reserved&(1<<slot) != 0 {
			continue
		}
		if c.TransmitState(slot).Free() {
			c.reserved |= 1 << slot
			return slot, nil
		}
	}
	return -1, ErrNoFreeMailbox
}

func (c *Controller) ReleaseTransmitSlot(slot int) {
	if slot >= 0 && slot < NUM_TRANSMIT_SLOTS {
		c.reserved &^= 1 << slot
	}
}

// CommitTransmit writes frame into a slot obtained from
// AcquireFreeTransmitSlot and marks it active-once.
func (c *Controller) CommitTransmit(slot int, frame *can.Frame) error {
	if slot < 0 || slot >= NUM_TRANSMIT_SLOTS || c.reserved&(1<<slot) == 0 {
		return fmt.Errorf("CAN%d: transmit slot %d was not acquired", c.Index, slot)
	}
	c.regs.Write32(REG_IFLAG1, 1<<(FIRST_TX_MAILBOX+slot))
	writeMailbox(c.regs, FIRST_TX_MAILBOX+slot, EncodeMailbox(frame, CODE_ACTIVE_ONCE))
	c.reserved &^= 1 << slot
	return nil
}

// PollReceiveReady reports whether the receive FIFO output mailbox holds a
// frame.
func (c *Controller) PollReceiveReady() bool {
	return c.regs.Read32(REG_IFLAG1)&(1<<RxFifoReadyFlag) != 0
}

// ReadReceive copies the receive FIFO output mailbox. Reading TIMER
// afterwards releases the mailbox lock taken by the CS read.
func (c *Controller) ReadReceive() can.Frame {
	mb := readMailbox(c.regs, RX_FIFO_MAILBOX)
	c.regs.Read32(REG_TIMER)
	return DecodeMailbox(mb)
}

// AcknowledgeReceive clears the ready flag (write one to clear), letting the
// FIFO present its next frame.
func (c *Controller) AcknowledgeReceive() {
	c.regs.Write32(REG_IFLAG1, 1<<RxFifoReadyFlag)
}
