// Package flexcan drives the three FlexCAN-style controllers of the board in
// polling mode: lifecycle, bit timing, mailbox pool and mailbox frame codec.
//
// The driver never touches memory directly. Every access goes through a
// RegisterBlock, so the same code runs against the memory-mapped peripheral
// on target and against SimulatedController on a host.
package flexcan

import "fmt"

// RegisterBlock is one controller's register window. Offsets are byte
// offsets from the block base and are always 32-bit aligned.
type RegisterBlock interface {
	Read32(offset uint32) uint32
	Write32(offset uint32, value uint32)
}

const NUM_CONTROLLERS = 3

// Register block base addresses and (unused) interrupt vector numbers.
var (
	BaseAddresses    = [NUM_CONTROLLERS]uint32{0x40024000, 0x40025000, 0x4002B000}
	InterruptVectors = [NUM_CONTROLLERS]uint{81, 88, 95}
)

// Register offsets.
const (
	REG_MCR      = 0x000
	REG_CTRL1    = 0x004
	REG_TIMER    = 0x008
	REG_RXMGMASK = 0x010
	REG_RX14MASK = 0x014
	REG_RX15MASK = 0x018
	REG_ECR      = 0x01C
	REG_ESR1     = 0x020
	REG_IMASK1   = 0x028
	REG_IFLAG1   = 0x030
	REG_CTRL2    = 0x034
	REG_RXFGMASK = 0x048
	REG_RXFIR    = 0x04C
	REG_MB_BASE  = 0x080
	REG_RXIMR    = 0x880

	REGISTER_WINDOW = 0x1000
)

// MCR bits.
const (
	MCR_MDIS    = 1 << 31
	MCR_FRZ     = 1 << 30
	MCR_RFEN    = 1 << 29
	MCR_HALT    = 1 << 28
	MCR_NOTRDY  = 1 << 27
	MCR_SOFTRST = 1 << 25
	MCR_FRZACK  = 1 << 24
	MCR_SRXDIS  = 1 << 17
	MCR_MAXMB   = 0x7F
)

// CTRL1 fields.
const (
	CTRL1_PRESDIV_SHIFT = 24
	CTRL1_RJW_SHIFT     = 22
	CTRL1_PSEG1_SHIFT   = 19
	CTRL1_PSEG2_SHIFT   = 16
	CTRL1_PROPSEG_SHIFT = 0
	CTRL1_TIMING_MASK   = 0xFFFF0007
)

// Mailbox pool layout. With the receive FIFO enabled, mailboxes 0-5 belong
// to the FIFO engine, 6-7 hold the 8-entry identifier filter table and
// 8-15 are free for transmission.
const (
	NUM_MAILBOXES       = 16
	MAILBOX_SIZE        = 16
	NUM_FILTER_SLOTS    = 8
	NUM_TRANSMIT_SLOTS  = 8
	FIRST_TX_MAILBOX    = 8
	RX_FIFO_MAILBOX     = 0
	RX_FIFO_DEPTH       = 6
	REG_FILTER_TABLE    = REG_MB_BASE + 6*MAILBOX_SIZE
	FILTER_ENTRY_SIZE   = 4
	NUM_INDIVIDUAL_MASK = NUM_MAILBOXES
)

// IFLAG1 bits used by the receive FIFO. The "frames available" flag is tied
// to mailbox index 5 on this controller revision.
const (
	RxFifoReadyFlag    = 5
	RxFifoWarningFlag  = 6
	RxFifoOverflowFlag = 7
)

// Mailbox word offsets inside one mailbox.
const (
	MB_CS    = 0x0
	MB_ID    = 0x4
	MB_DATA0 = 0x8
	MB_DATA1 = 0xC
)

// MailboxCode is the 4-bit CODE field of a mailbox control/status word.
type MailboxCode uint8

const (
	CODE_RX_INACTIVE   MailboxCode = 0x0
	CODE_RX_FULL       MailboxCode = 0x2
	CODE_INACTIVE      MailboxCode = 0x8
	CODE_ABORT         MailboxCode = 0x9
	CODE_RESPONSE      MailboxCode = 0xA
	CODE_ACTIVE_ONCE   MailboxCode = 0xC
	CODE_RESPONSE_ONCE MailboxCode = 0xE
)

var mailboxCodeNames = map[MailboxCode]string{
	CODE_RX_INACTIVE:   "rx-inactive",
	CODE_RX_FULL:       "rx-full",
	CODE_INACTIVE:      "inactive",
	CODE_ABORT:         "abort-pending",
	CODE_RESPONSE:      "response",
	CODE_ACTIVE_ONCE:   "active-once",
	CODE_RESPONSE_ONCE: "response-once",
}

func (code MailboxCode) String() string {
	if s, ok := mailboxCodeNames[code]; ok {
		return s
	}
	return fmt.Sprintf("code-%X", uint8(code))
}

// Free reports whether a transmit mailbox holding this code may be rewritten.
func (code MailboxCode) Free() bool {
	return code == CODE_INACTIVE || code == CODE_ABORT
}

// Control/status word fields.
const (
	CS_CODE_SHIFT = 24
	CS_CODE_MASK  = 0xF << CS_CODE_SHIFT
	CS_SRR        = 1 << 22
	CS_IDE        = 1 << 21
	CS_RTR        = 1 << 20
	CS_DLC_SHIFT  = 16
	CS_DLC_MASK   = 0xF << CS_DLC_SHIFT

	ID_STD_SHIFT = 18
	ID_STD_MASK  = 0x7FF << ID_STD_SHIFT
	ID_EXT_MASK  = 0x1FFFFFFF
)

func mailboxOffset(mb int) uint32 {
	return REG_MB_BASE + uint32(mb)*MAILBOX_SIZE
}

func setBits(regs RegisterBlock, offset uint32, bits uint32) {
	regs.Write32(offset, regs.Read32(offset)|bits)
}

func clearBits(regs RegisterBlock, offset uint32, bits uint32) {
	regs.Write32(offset, regs.Read32(offset)&^bits)
}
