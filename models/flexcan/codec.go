package flexcan

import (
	"encoding/binary"

	"github.com/omzlo/canbridge/models/can"
)

// Mailbox is the raw four-word image of one message buffer.
type Mailbox struct {
	CS   uint32
	ID   uint32
	Data [2]uint32
}

func (mb Mailbox) Code() MailboxCode {
	return MailboxCode((mb.CS & CS_CODE_MASK) >> CS_CODE_SHIFT)
}

// SwapByteLanes reverses each 4-byte group of a payload. Applying it twice
// yields the original payload.
//
// Each data word stores payload byte 0 in its most significant lane, so a
// payload seen as little-endian words must be reversed per word.
func SwapByteLanes(p [8]byte) [8]byte {
	return [8]byte{p[3], p[2], p[1], p[0], p[7], p[6], p[5], p[4]}
}

// EncodeMailbox builds the mailbox image of a frame with the given code.
// The length is written as is, without checking it against 8.
func EncodeMailbox(frame *can.Frame, code MailboxCode) Mailbox {
	var mb Mailbox

	mb.CS = uint32(code&0xF)<<CS_CODE_SHIFT | uint32(frame.Dlc&0xF)<<CS_DLC_SHIFT
	if frame.Extended {
		mb.CS |= CS_IDE | CS_SRR
		mb.ID = frame.CanId & ID_EXT_MASK
	} else {
		mb.ID = (frame.CanId << ID_STD_SHIFT) & ID_STD_MASK
	}

	lanes := SwapByteLanes(frame.Data)
	mb.Data[0] = binary.LittleEndian.Uint32(lanes[0:4])
	mb.Data[1] = binary.LittleEndian.Uint32(lanes[4:8])
	return mb
}

// DecodeMailbox converts a mailbox image back to a frame. The extended flag
// comes from the mailbox's own IDE bit.
func DecodeMailbox(mb Mailbox) can.Frame {
	var frame can.Frame
	var lanes [8]byte

	frame.Extended = mb.CS&CS_IDE != 0
	if frame.Extended {
		frame.CanId = mb.ID & ID_EXT_MASK
	} else {
		frame.CanId = (mb.ID & ID_STD_MASK) >> ID_STD_SHIFT
	}
	frame.Dlc = uint8((mb.CS & CS_DLC_MASK) >> CS_DLC_SHIFT)

	binary.LittleEndian.PutUint32(lanes[0:4], mb.Data[0])
	binary.LittleEndian.PutUint32(lanes[4:8], mb.Data[1])
	frame.Data = SwapByteLanes(lanes)
	return frame
}

func readMailbox(regs RegisterBlock, index int) Mailbox {
	base := mailboxOffset(index)
	return Mailbox{
		CS: regs.Read32(base + MB_CS),
		ID: regs.Read32(base + MB_ID),
		Data: [2]uint32{
			regs.Read32(base + MB_DATA0),
			regs.Read32(base + MB_DATA1),
		},
	}
}

// writeMailbox commits a mailbox image. The control/status word goes last so
// that the controller never sees an active code next to stale data.
func writeMailbox(regs RegisterBlock, index int, mb Mailbox) {
	base := mailboxOffset(index)
	regs.Write32(base+MB_ID, mb.ID)
	regs.Write32(base+MB_DATA0, mb.Data[0])
	regs.Write32(base+MB_DATA1, mb.Data[1])
	regs.Write32(base+MB_CS, mb.CS)
}
