package can

import (
	"errors"
	"fmt"
)

const (
	MAX_STANDARD_ID = (1 << 11) - 1
	MAX_EXTENDED_ID = (1 << 29) - 1
	MAX_DLC         = 8
)

var (
	ErrIdOutOfRange = errors.New("CAN identifier out of range")
	ErrDlcTooLarge  = errors.New("CAN data length larger than 8")
)

// Frame is a classic CAN 2.0 data frame as seen by the application. Only the
// first Dlc bytes of Data are meaningful.
type Frame struct {
	CanId    uint32
	Extended bool
	Dlc      uint8
	Data     [8]uint8
}

func NewFrame(id uint32, extended bool, data []byte) (*Frame, error) {
	frame := &Frame{CanId: id, Extended: extended}
	if len(data) > MAX_DLC {
		return nil, ErrDlcTooLarge
	}
	frame.Dlc = uint8(copy(frame.Data[:], data))
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	return frame, nil
}

func (frame *Frame) Validate() error {
	if frame.Extended {
		if frame.CanId > MAX_EXTENDED_ID {
			return fmt.Errorf("%w: extended id 0x%x", ErrIdOutOfRange, frame.CanId)
		}
	} else if frame.CanId > MAX_STANDARD_ID {
		return fmt.Errorf("%w: standard id 0x%x", ErrIdOutOfRange, frame.CanId)
	}
	if frame.Dlc > MAX_DLC {
		return ErrDlcTooLarge
	}
	return nil
}

// Bytes returns the meaningful part of the payload.
func (frame *Frame) Bytes() []byte {
	dlc := frame.Dlc
	if dlc > MAX_DLC {
		dlc = MAX_DLC
	}
	return frame.Data[:dlc]
}

func (frame *Frame) String() string {
	var s string
	dlc := frame.Dlc

	if frame.Extended {
		s = "EXT"
	} else {
		s = "STD"
	}

	s += fmt.Sprintf("@%x ", frame.CanId)
	if dlc > MAX_DLC {
		s += fmt.Sprintf("!%d:", dlc)
		dlc = MAX_DLC
	} else {
		s += fmt.Sprintf("%d:", dlc)
	}

	for i := uint8(0); i < dlc; i++ {
		s += fmt.Sprintf(" %02x", frame.Data[i])
	}
	return "<" + s + ">"
}
