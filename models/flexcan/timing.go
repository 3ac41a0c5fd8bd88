package flexcan

import (
	"errors"
	"fmt"
)

// Every profile is tuned for this oscillator and 8 time quanta per bit.
const (
	REFERENCE_CLOCK_KHZ = 8000
	QUANTA_PER_BIT      = 8
)

var ErrUnsupportedBitRate = errors.New("unsupported bit rate")

// BitTiming holds the CTRL1 timing fields. All segment fields use the
// register encoding, i.e. the number of quanta minus one.
type BitTiming struct {
	Tier    uint8
	Presdiv uint8
	Rjw     uint8
	Propseg uint8
	Pseg1   uint8
	Pseg2   uint8
}

var timingTiers = [...]struct {
	minKHz uint
	timing BitTiming
}{
	{1000, BitTiming{Tier: 1, Presdiv: 0, Rjw: 1, Propseg: 2, Pseg1: 1, Pseg2: 1}},
	{500, BitTiming{Tier: 2, Presdiv: 1, Rjw: 1, Propseg: 2, Pseg1: 1, Pseg2: 1}},
	{250, BitTiming{Tier: 3, Presdiv: 3, Rjw: 1, Propseg: 2, Pseg1: 1, Pseg2: 1}},
}

// ComputeBitTiming selects the pre-tuned profile for the tier the target
// rate falls in. Rates below the slowest tier are rejected, unless fallback
// is set, in which case they silently use the slowest tier.
func ComputeBitTiming(bitRateKHz uint, fallback bool) (BitTiming, error) {
	for _, tier := range timingTiers {
		if bitRateKHz >= tier.minKHz {
			return tier.timing, nil
		}
	}
	if fallback {
		return timingTiers[len(timingTiers)-1].timing, nil
	}
	return BitTiming{}, fmt.Errorf("%w: %d kbit/s", ErrUnsupportedBitRate, bitRateKHz)
}

// TimeQuanta is the number of quanta in one bit, sync segment included.
func (bt BitTiming) TimeQuanta() uint {
	return 1 + (uint(bt.Propseg) + 1) + (uint(bt.Pseg1) + 1) + (uint(bt.Pseg2) + 1)
}

// BitRateKHz is the nominal rate the profile produces on the reference clock.
func (bt BitTiming) BitRateKHz() uint {
	return REFERENCE_CLOCK_KHZ / ((uint(bt.Presdiv) + 1) * bt.TimeQuanta())
}

// SamplePoint is the sample point in percent of the bit time.
func (bt BitTiming) SamplePoint() uint {
	return 100 * (bt.TimeQuanta() - (uint(bt.Pseg2) + 1)) / bt.TimeQuanta()
}

func (bt BitTiming) valid() bool {
	return bt.Rjw <= 0x3 && bt.Propseg <= 0x7 && bt.Pseg1 <= 0x7 && bt.Pseg2 <= 0x7
}

func (bt BitTiming) ctrl1() uint32 {
	return uint32(bt.Presdiv)<<CTRL1_PRESDIV_SHIFT |
		uint32(bt.Rjw&0x3)<<CTRL1_RJW_SHIFT |
		uint32(bt.Pseg1&0x7)<<CTRL1_PSEG1_SHIFT |
		uint32(bt.Pseg2&0x7)<<CTRL1_PSEG2_SHIFT |
		uint32(bt.Propseg&0x7)<<CTRL1_PROPSEG_SHIFT
}

func (bt BitTiming) String() string {
	return fmt.Sprintf("tier %d, %d kbit/s (presdiv=%d rjw=%d propseg=%d pseg1=%d pseg2=%d, %d tq, sample point %d%%)",
		bt.Tier, bt.BitRateKHz(), bt.Presdiv, bt.Rjw, bt.Propseg, bt.Pseg1, bt.Pseg2, bt.TimeQuanta(), bt.SamplePoint())
}
