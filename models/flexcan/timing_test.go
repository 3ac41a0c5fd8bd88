package flexcan

import (
	"errors"
	"testing"
)

func TestComputeBitTimingTiers(t *testing.T) {
	cases := []struct {
		rate    uint
		tier    uint8
		presdiv uint8
		nominal uint
	}{
		{2000, 1, 0, 1000},
		{1000, 1, 0, 1000},
		{999, 2, 1, 500},
		{500, 2, 1, 500},
		{499, 3, 3, 250},
		{250, 3, 3, 250},
	}

	for _, tc := range cases {
		bt, err := ComputeBitTiming(tc.rate, false)
		if err != nil {
			t.Fatalf("ComputeBitTiming(%d): %v", tc.rate, err)
		}
		if bt.Tier != tc.tier || bt.Presdiv != tc.presdiv {
			t.Fatalf("ComputeBitTiming(%d) = %s, want tier %d presdiv %d", tc.rate, bt, tc.tier, tc.presdiv)
		}
		if bt.TimeQuanta() != QUANTA_PER_BIT {
			t.Fatalf("ComputeBitTiming(%d): %d quanta per bit, want %d", tc.rate, bt.TimeQuanta(), QUANTA_PER_BIT)
		}
		if bt.BitRateKHz() != tc.nominal {
			t.Fatalf("ComputeBitTiming(%d): nominal %d kbit/s, want %d", tc.rate, bt.BitRateKHz(), tc.nominal)
		}
		if !bt.valid() {
			t.Fatalf("ComputeBitTiming(%d): fields do not fit CTRL1", tc.rate)
		}
	}
}

func TestComputeBitTimingLowRates(t *testing.T) {
	for _, rate := range []uint{0, 125, 249} {
		if _, err := ComputeBitTiming(rate, false); !errors.Is(err, ErrUnsupportedBitRate) {
			t.Fatalf("ComputeBitTiming(%d, strict) error = %v, want ErrUnsupportedBitRate", rate, err)
		}
		bt, err := ComputeBitTiming(rate, true)
		if err != nil || bt.Tier != 3 {
			t.Fatalf("ComputeBitTiming(%d, fallback) = %s, %v; want tier 3", rate, bt, err)
		}
	}
}

func TestBitTimingCtrl1Packing(t *testing.T) {
	bt := BitTiming{Presdiv: 3, Rjw: 1, Propseg: 2, Pseg1: 1, Pseg2: 1}
	// PRESDIV=3, RJW=1, PSEG1=1, PSEG2=1, PROPSEG=2
	const want = 0x03<<24 | 1<<22 | 1<<19 | 1<<16 | 2
	if got := bt.ctrl1(); got != want {
		t.Fatalf("ctrl1() = 0x%08x, want 0x%08x", got, uint32(want))
	}
	if bt.SamplePoint() != 75 {
		t.Fatalf("SamplePoint() = %d, want 75", bt.SamplePoint())
	}
}
