package flexcan

import (
	"math/rand"
	"testing"

	"github.com/omzlo/canbridge/models/can"
)

func TestSwapByteLanes(t *testing.T) {
	in := [8]byte{0, 1, 2, 3, 4, 5, 6, 7}
	want := [8]byte{3, 2, 1, 0, 7, 6, 5, 4}
	if got := SwapByteLanes(in); got != want {
		t.Fatalf("SwapByteLanes(%v) = %v, want %v", in, got, want)
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		var p [8]byte
		rng.Read(p[:])
		if got := SwapByteLanes(SwapByteLanes(p)); got != p {
			t.Fatalf("SwapByteLanes is not self-inverse for %v: %v", p, got)
		}
	}
}

func TestEncodeMailboxLayout(t *testing.T) {
	frame := can.Frame{CanId: 0x123, Dlc: 8, Data: [8]byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88}}
	mb := EncodeMailbox(&frame, CODE_ACTIVE_ONCE)

	if mb.Code() != CODE_ACTIVE_ONCE {
		t.Fatalf("code = %s, want active-once", mb.Code())
	}
	if mb.CS != 0x0C080000 {
		t.Fatalf("CS = 0x%08x, want 0x0c080000", mb.CS)
	}
	if mb.ID != 0x123<<18 {
		t.Fatalf("ID = 0x%08x, want 0x%08x", mb.ID, uint32(0x123<<18))
	}
	if mb.Data[0] != 0x11223344 || mb.Data[1] != 0x55667788 {
		t.Fatalf("Data = %08x %08x, want 11223344 55667788", mb.Data[0], mb.Data[1])
	}

	ext := can.Frame{CanId: 0x1abcdef0, Extended: true, Dlc: 1}
	mb = EncodeMailbox(&ext, CODE_ACTIVE_ONCE)
	if mb.ID != 0x1abcdef0 || mb.CS&CS_IDE == 0 || mb.CS&CS_SRR == 0 {
		t.Fatalf("extended encode: CS=0x%08x ID=0x%08x", mb.CS, mb.ID)
	}
}

func TestMailboxRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	for i := 0; i < 2000; i++ {
		frame := can.Frame{Extended: i%2 == 1, Dlc: uint8(rng.Intn(9))}
		if frame.Extended {
			frame.CanId = uint32(rng.Int63n(can.MAX_EXTENDED_ID + 1))
		} else {
			frame.CanId = uint32(rng.Intn(can.MAX_STANDARD_ID + 1))
		}
		rng.Read(frame.Data[:])

		got := DecodeMailbox(EncodeMailbox(&frame, CODE_ACTIVE_ONCE))
		if got != frame {
			t.Fatalf("round trip of %s gave %s", &frame, &got)
		}
	}

	for _, id := range []uint32{0, 1, can.MAX_STANDARD_ID} {
		frame := can.Frame{CanId: id}
		if got := DecodeMailbox(EncodeMailbox(&frame, CODE_INACTIVE)); got.CanId != id || got.Extended {
			t.Fatalf("standard id %x decoded as %s", id, &got)
		}
	}
	for _, id := range []uint32{0, 0x800, can.MAX_EXTENDED_ID} {
		frame := can.Frame{CanId: id, Extended: true}
		if got := DecodeMailbox(EncodeMailbox(&frame, CODE_INACTIVE)); got.CanId != id || !got.Extended {
			t.Fatalf("extended id %x decoded as %s", id, &got)
		}
	}
}

func TestFilterEntryEncode(t *testing.T) {
	if v := (FilterEntry{}).encode(); v != 0 {
		t.Fatalf("accept-all entry = 0x%08x, want 0", v)
	}
	if v := (FilterEntry{Id: 0x7ff, Remote: true}).encode(); v != 1<<31|0x7ff<<19 {
		t.Fatalf("standard remote entry = 0x%08x", v)
	}
	if v := (FilterEntry{Id: 0x1fffffff, Extended: true}).encode(); v != 1<<30|0x1fffffff<<1 {
		t.Fatalf("extended entry = 0x%08x", v)
	}
}
