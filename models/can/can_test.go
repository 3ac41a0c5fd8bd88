package can

import (
	"errors"
	"testing"
)

func TestFrameValidateAndString(t *testing.T) {
	cases := []struct {
		name    string
		frame   Frame
		wantStr string
		wantErr error
	}{
		{
			name:    "standard with data",
			frame:   Frame{CanId: 0x123, Dlc: 2, Data: [8]byte{0xde, 0xad}},
			wantStr: "<STD@123 2: de ad>",
		},
		{
			name:    "extended empty",
			frame:   Frame{CanId: 0x1abcdeff, Extended: true},
			wantStr: "<EXT@1abcdeff 0:>",
		},
		{
			name:    "standard id too large",
			frame:   Frame{CanId: 0x800},
			wantStr: "<STD@800 0:>",
			wantErr: ErrIdOutOfRange,
		},
		{
			name:    "extended id too large",
			frame:   Frame{CanId: 0x20000000, Extended: true},
			wantStr: "<EXT@20000000 0:>",
			wantErr: ErrIdOutOfRange,
		},
		{
			name:    "dlc too large",
			frame:   Frame{CanId: 1, Dlc: 9},
			wantStr: "<STD@1 !9: 00 00 00 00 00 00 00 00>",
			wantErr: ErrDlcTooLarge,
		},
	}

	for _, tc := range cases {
		if err := tc.frame.Validate(); !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: Validate() = %v, want %v", tc.name, err, tc.wantErr)
		}
		if got := tc.frame.String(); got != tc.wantStr {
			t.Fatalf("%s: String() = %q, want %q", tc.name, got, tc.wantStr)
		}
	}
}

func TestNewFrame(t *testing.T) {
	f, err := NewFrame(0x7ff, false, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	if f.Dlc != 3 || string(f.Bytes()) != "\x01\x02\x03" {
		t.Fatalf("unexpected frame %s", f)
	}
	if _, err := NewFrame(1, false, make([]byte, 9)); !errors.Is(err, ErrDlcTooLarge) {
		t.Fatalf("NewFrame with 9 bytes: %v", err)
	}
}
