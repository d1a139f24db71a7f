package main

import "testing"

func TestNESControllerShiftsButtonsInFixedOrder(t *testing.T) {
	c := NewNESController()
	var s JoypadState
	s.Buttons[ButtonA] = true
	s.Buttons[ButtonRight] = true
	c.Latch(s)
	got := []byte{}
	for i := 0; i < 8; i++ {
		got = append(got, c.ReadPort(0))
	}
	want := []byte{1, 0, 0, 0, 0, 0, 0, 1} // A, B, Select, Start, Up, Down, Left, Right
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bit %d = %d, want %d (got %v)", i, got[i], want[i], got)
		}
	}
	if c.ReadPort(0) != 1 {
		t.Fatal("reads past the 8th bit must return 1 (open bus)")
	}
}

func TestNESControllerStrobeRelatches(t *testing.T) {
	c := NewNESController()
	var s JoypadState
	s.Buttons[ButtonA] = true
	c.Latch(s)
	c.ReadPort(0)
	c.ReadPort(0)
	c.WritePort(0, 1)
	c.WritePort(0, 0) // strobe high-then-low resets the shift index
	if c.ReadPort(0) != 1 {
		t.Fatal("strobe must reset shift position back to bit 0 (A)")
	}
}

func TestSNESControllerSixteenBitReport(t *testing.T) {
	c := NewSNESController()
	var s JoypadState
	s.Buttons[ButtonB] = true
	c.Latch(s)
	if c.ReadPort(0) != 1 {
		t.Fatal("first bit out must be B")
	}
	for i := 0; i < 15; i++ {
		c.ReadPort(0)
	}
	if c.ReadPort(0) != 1 {
		t.Fatal("past bit 16, must return 1 (open bus)")
	}
}

func TestGBControllerSelectsActionVsDirection(t *testing.T) {
	c := NewGBController()
	var s JoypadState
	s.Buttons[ButtonA] = true
	s.Buttons[ButtonUp] = true
	c.Latch(s)

	c.WritePort(0, 0x20) // bit4 low selects direction keys (active-low select lines)
	if c.ReadPort(0)&0x04 != 0 {
		t.Fatal("Up must read active (bit cleared) when direction keys selected")
	}

	c.WritePort(0, 0x10) // bit5 low selects action keys
	if c.ReadPort(0)&0x01 != 0 {
		t.Fatal("A must read active (bit cleared) when action keys selected")
	}
}

func TestN64ControllerRespondsToReadStateCommand(t *testing.T) {
	c := NewN64Controller()
	var s JoypadState
	s.Buttons[ButtonA] = true
	s.Buttons[ButtonStart] = true
	c.Latch(s)
	c.WritePort(0, 0x01)
	b0 := c.ReadPort(0)
	if b0&0x80 == 0 {
		t.Fatal("A bit must be set in the first response byte")
	}
	if b0&0x10 == 0 {
		t.Fatal("Start bit must be set in the first response byte")
	}
}

func TestPCEMultitapSelectsPlayerByPort(t *testing.T) {
	c := NewPCEMultitap()
	var p0, p1 JoypadState
	p0.Buttons[ButtonA] = true
	p1.Buttons[ButtonB] = true
	c.LatchPlayer(0, p0)
	c.LatchPlayer(1, p1)

	c.WritePort(0, 0)
	if c.ReadPort(0)&(1<<5) != 0 {
		t.Fatal("player 0's A press must clear bit 5")
	}

	c.WritePort(0, 1)
	if c.ReadPort(0)&(1<<4) != 0 {
		t.Fatal("player 1's B press must clear bit 4")
	}
}
