package core

import (
	"errors"
	"testing"
)

func TestBoardValidate(t *testing.T) {
	tests := []struct {
		name    string
		edit    func(b *Board)
		wantErr bool
	}{
		{"bitbot", func(b *Board) {}, false},
		{"no leds", func(b *Board) { b.LEDCount = 0 }, false},
		{"negative leds", func(b *Board) { b.LEDCount = -1 }, true},
		{"too many leds", func(b *Board) { b.LEDCount = MaxLEDCount + 1 }, true},
		{"last edge pin", func(b *Board) { b.Buzzer = MaxEdgePin }, false},
		{"past the edge", func(b *Board) { b.LEDData = MaxEdgePin + 1 }, true},
	}
	for _, tt := range tests {
		b := BitBot
		tt.edit(&b)
		err := b.Validate(MaxEdgePin)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v", tt.name, err)
		}
		if err != nil && !errors.Is(err, ErrBadBoard) {
			t.Errorf("%s: %v does not match ErrBadBoard", tt.name, err)
		}
	}

	b := BitBot
	b.LEDData = 30
	if err := b.Validate(MaxEdgePin); err == nil || err.Error() != "invalid board: led_data = 30" {
		t.Errorf("err = %v", err)
	}
}

func TestNegativeLEDCountMeansNoPixels(t *testing.T) {
	strip := NewLEDStrip(&mockStrip{}, -4)
	if strip.Len() != 0 {
		t.Errorf("Len = %d", strip.Len())
	}
	strip.Fill(Red)
	if err := strip.Show(); err != nil {
		t.Fatal(err)
	}
}
