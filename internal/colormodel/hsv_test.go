package colormodel

import (
	"image/color"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFromRGBA_KnownColors(t *testing.T) {
	tests := []struct {
		name    string
		color   color.RGBA
		wantHue float64
		wantSat float64
		wantVal float64
	}{
		{"red", color.RGBA{255, 0, 0, 255}, 0, 1, 1},
		{"green", color.RGBA{0, 255, 0, 255}, 120, 1, 1},
		{"blue", color.RGBA{0, 0, 255, 255}, 240, 1, 1},
		{"yellow", color.RGBA{255, 255, 0, 255}, 60, 1, 1},
		{"cyan", color.RGBA{0, 255, 255, 255}, 180, 1, 1},
		{"magenta", color.RGBA{255, 0, 255, 255}, 300, 1, 1},
		{"black", color.RGBA{0, 0, 0, 255}, 0, 0, 0},
		{"white", color.RGBA{255, 255, 255, 255}, 0, 0, 1},
		{"dark red", color.RGBA{128, 0, 0, 255}, 0, 1, 128.0 / 255.0},
		{"orange", color.RGBA{255, 128, 64, 255}, 60 * (128.0 - 64.0) / (255.0 - 64.0), 1 - 64.0/255.0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromRGBA(tt.color)
			if !almostEqual(got.Hue, tt.wantHue) {
				t.Errorf("Hue: got %v, want %v", got.Hue, tt.wantHue)
			}
			if !almostEqual(got.Saturation, tt.wantSat) {
				t.Errorf("Saturation: got %v, want %v", got.Saturation, tt.wantSat)
			}
			if !almostEqual(got.Value, tt.wantVal) {
				t.Errorf("Value: got %v, want %v", got.Value, tt.wantVal)
			}
		})
	}
}

func TestFromRGBA_ValueIsMaxOver255(t *testing.T) {
	for r := 0; r < 256; r += 17 {
		for g := 0; g < 256; g += 51 {
			for b := 0; b < 256; b += 85 {
				c := color.RGBA{uint8(r), uint8(g), uint8(b), 255}
				want := float64(max(r, g, b)) / 255.0
				if got := FromRGBA(c).Value; got != want {
					t.Errorf("Value for %v: got %v, want %v", c, got, want)
				}
			}
		}
	}
}

func TestFromRGBA_GrayHasZeroSaturation(t *testing.T) {
	for v := 0; v < 256; v++ {
		c := color.RGBA{uint8(v), uint8(v), uint8(v), 255}
		hsv := FromRGBA(c)
		if hsv.Saturation != 0 {
			t.Errorf("Saturation for gray %d: got %v, want 0", v, hsv.Saturation)
		}
		if hsv.Hue != 0 {
			t.Errorf("Hue for gray %d: got %v, want 0", v, hsv.Hue)
		}
	}
}

func TestFromRGBA_Deterministic(t *testing.T) {
	c := color.RGBA{37, 201, 99, 255}
	first := FromRGBA(c)
	for i := 0; i < 100; i++ {
		if got := FromRGBA(c); got != first {
			t.Fatalf("iteration %d: got %v, want %v", i, got, first)
		}
	}
}

func TestFromRGBA_IgnoresAlpha(t *testing.T) {
	opaque := FromRGBA(color.RGBA{10, 200, 30, 255})
	clear := FromRGBA(color.RGBA{10, 200, 30, 0})
	if opaque != clear {
		t.Errorf("alpha changed result: %v vs %v", opaque, clear)
	}
}

func TestFromRGBA_HueRange(t *testing.T) {
	for r := 0; r < 256; r += 5 {
		for g := 0; g < 256; g += 5 {
			for b := 0; b < 256; b += 5 {
				h := FromRGBA(color.RGBA{uint8(r), uint8(g), uint8(b), 255}).Hue
				if h < 0 || h >= 360 {
					t.Fatalf("Hue for (%d,%d,%d) out of range: %v", r, g, b, h)
				}
			}
		}
	}
}

func TestFromColor(t *testing.T) {
	got := FromColor(color.NRGBA{0, 0, 255, 255})
	if !almostEqual(got.Hue, 240) || got.Value != 1 {
		t.Errorf("got %v, want hue 240, value 1", got)
	}
}

func TestFromColor_IgnoresAlpha(t *testing.T) {
	want := FromRGB(30, 200, 60)
	for _, a := range []uint8{255, 128, 1, 0} {
		if got := FromColor(color.NRGBA{30, 200, 60, a}); got != want {
			t.Errorf("alpha %d: got %v, want %v", a, got, want)
		}
	}
}

func TestAreClose(t *testing.T) {
	tests := []struct {
		name string
		a, b HSV
		want bool
	}{
		{"grays within tolerance", HSV{0, 0.05, 0.50}, HSV{0, 0.0, 0.58}, true},
		{"grays at tolerance", HSV{0, 0, 0.5}, HSV{0, 0, 0.6}, true},
		{"grays too far apart", HSV{0, 0, 0.2}, HSV{0, 0, 0.5}, false},
		{"gray vs chromatic", HSV{0, 0.05, 0.5}, HSV{0, 0.9, 0.5}, false},
		{"chromatic vs gray", HSV{0, 0.9, 0.5}, HSV{0, 0.0, 0.5}, false},
		{"hues within tolerance", HSV{120, 0.8, 0.2}, HSV{124, 0.5, 0.9}, true},
		{"hues at tolerance", HSV{100, 0.5, 0.5}, HSV{105, 0.5, 0.5}, true},
		{"hues too far apart", HSV{100, 0.5, 0.5}, HSV{106, 0.5, 0.5}, false},
		{"saturation boundary counts as chromatic", HSV{10, 0.1, 0.5}, HSV{12, 0.1, 0.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AreClose(tt.a, tt.b); got != tt.want {
				t.Errorf("AreClose(%v, %v): got %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := AreClose(tt.b, tt.a); got != tt.want {
				t.Errorf("AreClose(%v, %v): got %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestAreClose_Reflexive(t *testing.T) {
	for r := 0; r < 256; r += 15 {
		for g := 0; g < 256; g += 15 {
			for b := 0; b < 256; b += 15 {
				c := FromRGBA(color.RGBA{uint8(r), uint8(g), uint8(b), 255})
				if !AreClose(c, c) {
					t.Fatalf("AreClose(%v, %v) should be true", c, c)
				}
			}
		}
	}
}

// Hues straddling 0/360 are compared linearly.
func TestAreClose_HueWraparound(t *testing.T) {
	below := FromRGBA(color.RGBA{255, 0, 4, 255})
	above := FromRGBA(color.RGBA{255, 4, 0, 255})
	if below.Hue < 355 || above.Hue > 5 {
		t.Fatalf("unexpected hues: %v, %v", below.Hue, above.Hue)
	}
	if AreClose(below, above) {
		t.Error("hues across the 0/360 boundary should not compare as close")
	}
}

func TestHSV_String(t *testing.T) {
	got := HSV{Hue: 120, Saturation: 0.5, Value: 0.25}.String()
	want := "H: 120.0, S: 0.500, V: 0.250"
	if got != want {
		t.Errorf("String: got %q, want %q", got, want)
	}
}
