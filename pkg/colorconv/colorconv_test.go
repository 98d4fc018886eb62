package colorconv

import (
	"fmt"
	"testing"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"oklch(1 0 0)", "rgb(255,255,255)"},
		{"oklch(0 0 0)", "rgb(0,0,0)"},
		{"OKLCH(100% 0 0)", "rgb(255,255,255)"},
		{"oklch(1 0 0 / 0.5)", "rgb(255,255,255)"},
		{"  oklch(0 0 0deg)  ", "rgb(0,0,0)"},
		{"oklab(1 0 0)", "rgb(255,255,255)"},
		{"oklab(0 0 0)", "rgb(0,0,0)"},
		{"oklab(0.5 0 0)", "rgb(188,188,188)"},
		{"oklch(0.5 0 180)", "rgb(188,188,188)"},
		{"oklch(2 0 0)", "rgb(255,255,255)"},
		{"oklab(-1 0 0)", "rgb(0,0,0)"},
		{"oklab(.5 -0 +0)", "rgb(188,188,188)"},
		{"oklch(0.7 0.1 30)", "rgb(244,209,201)"},
		{"oklch(0.5 0.05 200)", "rgb(169,193,194)"},
		{"oklch(70% 0.1 30deg)", "rgb(244,209,201)"},
		{"oklch(bad)", "oklch(bad)"},
		{"oklch(1 0)", "oklch(1 0)"},
		{"oklch(1, 0, 0)", "oklch(1, 0, 0)"},
		{"rgb(1,2,3)", "rgb(1,2,3)"},
		{"#ff0000", "#ff0000"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Convert(tt.in); got != tt.want {
				t.Errorf("Convert(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestReplaceAll(t *testing.T) {
	in := "fill:oklch(1 0 0);stroke:oklch(bad);border:1px solid oklab(0 0 0)"
	want := "fill:rgb(255,255,255);stroke:oklch(bad);border:1px solid rgb(0,0,0)"
	if got := ReplaceAll(in); got != want {
		t.Errorf("ReplaceAll = %q, want %q", got, want)
	}
}

func TestIs(t *testing.T) {
	if !Is("oklch(0.21 0.034 264.665)") {
		t.Error("theme color should be recognized")
	}
	if Is("rgb(0,0,0)") {
		t.Error("rgb should not be recognized")
	}
}

func ExampleConvert() {
	fmt.Println(Convert("oklch(1 0 0)"))
	fmt.Println(Convert("oklch(bad)"))
	// Output:
	// rgb(255,255,255)
	// oklch(bad)
}
