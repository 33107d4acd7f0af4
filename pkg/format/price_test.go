package format

import "testing"

func TestPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{0.00000812, "0.00000812"},
		{0.004521, "0.004521"},
		{0.4567, "0.4567"},
		{2.345, "2.345"},
		{67423.51, "67423.51"},
	}
	for _, tt := range tests {
		if got := Price(tt.in); got != tt.want {
			t.Errorf("Price(%v) = %q, ожидалось %q", tt.in, got, tt.want)
		}
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(3.456); got != "3.46%" {
		t.Errorf("Percent(3.456) = %q, ожидалось 3.46%%", got)
	}
	if got := Percent(-1.2); got != "-1.20%" {
		t.Errorf("Percent(-1.2) = %q, ожидалось -1.20%%", got)
	}
}
