package layout

import "testing"

func TestContentWidthPx(t *testing.T) {
	if got, want := ContentWidthPx(), PageWidthPx-MarginLeftPx-MarginRightPx; got != want {
		t.Errorf("ContentWidthPx() = %v, want %v", got, want)
	}
}

func TestAvailableHeightPx(t *testing.T) {
	if got, want := AvailableHeightPx(), 3300.0; got != want {
		t.Errorf("AvailableHeightPx() = %v, want %v", got, want)
	}
}
