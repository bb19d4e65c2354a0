package score

import (
	"errors"
	"image"
	"testing"
)

func TestDividerSetValid(t *testing.T) {
	cases := []struct {
		name string
		d    DividerSet
		want bool
	}{
		{
			name: "empty",
			d:    DividerSet{},
			want: true,
		},
		{
			name: "one system two staves",
			d: DividerSet{
				Y:              []float64{0, 100, 200},
				SystemBoundary: []bool{true, false, false},
				StripNames:     []string{"Violin I", "Viola"},
			},
			want: true,
		},
		{
			name: "mismatched system boundary length",
			d: DividerSet{
				Y:              []float64{0, 100},
				SystemBoundary: []bool{true},
				StripNames:     []string{"Violin I"},
			},
			want: false,
		},
		{
			name: "mismatched strip names length",
			d: DividerSet{
				Y:              []float64{0, 100, 200},
				SystemBoundary: []bool{true, false, false},
				StripNames:     []string{"Violin I"},
			},
			want: false,
		},
		{
			name: "non-increasing Y",
			d: DividerSet{
				Y:              []float64{0, 100, 100},
				SystemBoundary: []bool{true, false, false},
				StripNames:     []string{"Violin I", "Viola"},
			},
			want: false,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.d.Valid(); got != c.want {
				t.Errorf("Valid() = %v, want %v", got, c.want)
			}
		})
	}
}

// TestStripsWithinSystemSharesMidpointDivider exercises the rule that two
// consecutive staves in one system share a single divider at their
// boundary, rather than a separate dead strip between them.
func TestStripsWithinSystemSharesMidpointDivider(t *testing.T) {
	d := DividerSet{
		Y:              []float64{0, 100, 200},
		SystemBoundary: []bool{true, false, false},
		StripNames:     []string{"Violin I", "Viola"},
	}
	strips := Strips(d)
	if len(strips) != 2 {
		t.Fatalf("len(strips) = %d, want 2", len(strips))
	}
	if strips[0].Kind != StripLive || !strips[0].IsSystemStart || strips[0].Name != "Violin I" {
		t.Errorf("strips[0] = %+v, want live system-start Violin I", strips[0])
	}
	if strips[1].Kind != StripLive || strips[1].IsSystemStart || strips[1].Name != "Viola" {
		t.Errorf("strips[1] = %+v, want live non-system-start Viola", strips[1])
	}
}

// TestStripsBetweenSystemsHasDeadGap exercises the inter-system case: two
// dividers bound a dead gap, and the lower one both closes the strip above
// it and opens the next system's first live strip.
func TestStripsBetweenSystemsHasDeadGap(t *testing.T) {
	d := DividerSet{
		Y:              []float64{0, 100, 140, 240},
		SystemBoundary: []bool{true, false, true, false},
		StripNames:     []string{"Violin I", "", "Violin I"},
	}
	strips := Strips(d)
	if len(strips) != 3 {
		t.Fatalf("len(strips) = %d, want 3", len(strips))
	}
	if strips[0].Kind != StripLive {
		t.Errorf("strips[0].Kind = %v, want StripLive", strips[0].Kind)
	}
	if strips[1].Kind != StripDead {
		t.Errorf("strips[1].Kind = %v, want StripDead", strips[1].Kind)
	}
	if strips[2].Kind != StripLive || !strips[2].IsSystemStart {
		t.Errorf("strips[2] = %+v, want live system-start", strips[2])
	}
}

func TestRegionEmpty(t *testing.T) {
	cases := []struct {
		name string
		r    Region
		want bool
	}{
		{"zero area", Region{}, true},
		{"negative width", Region{W: -1, H: 10}, true},
		{"positive area", Region{W: 10, H: 10}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.r.Empty(); got != c.want {
				t.Errorf("Empty() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestEnsureRasterCallsDecodeOnceAndCaches(t *testing.T) {
	want := image.NewGray(image.Rect(0, 0, 2, 2))
	calls := 0
	p := Page{Decode: func() (*image.Gray, error) {
		calls++
		return want, nil
	}}

	if err := p.EnsureRaster(); err != nil {
		t.Fatalf("EnsureRaster: %v", err)
	}
	if p.Raster != want {
		t.Error("Raster not set to the image Decode returned")
	}
	if p.Decode != nil {
		t.Error("Decode should be cleared after first call")
	}

	if err := p.EnsureRaster(); err != nil {
		t.Fatalf("second EnsureRaster: %v", err)
	}
	if calls != 1 {
		t.Errorf("Decode called %d times, want 1", calls)
	}
}

func TestEnsureRasterWithoutDecodeIsNoOp(t *testing.T) {
	p := Page{}
	if err := p.EnsureRaster(); err != nil {
		t.Errorf("EnsureRaster with nil Decode = %v, want nil", err)
	}
	if p.Raster != nil {
		t.Error("Raster should remain nil")
	}
}

func TestEnsureRasterPropagatesDecodeError(t *testing.T) {
	wantErr := errors.New("boom")
	p := Page{Decode: func() (*image.Gray, error) { return nil, wantErr }}
	if err := p.EnsureRaster(); !errors.Is(err, wantErr) {
		t.Errorf("EnsureRaster err = %v, want %v", err, wantErr)
	}
}

func TestStaffRegionHeight(t *testing.T) {
	r := StaffRegion{TopY: 50, BottomY: 130}
	if got, want := r.Height(), 80.0; got != want {
		t.Errorf("Height() = %v, want %v", got, want)
	}
}
