package imaging

import (
	"math"
	"testing"

	"github.com/ironsheep/depth-metrology-mcp/internal/depth"
)

func TestSampleDepth(t *testing.T) {
	d := testDepth(10, 10)
	in := depth.CameraIntrinsics{Fx: 500, Fy: 500, U0: 5, V0: 5, DepthScale: 0.001}

	s, err := SampleDepth(d, 9, 9, in)
	if err != nil {
		t.Fatalf("SampleDepth failed: %v", err)
	}
	if !s.Valid || s.Raw != 1500 || s.Meters != 1.5 {
		t.Errorf("unexpected sample %+v", s)
	}
	// (9-5)/500*1.5 = 0.012
	if s.PointX != 0.012 || s.PointY != 0.012 || s.PointZ != 1.5 {
		t.Errorf("unexpected point (%v,%v,%v)", s.PointX, s.PointY, s.PointZ)
	}

	s, err = SampleDepth(d, 0, 0, in)
	if err != nil {
		t.Fatalf("SampleDepth failed: %v", err)
	}
	if s.Valid || s.Meters != 0 {
		t.Errorf("no-data pixel should be invalid, got %+v", s)
	}

	for _, p := range []Point{{-1, 0}, {10, 0}, {0, 10}} {
		if _, err := SampleDepth(d, p.X, p.Y, in); err == nil {
			t.Errorf("expected error for (%d,%d)", p.X, p.Y)
		}
	}
}

func TestMeasureDistance(t *testing.T) {
	d := depth.NewImage(700, 10)
	for i := range d.Pix {
		d.Pix[i] = 2000
	}
	in := depth.DefaultIntrinsics()

	// 300 px at 2 m with fx = 600 is 1 m.
	res, err := MeasureDistance(d, Point{100, 5}, Point{400, 5}, in)
	if err != nil {
		t.Fatalf("MeasureDistance failed: %v", err)
	}
	if !res.Valid {
		t.Fatal("expected a metric result")
	}
	if res.DistancePixels != 300 || res.DeltaX != 300 || res.DeltaY != 0 {
		t.Errorf("unexpected pixel measurement %+v", res)
	}
	if res.AngleDegrees != 0 {
		t.Errorf("angle = %v, want 0", res.AngleDegrees)
	}
	if math.Abs(res.DistanceMeters-1.0) > 1e-9 {
		t.Errorf("distance = %v m, want 1", res.DistanceMeters)
	}
	if res.DeltaZMeters != 0 {
		t.Errorf("delta z = %v, want 0", res.DeltaZMeters)
	}
}

func TestMeasureDistance_AlongDepth(t *testing.T) {
	d := depth.NewImage(2, 1)
	d.Set(0, 0, 1000)
	d.Set(1, 0, 1000)
	in := depth.CameraIntrinsics{Fx: 600, Fy: 600, U0: 0, V0: 0, DepthScale: 0.001}

	res, err := MeasureDistance(d, Point{0, 0}, Point{0, 0}, in)
	if err != nil {
		t.Fatalf("MeasureDistance failed: %v", err)
	}
	if res.DistanceMeters != 0 || res.DistancePixels != 0 {
		t.Errorf("same point should measure 0, got %+v", res)
	}

	d.Set(1, 0, 1300)
	res, err = MeasureDistance(d, Point{0, 0}, Point{1, 0}, in)
	if err != nil {
		t.Fatalf("MeasureDistance failed: %v", err)
	}
	if res.DeltaZMeters != 0.3 {
		t.Errorf("delta z = %v, want 0.3", res.DeltaZMeters)
	}
	if res.DistanceMeters < 0.3 {
		t.Errorf("3D distance %v shorter than its depth component", res.DistanceMeters)
	}
}

func TestMeasureDistance_NoDepth(t *testing.T) {
	d := testDepth(10, 10)
	res, err := MeasureDistance(d, Point{0, 0}, Point{5, 5}, depth.DefaultIntrinsics())
	if err != nil {
		t.Fatalf("MeasureDistance failed: %v", err)
	}
	if res.Valid || res.DistanceMeters != 0 {
		t.Errorf("expected pixel-only result, got %+v", res)
	}
	if res.DistancePixels != 7.07 || res.AngleDegrees != 45 {
		t.Errorf("pixel distance %v angle %v", res.DistancePixels, res.AngleDegrees)
	}

	if _, err := MeasureDistance(d, Point{0, 0}, Point{10, 10}, depth.DefaultIntrinsics()); err == nil {
		t.Error("expected error for out-of-bounds point")
	}
}
