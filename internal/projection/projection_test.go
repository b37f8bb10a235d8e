package projection

import (
	"math"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestProject_NullIslandIsCalibratedCenter(t *testing.T) {
	e := New(DefaultCalibration())

	p, ok := e.Project(GeoCoordinate{Latitude: 0, Longitude: 0})
	if !ok {
		t.Fatalf("expected ok")
	}
	if p != DefaultCalibration().Center() {
		t.Fatalf("expected %v, got %v", DefaultCalibration().Center(), p)
	}
}

func TestProject_KnownPoints(t *testing.T) {
	e := New(DefaultCalibration())

	cases := []struct {
		name  string
		in    GeoCoordinate
		wantX float64
		wantY float64
	}{
		{"north east table row", GeoCoordinate{Latitude: 45, Longitude: 90}, 986 + 0.5*1020*0.8962, 497 - 0.5571*511},
		{"south west table row", GeoCoordinate{Latitude: -30, Longitude: -90}, 986 - 0.5*1000*0.9600, 497 + 0.3720*528},
		{"interpolated between rows", GeoCoordinate{Latitude: 2.5, Longitude: 180}, 986 + 1020*0.9993, 497 - 0.0310*511},
		{"beyond the pole clamps", GeoCoordinate{Latitude: 100, Longitude: 0}, 986, 497 - 511},
		{"south pole", GeoCoordinate{Latitude: -90, Longitude: -180}, 986 - 1000*0.5322, 497 + 528},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, ok := e.Project(tc.in)
			if !ok {
				t.Fatalf("expected ok")
			}
			if !near(p.X, tc.wantX) || !near(p.Y, tc.wantY) {
				t.Fatalf("expected (%v, %v), got (%v, %v)", tc.wantX, tc.wantY, p.X, p.Y)
			}
		})
	}
}

func TestProject_RejectsNonFinite(t *testing.T) {
	e := New(DefaultCalibration())

	for _, c := range []GeoCoordinate{
		{Latitude: math.NaN(), Longitude: 0},
		{Latitude: 0, Longitude: math.NaN()},
		{Latitude: math.Inf(1), Longitude: 10},
		{Latitude: 10, Longitude: math.Inf(-1)},
	} {
		if p, ok := e.Project(c); ok {
			t.Fatalf("expected %v to be rejected, got %v", c, p)
		}
	}
}

func TestProject_FiniteAcrossTheGlobe(t *testing.T) {
	e := New(DefaultCalibration())

	for lat := -90.0; lat <= 90; lat += 2.5 {
		for lon := -180.0; lon <= 180; lon += 7.5 {
			p, ok := e.Project(GeoCoordinate{Latitude: lat, Longitude: lon})
			if !ok {
				t.Fatalf("expected ok for (%v, %v)", lat, lon)
			}
			if !finite(p.X) || !finite(p.Y) {
				t.Fatalf("expected finite point for (%v, %v), got %v", lat, lon, p)
			}
		}
	}
}

func TestProject_MonotonicInAbsoluteLatitude(t *testing.T) {
	cal := DefaultCalibration()
	e := New(cal)

	for _, sign := range []float64{1, -1} {
		prev := -1.0
		for abs := 0.0; abs <= 90; abs += 0.25 {
			p, _ := e.Project(GeoCoordinate{Latitude: sign * abs, Longitude: 12})
			disp := math.Abs(p.Y - cal.EquatorY)
			if disp < prev {
				t.Fatalf("displacement decreased at lat=%v: %v < %v", sign*abs, disp, prev)
			}
			prev = disp
		}
	}
}

func TestProject_UsesInjectedCalibration(t *testing.T) {
	cal := Calibration{CenterX: 100, EquatorY: 50, EastScale: 90, WestScale: 80, NorthScale: 40, SouthScale: 30}
	e := New(cal)

	p, _ := e.Project(GeoCoordinate{Latitude: 90, Longitude: -180})
	if !near(p.X, 100-80*0.5322) || !near(p.Y, 50-40) {
		t.Fatalf("unexpected point %v", p)
	}
}

func TestGreatCircleKm(t *testing.T) {
	london := GeoCoordinate{Latitude: 51.5074, Longitude: -0.1278}
	newYork := GeoCoordinate{Latitude: 40.7128, Longitude: -74.0060}

	d := GreatCircleKm(london, newYork)
	if d < 5550 || d > 5590 {
		t.Fatalf("expected ~5570km, got %v", d)
	}
	if GreatCircleKm(london, london) != 0 {
		t.Fatalf("expected zero distance to self")
	}
	if got := RoundTripMillis(3000); !near(got, 20) {
		t.Fatalf("expected 20ms, got %v", got)
	}
}

func TestRegion(t *testing.T) {
	cases := map[string]GeoCoordinate{
		"North America":  {Longitude: -100},
		"Europe/Africa":  {Longitude: 10},
		"Asia/Oceania":   {Longitude: 139},
		"South America":  {Longitude: -45},
		"Unknown Region": {Longitude: -150},
	}
	for want, c := range cases {
		if got := Region(c); got != want {
			t.Fatalf("lon=%v: expected %q, got %q", c.Longitude, want, got)
		}
	}
}
