package core

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestProjectToSphereDeterministic(t *testing.T) {
	a := ProjectToSphere(10.3, 45.7, DefaultSphereRadius)
	b := ProjectToSphere(10.3, 45.7, DefaultSphereRadius)
	if a != b {
		t.Fatalf("projection not reproducible: %v vs %v", a, b)
	}
}

func TestProjectToSphereOnSphere(t *testing.T) {
	cases := [][2]float64{
		{0, 0}, {180, 0}, {-180, 0}, {0, 90}, {0, -90}, {10.3, 45.7}, {-122.4, 37.8},
	}
	for _, c := range cases {
		v := ProjectToSphere(c[0], c[1], DefaultSphereRadius)
		// Rounding to 6 decimals perturbs the norm by well under 1e-5.
		if diff := math.Abs(v.Norm() - DefaultSphereRadius); diff > 1e-5 {
			t.Errorf("|P(%v,%v)| = %v, want %v", c[0], c[1], v.Norm(), DefaultSphereRadius)
		}
	}
}

func TestProjectToSphereRounding(t *testing.T) {
	v := ProjectToSphere(10.3, 45.7, DefaultSphereRadius)
	for _, coord := range []float64{v.X, v.Y, v.Z} {
		scaled := coord * 1e6
		if scaled != math.Round(scaled) {
			t.Errorf("coordinate %v not rounded to 6 decimals", coord)
		}
	}
}

func TestProjectToSphereAxes(t *testing.T) {
	origin := ProjectToSphere(0, 0, 10)
	if origin.X != 10 || origin.Y != 0 || origin.Z != 0 {
		t.Errorf("P(0,0) = %v, want (10,0,0)", origin)
	}
	pole := ProjectToSphere(0, 90, 10)
	if pole.Z != 10 {
		t.Errorf("P(0,90).Z = %v, want 10", pole.Z)
	}
}

func TestRingAreaKm2EquatorDegree(t *testing.T) {
	// A 1°x1° square at the equator is ~12,360 km² under an equal-area
	// projection with the authalic radius.
	got := RingAreaKm2(square(0, 0, 1))
	if got < 12000 || got > 12700 {
		t.Fatalf("1°x1° equator square = %v km², want ~12360", got)
	}
}

func TestRingAreaKm2LatitudeInvariant(t *testing.T) {
	// Equal-area projections preserve area regardless of latitude, up to
	// the cell no longer being a perfect square on the sphere.
	equator := RingAreaKm2(square(0, 0, 1))
	north := RingAreaKm2(square(0, 59, 1))
	// The projected cell at 59°N covers the same sphere area band.
	band := math.Abs(math.Sin(60*degToRad) - math.Sin(59*degToRad))
	wantRatio := band / math.Abs(math.Sin(1*degToRad)-math.Sin(0))
	gotRatio := north / equator
	if math.Abs(gotRatio-wantRatio) > 1e-6 {
		t.Errorf("area ratio = %v, want %v", gotRatio, wantRatio)
	}
}

func TestAreaKm2SubtractsHoles(t *testing.T) {
	withHole := AreaKm2(orb.MultiPolygon{{square(0, 0, 2), square(0.5, 0.5, 1)}})
	solid := AreaKm2(orb.MultiPolygon{{square(0, 0, 2)}})
	hole := RingAreaKm2(square(0.5, 0.5, 1))
	if math.Abs(withHole-(solid-hole)) > 1e-6 {
		t.Errorf("AreaKm2 with hole = %v, want %v", withHole, solid-hole)
	}
}

func TestAreaDeg2(t *testing.T) {
	mp := orb.MultiPolygon{
		{square(0, 0, 10), square(2, 2, 2)},
		{square(20, 20, 1)},
	}
	if got := AreaDeg2(mp); got != 100-4+1 {
		t.Errorf("AreaDeg2 = %v, want 97", got)
	}
}
