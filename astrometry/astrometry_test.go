package astrometry

import (
	"math"
	"testing"
	"time"
)

var laPalma = Site{
	Latitude:  28.7603135 * degreesToRad,
	Longitude: -17.8796168 * degreesToRad,
	Elevation: 2387,
}

func TestJulianDate(t *testing.T) {
	for _, test := range []struct {
		when time.Time
		want float64
	}{
		{time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), 2451545.0},
		{time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC), 2451179.5},
		{time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC), 2461275.5},
	} {
		if got := julianDate(test.when); math.Abs(got-test.want) > 1e-6 {
			t.Errorf("julianDate(%v) = %v, want %v", test.when, got, test.want)
		}
	}
}

func TestSiderealTimeLongitudeOffset(t *testing.T) {
	when := time.Date(2026, 3, 1, 22, 30, 0, 0, time.UTC)
	greenwich := LocalSiderealTime(Site{}, when)
	local := LocalSiderealTime(laPalma, when)
	diff := normalizeAngle(local - greenwich)
	want := normalizeAngle(laPalma.Longitude)
	if math.Abs(diff-want) > 1e-9 {
		t.Errorf("LST offset = %v, want site longitude %v", diff, want)
	}
	if greenwich < 0 || greenwich >= 2*math.Pi {
		t.Errorf("LST %v not normalized", greenwich)
	}
}

func TestHorizontalRoundTrip(t *testing.T) {
	when := time.Date(2026, 8, 23, 3, 15, 0, 0, time.UTC)
	for _, c := range []struct{ ra, dec float64 }{
		{0.1, 0.5},
		{3.7, -0.2},
		{5.9, 1.1},
	} {
		alt, az := EquatorialToHorizontal(laPalma, when, c.ra, c.dec)
		ra, dec := HorizontalToEquatorial(laPalma, when, alt, az)
		if math.Abs(normalizeAngle(ra-c.ra)) > 1e-9 && math.Abs(normalizeAngle(c.ra-ra)) > 1e-9 {
			t.Errorf("RA round trip: %v -> %v", c.ra, ra)
		}
		if math.Abs(dec-c.dec) > 1e-9 {
			t.Errorf("Dec round trip: %v -> %v", c.dec, dec)
		}
	}
}

func TestZenithTarget(t *testing.T) {
	// A target on the meridian with dec equal to the latitude sits at the
	// zenith.
	when := time.Date(2026, 1, 10, 1, 0, 0, 0, time.UTC)
	ra := LocalSiderealTime(laPalma, when)
	alt, _ := EquatorialToHorizontal(laPalma, when, ra, laPalma.Latitude)
	if math.Abs(alt-math.Pi/2) > 1e-6 {
		t.Errorf("zenith altitude = %v, want pi/2", alt)
	}
}

func TestPrecession(t *testing.T) {
	when := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	ra0, dec0 := 1.2, 0.4

	ra, dec := ApparentFromCatalog(when, ra0, dec0)
	// General precession is roughly 50 arcsec/year; after 26.6 years the
	// shift is around 22 arcmin.
	shift := Separation(ra0, dec0, ra, dec)
	if shift < 10*60*arcsecToRad || shift > 40*60*arcsecToRad {
		t.Errorf("precession shift = %v arcmin, want 10..40", shift/(60*arcsecToRad))
	}

	backRA, backDec := CatalogFromApparent(when, ra, dec)
	if math.Abs(normalizeAngle(backRA-ra0)) > 1e-9 || math.Abs(backDec-dec0) > 1e-9 {
		t.Errorf("precession round trip: (%v, %v) -> (%v, %v)", ra0, dec0, backRA, backDec)
	}

	// At J2000 the transform is the identity.
	j2000 := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	idRA, idDec := ApparentFromCatalog(j2000, ra0, dec0)
	if math.Abs(idRA-ra0) > 1e-9 || math.Abs(idDec-dec0) > 1e-9 {
		t.Errorf("J2000 precession not identity: (%v, %v)", idRA, idDec)
	}
}

func TestSeparation(t *testing.T) {
	if got := Separation(1.0, 0.5, 1.0, 0.5); got > 1e-12 {
		t.Errorf("separation of identical points = %v", got)
	}
	if got := Separation(0, math.Pi/2, 0, -math.Pi/2); math.Abs(got-math.Pi) > 1e-9 {
		t.Errorf("pole-to-pole separation = %v, want pi", got)
	}
	if got := Separation(0, 0, math.Pi/2, 0); math.Abs(got-math.Pi/2) > 1e-9 {
		t.Errorf("quadrature separation = %v, want pi/2", got)
	}
}

func TestSunDeclination(t *testing.T) {
	// Near the June solstice the sun's declination is close to the
	// obliquity of the ecliptic.
	_, dec := SunEquatorial(time.Date(2026, 6, 21, 12, 0, 0, 0, time.UTC))
	if math.Abs(dec-23.43*degreesToRad) > 0.3*degreesToRad {
		t.Errorf("solstice declination = %v deg, want ~23.43", dec/degreesToRad)
	}

	// Near the March equinox it crosses zero.
	_, dec = SunEquatorial(time.Date(2026, 3, 20, 15, 0, 0, 0, time.UTC))
	if math.Abs(dec) > 0.5*degreesToRad {
		t.Errorf("equinox declination = %v deg, want ~0", dec/degreesToRad)
	}
}

func TestMoonBounds(t *testing.T) {
	// The moon's declination never leaves roughly +-29 degrees.
	for month := time.January; month <= time.December; month++ {
		when := time.Date(2026, month, 7, 6, 0, 0, 0, time.UTC)
		ra, dec := MoonEquatorial(when)
		if ra < 0 || ra >= 2*math.Pi {
			t.Errorf("%v: moon RA %v not normalized", month, ra)
		}
		if math.Abs(dec) > 30*degreesToRad {
			t.Errorf("%v: moon declination %v deg out of range", month, dec/degreesToRad)
		}
	}
}
