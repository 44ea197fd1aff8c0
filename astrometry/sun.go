package astrometry

import (
	"math"
	"time"
)

// SunEquatorial returns the apparent RA/Dec of the sun. NOAA solar calculator
// series, good to about an arcminute.
func SunEquatorial(t time.Time) (ra, dec float64) {
	jc := centuriesSinceJ2000(t)

	// Geometric mean longitude and mean anomaly, degrees.
	l0 := math.Mod(280.46646+jc*(36000.76983+jc*0.0003032), 360)
	m := (357.52911 + jc*(35999.05029-0.0001537*jc)) * degreesToRad

	// Equation of center.
	c := math.Sin(m)*(1.914602-jc*(0.004817+0.000014*jc)) +
		math.Sin(2*m)*(0.019993-0.000101*jc) +
		math.Sin(3*m)*0.000289

	// Apparent longitude, corrected for aberration and nutation.
	omega := (125.04 - 1934.136*jc) * degreesToRad
	lambda := (l0 + c - 0.00569 - 0.00478*math.Sin(omega)) * degreesToRad

	// Obliquity of the ecliptic.
	epsilon0 := 23 + (26+(21.448-jc*(46.815+jc*(0.00059-jc*0.001813)))/60)/60
	epsilon := (epsilon0 + 0.00256*math.Cos(omega)) * degreesToRad

	ra = normalizeAngle(math.Atan2(math.Cos(epsilon)*math.Sin(lambda), math.Cos(lambda)))
	dec = math.Asin(math.Sin(epsilon) * math.Sin(lambda))
	return ra, dec
}

// SunAltAz returns the sun's altitude and azimuth at the site.
func SunAltAz(site Site, t time.Time) (alt, az float64) {
	ra, dec := SunEquatorial(t)
	return EquatorialToHorizontal(site, t, ra, dec)
}

// MoonEquatorial returns the apparent RA/Dec of the moon using the truncated
// lunar series from Meeus. Good to a fraction of a degree, which is enough
// for a separation readout.
func MoonEquatorial(t time.Time) (ra, dec float64) {
	tc := centuriesSinceJ2000(t)

	// Fundamental arguments, degrees.
	lp := 218.316 + 481267.8813*tc // mean longitude
	m := 357.529 + 35999.050*tc    // sun's mean anomaly
	mp := 134.963 + 477198.8676*tc // moon's mean anomaly
	d := 297.850 + 445267.1115*tc  // mean elongation
	f := 93.272 + 483202.0175*tc   // argument of latitude

	mRad := m * degreesToRad
	mpRad := mp * degreesToRad
	dRad := d * degreesToRad
	fRad := f * degreesToRad

	// Ecliptic longitude and latitude, degrees.
	lambda := lp +
		6.289*math.Sin(mpRad) -
		1.274*math.Sin(mpRad-2*dRad) +
		0.658*math.Sin(2*dRad) -
		0.214*math.Sin(2*mpRad) -
		0.186*math.Sin(mRad) -
		0.114*math.Sin(2*fRad)
	beta := 5.128*math.Sin(fRad) +
		0.280*math.Sin(mpRad+fRad) -
		0.280*math.Sin(fRad-mpRad) -
		0.173*math.Sin(fRad-2*dRad)

	lambdaRad := lambda * degreesToRad
	betaRad := beta * degreesToRad
	epsilon := 23.439 * degreesToRad

	sinLambda := math.Sin(lambdaRad)
	ra = normalizeAngle(math.Atan2(
		sinLambda*math.Cos(epsilon)-math.Tan(betaRad)*math.Sin(epsilon),
		math.Cos(lambdaRad)))
	dec = math.Asin(math.Sin(betaRad)*math.Cos(epsilon) +
		math.Cos(betaRad)*math.Sin(epsilon)*sinLambda)
	return ra, dec
}

// MoonAltAz returns the moon's altitude and azimuth at the site.
func MoonAltAz(site Site, t time.Time) (alt, az float64) {
	ra, dec := MoonEquatorial(t)
	return EquatorialToHorizontal(site, t, ra, dec)
}
