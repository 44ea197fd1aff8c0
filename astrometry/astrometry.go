// Package astrometry has the coordinate math the telescope supervisor needs:
// sidereal time, horizontal/equatorial transforms, precession between the
// catalog (J2000) and apparent frames, and low-precision sun and moon
// positions for the status report.
//
// All angles are radians unless a name says otherwise. Accuracy is arcminute
// level, which is plenty for pointing a wide-field instrument.
package astrometry

import (
	"math"
	"time"
)

const (
	j2000        = 2451545.0
	arcsecToRad  = math.Pi / (180 * 3600)
	hoursToRad   = math.Pi / 12
	degreesToRad = math.Pi / 180
)

// Site is the observing location.
type Site struct {
	// Latitude and Longitude are radians, longitude positive east.
	Latitude  float64
	Longitude float64
	// Elevation is metres above sea level. Unused by the transforms here but
	// carried for the status report.
	Elevation float64
}

// julianDate converts a time to Julian Date.
func julianDate(t time.Time) float64 {
	t = t.UTC()
	year, month, day := t.Year(), int(t.Month()), t.Day()
	if month <= 2 {
		year--
		month += 12
	}
	a := year / 100
	b := 2 - a + a/4
	jd := float64(int(365.25*float64(year+4716))) +
		float64(int(30.6001*float64(month+1))) +
		float64(day+b) - 1524.5
	frac := (float64(t.Hour()) +
		float64(t.Minute())/60 +
		(float64(t.Second())+float64(t.Nanosecond())/1e9)/3600) / 24
	return jd + frac
}

// centuriesSinceJ2000 returns Julian centuries from J2000.0.
func centuriesSinceJ2000(t time.Time) float64 {
	return (julianDate(t) - j2000) / 36525
}

func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// LocalSiderealTime returns the local apparent sidereal time in radians.
// Good to about a second of time.
func LocalSiderealTime(site Site, t time.Time) float64 {
	d := julianDate(t) - j2000
	gmst := 18.697374558 + 24.06570982441908*d
	return normalizeAngle(gmst*hoursToRad + site.Longitude)
}

// EquatorialToHorizontal converts apparent RA/Dec to Alt/Az at the site.
// Azimuth is measured from north through east.
func EquatorialToHorizontal(site Site, t time.Time, ra, dec float64) (alt, az float64) {
	ha := LocalSiderealTime(site, t) - ra
	sinLat, cosLat := math.Sin(site.Latitude), math.Cos(site.Latitude)
	alt = math.Asin(math.Sin(dec)*sinLat + math.Cos(dec)*cosLat*math.Cos(ha))
	az = math.Atan2(-math.Sin(ha), math.Cos(ha)*sinLat-math.Tan(dec)*cosLat)
	return alt, normalizeAngle(az)
}

// HorizontalToEquatorial converts Alt/Az to apparent RA/Dec at the site.
func HorizontalToEquatorial(site Site, t time.Time, alt, az float64) (ra, dec float64) {
	sinLat, cosLat := math.Sin(site.Latitude), math.Cos(site.Latitude)
	dec = math.Asin(math.Sin(alt)*sinLat + math.Cos(alt)*cosLat*math.Cos(az))
	ha := math.Atan2(-math.Sin(az), math.Cos(az)*sinLat-math.Tan(alt)*cosLat)
	ra = normalizeAngle(LocalSiderealTime(site, t) - ha)
	return ra, dec
}

// precessionAngles returns the IAU 1976 precession angles zeta, z and theta
// in radians for precessing from J2000 to the epoch of t.
func precessionAngles(t time.Time) (zeta, z, theta float64) {
	tc := centuriesSinceJ2000(t)
	zeta = (2306.2181*tc + 0.30188*tc*tc + 0.017998*tc*tc*tc) * arcsecToRad
	z = (2306.2181*tc + 1.09468*tc*tc + 0.018203*tc*tc*tc) * arcsecToRad
	theta = (2004.3109*tc - 0.42665*tc*tc - 0.041833*tc*tc*tc) * arcsecToRad
	return
}

func precess(ra, dec, zeta, z, theta float64) (float64, float64) {
	sinTheta, cosTheta := math.Sin(theta), math.Cos(theta)
	sinDec, cosDec := math.Sin(dec), math.Cos(dec)
	a := cosDec * math.Sin(ra+zeta)
	b := cosTheta*cosDec*math.Cos(ra+zeta) - sinTheta*sinDec
	c := sinTheta*cosDec*math.Cos(ra+zeta) + cosTheta*sinDec
	return normalizeAngle(math.Atan2(a, b) + z), math.Asin(c)
}

// ApparentFromCatalog precesses J2000 catalog coordinates to the equator and
// equinox of date, which is the frame the mount controller points in.
func ApparentFromCatalog(t time.Time, ra, dec float64) (float64, float64) {
	zeta, z, theta := precessionAngles(t)
	return precess(ra, dec, zeta, z, theta)
}

// CatalogFromApparent is the inverse of ApparentFromCatalog.
func CatalogFromApparent(t time.Time, ra, dec float64) (float64, float64) {
	zeta, z, theta := precessionAngles(t)
	return precess(ra, dec, -z, -zeta, -theta)
}

// Separation returns the angular distance between two directions given as
// (longitude-like, latitude-like) pairs, e.g. two Alt/Az or two RA/Dec pairs.
func Separation(lon1, lat1, lon2, lat2 float64) float64 {
	dLon := lon2 - lon1
	sinD := math.Sqrt(
		math.Pow(math.Cos(lat2)*math.Sin(dLon), 2) +
			math.Pow(math.Cos(lat1)*math.Sin(lat2)-math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon), 2))
	cosD := math.Sin(lat1)*math.Sin(lat2) + math.Cos(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return math.Atan2(sinD, cosD)
}
