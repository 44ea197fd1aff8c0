package telescope

import "time"

// PositionSnapshot is the last-polled pointing in the catalog (J2000) frame,
// refreshed once per tick. Radians.
type PositionSnapshot struct {
	RA       float64
	Dec      float64
	Alt      float64
	Az       float64
	Tracking bool
	Time     time.Time
}

// Pointing is the position block of a status report. Angles are degrees and
// sidereal time is hours, matching what clients display.
type Pointing struct {
	RA             float64 `json:"ra"`
	Dec            float64 `json:"dec"`
	Alt            float64 `json:"alt"`
	Az             float64 `json:"az"`
	LST            float64 `json:"lst"`
	SunSeparation  float64 `json:"sun_separation"`
	MoonSeparation float64 `json:"moon_separation"`
	SiteLatitude   float64 `json:"site_latitude"`
	SiteLongitude  float64 `json:"site_longitude"`
	SiteElevation  float64 `json:"site_elevation"`
}

// Status is one full status report. Pointing is nil until the mount is
// initialized and a position has been polled.
type Status struct {
	State      State     `json:"state"`
	StateLabel string    `json:"state_label"`
	Time       time.Time `json:"date"`
	Pointing   *Pointing `json:"pointing,omitempty"`
}
