package daylight

import (
	"math"
	"time"

	"github.com/sixdouglas/suncalc"
)

// Snapshot describes the sun's state at one moment and place. It is attached
// to exported training labels so the model can learn daylight-dependent
// patterns; it never feeds the deterministic rule engine, which must stay
// bit-for-bit reproducible across locations.
type Snapshot struct {
	SunAltitude float64 `json:"sun_altitude"` // degrees above horizon
	Daytime     bool    `json:"daytime"`
	GoldenHour  bool    `json:"golden_hour"`
}

// At computes the sun snapshot for the given time and coordinates
func At(t time.Time, lat, lon float64) Snapshot {
	position := suncalc.GetPosition(t, lat, lon)

	// Altitude comes back in radians.
	altitudeDegrees := position.Altitude * (180.0 / math.Pi)

	return Snapshot{
		SunAltitude: altitudeDegrees,
		Daytime:     altitudeDegrees > 0,
		GoldenHour:  altitudeDegrees > 0 && altitudeDegrees < 6,
	}
}
