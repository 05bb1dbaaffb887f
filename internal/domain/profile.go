package domain

import "fmt"

// Quality bounds advertised in the join handshake and enforced on every
// recommendation.
const (
	MinQuality = 20
	MaxQuality = 90
)

// StreamProfile is the resolution and quality pair currently requested of
// the capture process.
type StreamProfile struct {
	Width   int
	Height  int
	Quality int
}

// The two canonical profiles the system switches between.
var (
	// NominalProfile is the full-resolution profile used on a healthy network.
	NominalProfile = StreamProfile{Width: 1280, Height: 720, Quality: 70}

	// DegradedProfile is the reduced profile used under congestion.
	DegradedProfile = StreamProfile{Width: 640, Height: 480, Quality: 50}
)

// Resolution returns the profile's resolution as "WxH".
func (p StreamProfile) Resolution() string {
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// Degraded reports whether the profile uses the reduced resolution.
func (p StreamProfile) Degraded() bool {
	return p.Width == DegradedProfile.Width && p.Height == DegradedProfile.Height
}

// ClampQuality bounds q to [MinQuality, MaxQuality].
func ClampQuality(q int) int {
	if q < MinQuality {
		return MinQuality
	}
	if q > MaxQuality {
		return MaxQuality
	}
	return q
}

// ParseResolution maps a "WxH" string to one of the two canonical
// resolutions. Returns false for anything else; the server may only suggest
// resolutions we advertised.
func ParseResolution(s string) (width, height int, ok bool) {
	switch s {
	case "640x480":
		return 640, 480, true
	case "1280x720":
		return 1280, 720, true
	}
	return 0, 0, false
}
