package transport

import (
	"encoding/base64"
	"encoding/json"

	"github.com/bft-labs/camship/internal/domain"
)

// Capabilities is the advisory metadata declared in the join handshake. The
// server is not required to honor it.
type Capabilities struct {
	AdaptiveQuality bool     `json:"adaptive_quality"`
	MinQuality      int      `json:"min_quality"`
	MaxQuality      int      `json:"max_quality"`
	Resolutions     []string `json:"resolutions"`
}

// JoinMessage announces the camera to the ingestion endpoint. The rejoin
// after a reconnect sends the short form without capabilities.
type JoinMessage struct {
	Join         string        `json:"join"`
	Capabilities *Capabilities `json:"capabilities,omitempty"`
}

// defaultCapabilities returns what this client can actually do.
func defaultCapabilities() *Capabilities {
	return &Capabilities{
		AdaptiveQuality: true,
		MinQuality:      domain.MinQuality,
		MaxQuality:      domain.MaxQuality,
		Resolutions: []string{
			domain.DegradedProfile.Resolution(),
			domain.NominalProfile.Resolution(),
		},
	}
}

// FrameStats carries the profile a frame was encoded with.
type FrameStats struct {
	Resolution string `json:"resolution"`
	Quality    int    `json:"quality"`
}

// FrameMessage is one outbound frame. Data is the base64-encoded frame
// bytes; Timestamp is the capture time in unix milliseconds.
type FrameMessage struct {
	CameraID  string     `json:"camera_id"`
	Data      string     `json:"data"`
	Timestamp int64      `json:"timestamp"`
	Stats     FrameStats `json:"stats"`
}

// newFrameMessage builds the wire message for a frame at the current
// resolution and quality.
func newFrameMessage(cameraID string, f domain.Frame, width, height, quality int) FrameMessage {
	return FrameMessage{
		CameraID:  cameraID,
		Data:      base64.StdEncoding.EncodeToString(f.Data),
		Timestamp: f.CapturedAt.UnixMilli(),
		Stats: FrameStats{
			Resolution: domain.StreamProfile{Width: width, Height: height}.Resolution(),
			Quality:    quality,
		},
	}
}

// NetworkFeedback is the server's view of the connection. Every field is
// optional; absence rules are applied by the inbound handler, never by a
// strict schema.
type NetworkFeedback struct {
	Congested           *bool   `json:"congested"`
	SuggestedQuality    *int    `json:"suggested_quality"`
	SuggestedResolution *string `json:"suggested_resolution"`
}

// ServerMessage is a decoded inbound message. Unknown fields are ignored.
type ServerMessage struct {
	NetworkFeedback *NetworkFeedback `json:"network_feedback"`
}

// decodeServerMessage parses an inbound text message. A malformed body is a
// protocol error, treated as "no feedback received".
func decodeServerMessage(data []byte) (ServerMessage, bool) {
	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ServerMessage{}, false
	}
	return msg, true
}
