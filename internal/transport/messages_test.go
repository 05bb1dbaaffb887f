package transport

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/camship/internal/domain"
)

func TestFrameMessage_DataRoundTrip(t *testing.T) {
	raw := []byte{0xFF, 0xD8, 0x00, 0x10, 0x7F, 0xFF, 0xD9}
	captured := time.UnixMilli(1717243200123)
	f := domain.NewFrame(raw, captured)

	msg := newFrameMessage("camera-go-abc", f, 1280, 720, 64)

	b, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded FrameMessage
	require.NoError(t, json.Unmarshal(b, &decoded))

	data, err := base64.StdEncoding.DecodeString(decoded.Data)
	require.NoError(t, err)
	assert.Equal(t, raw, data)
	assert.Equal(t, "camera-go-abc", decoded.CameraID)
	assert.Equal(t, int64(1717243200123), decoded.Timestamp)
	assert.Equal(t, "1280x720", decoded.Stats.Resolution)
	assert.Equal(t, 64, decoded.Stats.Quality)
}

func TestJoinMessage_ShortFormOmitsCapabilities(t *testing.T) {
	b, err := json.Marshal(JoinMessage{Join: "camera-go-abc"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"join":"camera-go-abc"}`, string(b))
}

func TestJoinMessage_Capabilities(t *testing.T) {
	b, err := json.Marshal(JoinMessage{Join: "cam", Capabilities: defaultCapabilities()})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))
	caps, ok := decoded["capabilities"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, caps["adaptive_quality"])
	assert.Equal(t, float64(domain.MinQuality), caps["min_quality"])
	assert.Equal(t, float64(domain.MaxQuality), caps["max_quality"])
	assert.ElementsMatch(t, []interface{}{"640x480", "1280x720"}, caps["resolutions"])
}

func TestDecodeServerMessage_Malformed(t *testing.T) {
	_, ok := decodeServerMessage([]byte("not json"))
	assert.False(t, ok)
}

func TestDecodeServerMessage_OptionalFields(t *testing.T) {
	msg, ok := decodeServerMessage([]byte(`{"network_feedback":{"congested":true}}`))
	require.True(t, ok)
	require.NotNil(t, msg.NetworkFeedback)
	require.NotNil(t, msg.NetworkFeedback.Congested)
	assert.True(t, *msg.NetworkFeedback.Congested)
	assert.Nil(t, msg.NetworkFeedback.SuggestedQuality)
	assert.Nil(t, msg.NetworkFeedback.SuggestedResolution)
}
