package friends

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardRowMarshalRoundsHours(t *testing.T) {
	recent := 1.2499
	row := LeaderboardRow{
		SteamID64:   "76561198000000001",
		PersonaName: "Zoe",
		HoursTotal:  100.0333,
		Hours2Weeks: &recent,
	}

	payload, err := json.Marshal(row)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(payload, &out))
	assert.Equal(t, 100.0, out["hoursTotal"])
	assert.Equal(t, 1.2, out["hours2Weeks"])

	assert.Equal(t, 100.0333, row.HoursTotal, "marshalling must not mutate the row")
	assert.Equal(t, 1.2499, recent)
}

func TestLeaderboardRowMarshalOmitsNilRecent(t *testing.T) {
	payload, err := json.Marshal(LeaderboardRow{PersonaName: "Abe"})
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "hours2Weeks")
}
