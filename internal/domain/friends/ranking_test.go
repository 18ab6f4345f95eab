package friends

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortLeaderboard_HoursDescendingNameTieBreak(t *testing.T) {
	rows := []LeaderboardRow{
		{SteamID64: "1", PersonaName: "B", HoursTotal: 200},
		{SteamID64: "2", PersonaName: "C", HoursTotal: 100},
		{SteamID64: "3", PersonaName: "A", HoursTotal: 100},
	}

	SortLeaderboard(rows)

	got := make([]string, len(rows))
	for i, r := range rows {
		got[i] = r.PersonaName
	}
	assert.Equal(t, []string{"B", "A", "C"}, got)
}

func TestSortLeaderboard_TieBreakIsCaseInsensitive(t *testing.T) {
	rows := []LeaderboardRow{
		{PersonaName: "charlie", HoursTotal: 50},
		{PersonaName: "Alpha", HoursTotal: 50},
		{PersonaName: "bravo", HoursTotal: 50},
	}

	SortLeaderboard(rows)

	assert.Equal(t, "Alpha", rows[0].PersonaName)
	assert.Equal(t, "bravo", rows[1].PersonaName)
	assert.Equal(t, "charlie", rows[2].PersonaName)
}

func TestSortLeaderboard_UnavailableRowsSinkToZero(t *testing.T) {
	rows := []LeaderboardRow{
		{PersonaName: "Hidden", HoursTotal: 0, PrivateOrUnavailable: true},
		{PersonaName: "Visible", HoursTotal: 1.5},
	}

	SortLeaderboard(rows)

	assert.Equal(t, "Visible", rows[0].PersonaName)
	assert.Equal(t, "Hidden", rows[1].PersonaName)
}

func TestSortList_SelfFirstThenName(t *testing.T) {
	rows := []SummaryRow{
		{SteamID64: "3", PersonaName: "zoe"},
		{SteamID64: "1", PersonaName: "Mallory", IsYou: true},
		{SteamID64: "2", PersonaName: "alice"},
	}

	SortList(rows)

	assert.True(t, rows[0].IsYou)
	assert.Equal(t, "alice", rows[1].PersonaName)
	assert.Equal(t, "zoe", rows[2].PersonaName)
}

func TestSortList_EmptyAndSingle(t *testing.T) {
	SortList(nil)

	one := []SummaryRow{{PersonaName: "only"}}
	SortList(one)
	assert.Equal(t, "only", one[0].PersonaName)
}
