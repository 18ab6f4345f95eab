package friends

import (
	"slices"
	"strings"
)

// Ranking is pure and deterministic: the fan-out that produced the rows
// completes in arbitrary order, and these sorts impose the final order
// the SPA displays.

// SortLeaderboard orders rows by total hours descending; ties are
// broken by persona name, case-insensitively, ascending.
func SortLeaderboard(rows []LeaderboardRow) {
	slices.SortStableFunc(rows, func(a, b LeaderboardRow) int {
		switch {
		case a.HoursTotal > b.HoursTotal:
			return -1
		case a.HoursTotal < b.HoursTotal:
			return 1
		}
		return compareNames(a.PersonaName, b.PersonaName)
	})
}

// SortList orders friends-list rows with the caller's own row first,
// then by persona name, case-insensitively, ascending.
func SortList(rows []SummaryRow) {
	slices.SortStableFunc(rows, func(a, b SummaryRow) int {
		if a.IsYou != b.IsYou {
			if a.IsYou {
				return -1
			}
			return 1
		}
		return compareNames(a.PersonaName, b.PersonaName)
	})
}

func compareNames(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
