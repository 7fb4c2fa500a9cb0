package rarity

import (
	"rare-achievements/cmd/rare-achievements/rarestore"
	"rare-achievements/steamhttp"
	"sort"
)

const DefaultCount = 10

// Join pairs each unlocked achievement with its global percentage. Unlocked
// names that have no percentage are returned in unmatched.
func Join(appID uint32, achievements []steamhttp.PlayerAchievementsAchievement, percentages map[string]float64) (entries []rarestore.Entry, unmatched []string) {
	for _, a := range achievements {
		if a.Achieved != 1 {
			continue
		}

		pct, ok := percentages[a.APIName]
		if !ok {
			unmatched = append(unmatched, a.APIName)
			continue
		}

		entry := rarestore.Entry{
			AppID:      appID,
			Name:       a.APIName,
			Percentage: pct,
		}

		entries = append(entries, entry)
	}

	return entries, unmatched
}

// Rarest returns the n entries with the lowest percentage in ascending order.
// Equal percentages keep their input order.
func Rarest(entries []rarestore.Entry, n int) []rarestore.Entry {
	if n <= 0 {
		return nil
	}

	sorted := make([]rarestore.Entry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Percentage < sorted[j].Percentage
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}

	return sorted
}
