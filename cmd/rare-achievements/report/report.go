package report

import (
	"fmt"
	"io"
	"rare-achievements/cmd/rare-achievements/rarestore"
	"rare-achievements/steamhttp"
	"strconv"
	"strings"
)

const HiddenDescription = "Hidden achievement, description unavailable"

// Resolve returns the first schema achievement with the given internal name.
func Resolve(schema steamhttp.SchemaGame, name string) (steamhttp.SchemaAchievement, bool) {
	for _, a := range schema.AvailableGameStats.Achievements {
		if a.Name == name {
			return a, true
		}
	}

	return steamhttp.SchemaAchievement{}, false
}

// FormatPercent rounds the exact binary value to two decimals, ties to even,
// and always keeps one fractional digit, so 5 prints as "5.0" and 12.3456 as
// "12.35".
func FormatPercent(p float64) string {
	s := strconv.FormatFloat(p, 'f', 2, 64)

	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}

	return s
}

func Write(w io.Writer, records []rarestore.DisplayRecord) error {
	for i, r := range records {
		description := HiddenDescription
		if r.Description != nil {
			description = *r.Description
		}

		_, err := fmt.Fprintf(w, "%d - [%s] %s (%%%s)\n%s\n\n", i+1, r.GameTitle, r.DisplayName, FormatPercent(r.Percentage), description)
		if err != nil {
			return fmt.Errorf("write record %d: %w", i+1, err)
		}
	}

	return nil
}
