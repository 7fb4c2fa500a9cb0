package steamidutil

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	accountTypeIdentifierIndividual = 76561197960265728
	accountTypeIdentifierGroup      = 103582791429521408
)

// TODO: support other account types

// IDToInt64 converts a textual STEAM_X:Y:Z id to its 64-bit form.
func IDToInt64(id string) (int64, error) {
	rest, ok := strings.CutPrefix(id, "STEAM_")
	if !ok {
		return 0, fmt.Errorf("ID is missing STEAM_ prefix")
	}

	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("ID is not the correct length")
	}

	if len(parts[0]) != 1 || parts[0][0] < '0' || parts[0][0] > '9' {
		return 0, fmt.Errorf("universe must be a single digit, got %q", parts[0])
	}

	y, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse account y: %w", err)
	}

	if y != 0 && y != 1 {
		return 0, fmt.Errorf("account y must be 0 or 1, got %d", y)
	}

	z, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse account number: %w", err)
	}

	if z < 0 {
		return 0, fmt.Errorf("account number must not be negative, got %d", z)
	}

	w := (z * 2) + accountTypeIdentifierIndividual + y

	return w, nil
}

// ParseAccountID accepts either a SteamID64 or a STEAM_X:Y:Z id.
func ParseAccountID(s string) (uint64, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		return 0, fmt.Errorf("empty steam ID")
	}

	if strings.HasPrefix(s, "STEAM_") {
		id, err := IDToInt64(s)
		if err != nil {
			return 0, fmt.Errorf("parse textual steam ID: %w", err)
		}

		return uint64(id), nil
	}

	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse steam ID: %w", err)
	}

	return id, nil
}

// IsIndividual reports whether a 64-bit id falls in the individual account
// range rather than the group range.
func IsIndividual(id uint64) bool {
	return id >= accountTypeIdentifierIndividual && id < accountTypeIdentifierGroup
}
