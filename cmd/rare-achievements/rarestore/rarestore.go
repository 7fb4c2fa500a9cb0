package rarestore

import (
	"rare-achievements/steamhttp"
	"time"
)

// Entry is an unlocked achievement joined with its global unlock rate.
type Entry struct {
	AppID      uint32  `json:"app_id"`
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
}

// DisplayRecord is a ranked entry resolved for printing. Description is nil
// for hidden achievements.
type DisplayRecord struct {
	Entry
	GameTitle   string  `json:"game_title"`
	DisplayName string  `json:"display_name"`
	Description *string `json:"description"`
}

type GlobalPercentages struct {
	Updated     time.Time
	Percentages map[string]float64
}

type AppMeta struct {
	Updated time.Time
	Title   string
	Schema  steamhttp.SchemaGame
}
