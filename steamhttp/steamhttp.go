package steamhttp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type GetOwnedGamesResponse struct {
	Response OwnedGamesResponse `json:"response"`
}

// Games is empty when the profile is private or owns nothing.
type OwnedGamesResponse struct {
	GameCount int              `json:"game_count"`
	Games     []OwnedGamesGame `json:"games"`
}

type OwnedGamesGame struct {
	AppID           uint32 `json:"appid"`
	Name            string `json:"name"`
	PlaytimeForever int    `json:"playtime_forever"`
}

type GetPlayerAchievementsResponse struct {
	PlayerStats PlayerAchievementsPlayerStats `json:"playerstats"`
}

type PlayerAchievementsPlayerStats struct {
	SteamID      string                          `json:"steamID"`
	GameName     string                          `json:"gameName"`
	Achievements []PlayerAchievementsAchievement `json:"achievements"`
	Error        string                          `json:"error"`
	Success      bool                            `json:"success"`
}

type PlayerAchievementsAchievement struct {
	APIName    string `json:"apiname"`
	Achieved   int    `json:"achieved"`
	UnlockTime int64  `json:"unlocktime"`
}

const ErrorNoStats = "Requested app has no stats"

type GetGlobalAchievementPercentagesResponse struct {
	AchievementPercentages GlobalAchievementPercentages `json:"achievementpercentages"`
}

type GlobalAchievementPercentages struct {
	Achievements []GlobalAchievementPercentage `json:"achievements"`
}

type GlobalAchievementPercentage struct {
	Name    string  `json:"name"`
	Percent Percent `json:"percent"`
}

// Percent decodes from either a JSON number or a quoted decimal string; the
// percentages endpoint has returned both over time.
type Percent float64

func (p *Percent) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("unmarshal percent string: %w", err)
		}

		b = []byte(s)
	}

	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("parse percent: %w", err)
	}

	*p = Percent(f)

	return nil
}

type GetSchemaForGameResponse struct {
	Game SchemaGame `json:"game"`
}

type SchemaGame struct {
	GameName           string                   `json:"gameName"`
	GameVersion        string                   `json:"gameVersion"`
	AvailableGameStats SchemaAvailableGameStats `json:"availableGameStats"`
}

type SchemaAvailableGameStats struct {
	Achievements []SchemaAchievement `json:"achievements"`
}

type SchemaAchievement struct {
	Name         string  `json:"name"`
	DefaultValue int     `json:"defaultvalue"`
	DisplayName  string  `json:"displayName"`
	Hidden       int     `json:"hidden"`
	Description  *string `json:"description,omitempty"`
	Icon         string  `json:"icon"`
	IconGray     string  `json:"icongray"`
}

// AppDetailsResponse is keyed by the decimal app id that was requested.
type AppDetailsResponse map[string]AppDetails

type AppDetails struct {
	Success bool           `json:"success"`
	Data    AppDetailsData `json:"data"`
}

type AppDetailsData struct {
	Type       string `json:"type"`
	Name       string `json:"name"`
	SteamAppID uint32 `json:"steam_appid"`
}
