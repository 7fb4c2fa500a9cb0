package steamhttprpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"rare-achievements/steamhttp"
	"strconv"
)

const (
	EndpointOwnedGames         = "IPlayerService/GetOwnedGames/v0001"
	EndpointPlayerAchievements = "ISteamUserStats/GetPlayerAchievements/v0001"
	EndpointGlobalPercentages  = "ISteamUserStats/GetGlobalAchievementPercentagesForApp/v0002"
	EndpointSchemaForGame      = "ISteamUserStats/GetSchemaForGame/v2"
)

type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// StaticKey is an API key supplied directly rather than fetched from a
// secret store.
type StaticKey string

func (k StaticKey) APIKey(context.Context) (string, error) {
	if k == "" {
		return "", fmt.Errorf("empty API key")
	}

	return string(k), nil
}

type Client struct {
	address      string
	storeAddress string
	httpc        http.Client
	keys         KeySource
}

func NewClient(httpc http.Client, keys KeySource, address, storeAddress string) *Client {
	if address == "" {
		address = "https://api.steampowered.com"
	}

	if storeAddress == "" {
		storeAddress = "https://store.steampowered.com/api"
	}

	return &Client{
		address:      address,
		storeAddress: storeAddress,
		httpc:        httpc,
		keys:         keys,
	}
}

// Response is a raw reply. Non-2xx statuses are not errors at this level.
type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) decode(v any) error {
	if err := json.NewDecoder(bytes.NewReader(r.Body)).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (r *Response) unexpected() error {
	return fmt.Errorf("status %d: %s", r.StatusCode, string(r.Body))
}

// Call GETs {address}/{endpoint}/ with params as the query string.
func (c *Client) Call(ctx context.Context, endpoint string, params url.Values) (*Response, error) {
	addr := c.address + "/" + endpoint + "/"
	if len(params) > 0 {
		addr += "?" + params.Encode()
	}

	return c.get(ctx, addr)
}

func (c *Client) get(ctx context.Context, addr string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	res, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{StatusCode: res.StatusCode, Body: b}, nil
}

func (c *Client) keyed(ctx context.Context, params url.Values) (url.Values, error) {
	key, err := c.keys.APIKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("get API key: %w", err)
	}

	params.Set("key", key)

	return params, nil
}

type OwnedGamesStatus uint8

const (
	OwnedGamesOK OwnedGamesStatus = iota
	OwnedGamesInvalidAccount
	OwnedGamesPrivateOrEmpty
)

type OwnedGames struct {
	Status OwnedGamesStatus
	AppIDs []uint32
}

func (c *Client) GetOwnedGames(ctx context.Context, accountID uint64) (OwnedGames, error) {
	var owned OwnedGames

	params, err := c.keyed(ctx, url.Values{
		"steamid":                   {strconv.FormatUint(accountID, 10)},
		"include_appinfo":           {"true"},
		"include_played_free_games": {"true"},
		"format":                    {"json"},
	})
	if err != nil {
		return owned, err
	}

	res, err := c.Call(ctx, EndpointOwnedGames, params)
	if err != nil {
		return owned, err
	}

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		owned.Status = OwnedGamesInvalidAccount
		return owned, nil
	default:
		return owned, res.unexpected()
	}

	var response steamhttp.GetOwnedGamesResponse

	if err := res.decode(&response); err != nil {
		return owned, err
	}

	if len(response.Response.Games) == 0 {
		owned.Status = OwnedGamesPrivateOrEmpty
		return owned, nil
	}

	owned.AppIDs = make([]uint32, 0, len(response.Response.Games))

	for _, g := range response.Response.Games {
		owned.AppIDs = append(owned.AppIDs, g.AppID)
	}

	return owned, nil
}

type AchievementsStatus uint8

const (
	AchievementsOK AchievementsStatus = iota
	// AchievementsForbidden means the account hides its achievement data.
	AchievementsForbidden
	// AchievementsNoStats means the game has no achievements at all.
	AchievementsNoStats
)

type PlayerAchievements struct {
	Status       AchievementsStatus
	Achievements []steamhttp.PlayerAchievementsAchievement
}

func (c *Client) GetPlayerAchievements(ctx context.Context, accountID uint64, appID uint32) (PlayerAchievements, error) {
	var pa PlayerAchievements

	params, err := c.keyed(ctx, url.Values{
		"appid":   {strconv.FormatUint(uint64(appID), 10)},
		"steamid": {strconv.FormatUint(accountID, 10)},
		"format":  {"json"},
	})
	if err != nil {
		return pa, err
	}

	res, err := c.Call(ctx, EndpointPlayerAchievements, params)
	if err != nil {
		return pa, err
	}

	switch res.StatusCode {
	case http.StatusOK, http.StatusBadRequest:
	case http.StatusForbidden:
		pa.Status = AchievementsForbidden
		return pa, nil
	default:
		return pa, res.unexpected()
	}

	var response steamhttp.GetPlayerAchievementsResponse

	if err := res.decode(&response); err != nil {
		return pa, err
	}

	stats := response.PlayerStats

	if res.StatusCode == http.StatusBadRequest {
		if stats.Error != steamhttp.ErrorNoStats {
			return pa, res.unexpected()
		}

		pa.Status = AchievementsNoStats
		return pa, nil
	}

	if stats.Achievements == nil {
		pa.Status = AchievementsNoStats
		return pa, nil
	}

	pa.Achievements = stats.Achievements

	return pa, nil
}

// GetGlobalAchievementPercentages maps achievement internal names to the
// percentage of players that unlocked them. The endpoint answers 403 for
// games without achievements, which yields an empty map.
func (c *Client) GetGlobalAchievementPercentages(ctx context.Context, appID uint32) (map[string]float64, error) {
	params := url.Values{
		"gameid": {strconv.FormatUint(uint64(appID), 10)},
		"format": {"json"},
	}

	res, err := c.Call(ctx, EndpointGlobalPercentages, params)
	if err != nil {
		return nil, err
	}

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		return map[string]float64{}, nil
	default:
		return nil, res.unexpected()
	}

	var response steamhttp.GetGlobalAchievementPercentagesResponse

	if err := res.decode(&response); err != nil {
		return nil, err
	}

	achievements := response.AchievementPercentages.Achievements
	percentages := make(map[string]float64, len(achievements))

	for _, a := range achievements {
		percentages[a.Name] = float64(a.Percent)
	}

	return percentages, nil
}

func (c *Client) GetSchemaForGame(ctx context.Context, appID uint32) (*steamhttp.GetSchemaForGameResponse, error) {
	params, err := c.keyed(ctx, url.Values{
		"appid":  {strconv.FormatUint(uint64(appID), 10)},
		"format": {"json"},
	})
	if err != nil {
		return nil, err
	}

	res, err := c.Call(ctx, EndpointSchemaForGame, params)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, res.unexpected()
	}

	var response steamhttp.GetSchemaForGameResponse

	if err := res.decode(&response); err != nil {
		return nil, err
	}

	return &response, nil
}

// GetAppTitle looks up the store-front name of an app. The schema's own
// gameName is not reliable enough for display.
func (c *Client) GetAppTitle(ctx context.Context, appID uint32) (string, bool, error) {
	id := strconv.FormatUint(uint64(appID), 10)
	addr := c.storeAddress + "/appdetails?appids=" + id

	res, err := c.get(ctx, addr)
	if err != nil {
		return "", false, err
	}

	if res.StatusCode != http.StatusOK {
		return "", false, res.unexpected()
	}

	var response steamhttp.AppDetailsResponse

	if err := res.decode(&response); err != nil {
		return "", false, err
	}

	details, ok := response[id]
	if !ok || !details.Success || details.Data.Name == "" {
		return "", false, nil
	}

	return details.Data.Name, true, nil
}
