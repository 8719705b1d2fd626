// Package rankings fetches draft rankings (rank, ADP) from the external
// rankings feed. The seed tool writes its output into the players table the
// pool gateway reads from.
package rankings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mcdev12/draftroom/go/clients"
)

const defaultBaseURL = "https://api.draftrankings.example.com/v1"

// PlayerRanking is one row of the rankings feed.
type PlayerRanking struct {
	ExternalID string  `json:"external_id"`
	FullName   string  `json:"full_name"`
	Position   string  `json:"position"`
	Rank       int     `json:"rank"`
	ADP        float64 `json:"adp"`
	Draftable  bool    `json:"draftable"`
}

// Client wraps the rankings feed API.
type Client struct {
	base *clients.BaseClient
}

// NewClient builds a Client. baseURL may be empty to use the default.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	base := clients.NewBaseClient(baseURL)
	base.SetHeader("Authorization", "Bearer "+apiKey)
	base.SetHeader("Accept", "application/json")
	return &Client{base: base}
}

// GetRankings fetches the current rankings for a sport (e.g. "nfl").
func (c *Client) GetRankings(ctx context.Context, sport string) ([]PlayerRanking, error) {
	body, err := c.base.MakeRequest(ctx, http.MethodGet, fmt.Sprintf("/rankings/%s", sport), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s rankings: %w", sport, err)
	}

	var payload struct {
		Players []PlayerRanking `json:"players"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal rankings response: %w", err)
	}
	return payload.Players, nil
}
