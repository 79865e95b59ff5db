package anniversary

import (
	"context"
	"fmt"
	"net/url"
)

var allowedGames = map[string]bool{
	"shooter": true,
	"rocket":  true,
}

// CanStart checks whether the player is eligible to start another round
// of the given game.
func (c *Client) CanStart(ctx context.Context, game string) (*CanStartResult, error) {
	if !allowedGames[game] {
		return nil, fmt.Errorf("anniversary: unknown game %q", game)
	}

	query := url.Values{"game": {game}}
	var out CanStartResult
	if err := c.doRequestWithRetry(ctx, "GET", "can-start", query, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartGame opens a play session for the given game. The server ties
// the subsequent finish-game submission to this session via the session
// cookie.
func (c *Client) StartGame(ctx context.Context, game string) (*StartGameResult, error) {
	if !allowedGames[game] {
		return nil, fmt.Errorf("anniversary: unknown game %q", game)
	}

	body := map[string]string{"game": game}
	var out StartGameResult
	if err := c.doRequestWithRetry(ctx, "POST", "start-game", nil, body, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FinishGame submits a final score. The raw points are signed and
// base64-encoded by the client's codec; the server only ever sees the
// encoded form. A positive Duration is reported through the "What"
// header the web client sends alongside the submission.
func (c *Client) FinishGame(ctx context.Context, req FinishRequest) (*FinishResult, error) {
	if req.MissionName == "" {
		return nil, fmt.Errorf("anniversary: mission name is required")
	}

	body := finishGameBody{
		MissionName:  req.MissionName,
		PointsEarned: c.codec.Encode(req.Points),
	}

	var extra map[string]string
	if req.Duration > 0 {
		extra = map[string]string{whatHeader: whatValue(req.Duration)}
	}

	var out FinishResult
	if err := c.doRequestWithRetry(ctx, "POST", "finish-game", nil, body, extra, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
