// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// APIClient is the request/response half of the submission channel.
// It wraps the scoring endpoints of the match backend and normalizes
// every response into either typed data or an *APIError.
type APIClient struct {
	base       string
	httpClient *http.Client
	tokens     TokenSource
}

// NewAPIClient returns a client for the backend at baseURL. tokens may
// be nil for unauthenticated access.
func NewAPIClient(baseURL string, timeout time.Duration, tokens TokenSource) *APIClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &APIClient{
		base:       baseURL,
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
	}
}

// RecordBall submits one delivery and returns the server's new innings
// snapshot plus the compact event echo.
func (c *APIClient) RecordBall(ctx context.Context, d Delivery) (*RecordBallResult, error) {
	if err := ValidateDelivery(&d); err != nil {
		return nil, err
	}
	var res RecordBallResult
	if err := c.post(ctx, "/scoring/ball", d, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UndoBall reverts the most recently recorded delivery of the match.
// The server decides what "last delivery" means; the returned snapshot
// is the post-revert state.
func (c *APIClient) UndoBall(ctx context.Context, matchID string) (*Innings, error) {
	if matchID == "" {
		return nil, fmt.Errorf("missing match id")
	}
	payload := struct {
		MatchID string `json:"matchId"`
	}{matchID}
	var res struct {
		Innings Innings `json:"innings"`
	}
	if err := c.post(ctx, "/scoring/undo", payload, &res); err != nil {
		return nil, err
	}
	return &res.Innings, nil
}

// LiveInnings is the full live view of the current innings, lines
// included, used to seed the store when (re)entering a match.
type LiveInnings struct {
	InningsNumber int            `json:"inningsNumber"`
	BattingTeam   string         `json:"battingTeam"`
	BowlingTeam   string         `json:"bowlingTeam"`
	TotalRuns     int            `json:"totalRuns"`
	TotalWickets  int            `json:"totalWickets"`
	Overs         string         `json:"overs"`
	RunRate       string         `json:"runRate"`
	Target        *int           `json:"target"`
	Extras        Extras         `json:"extras"`
	Batting       []BattingEntry `json:"battingStats"`
	Bowling       []BowlingEntry `json:"bowlingStats"`
}

// Innings converts the live view to a full snapshot.
func (l *LiveInnings) Innings() Innings {
	in := Innings{
		Number:       l.InningsNumber,
		BattingTeam:  l.BattingTeam,
		BowlingTeam:  l.BowlingTeam,
		TotalRuns:    l.TotalRuns,
		TotalWickets: l.TotalWickets,
		TotalBalls:   ParseOvers(l.Overs),
		Extras:       l.Extras,
		Batting:      l.Batting,
		Bowling:      l.Bowling,
	}
	if l.Target != nil {
		in.Target = *l.Target
	}
	return in
}

// Live fetches the live innings state of a match.
func (c *APIClient) Live(ctx context.Context, matchID string) (*LiveInnings, error) {
	var res LiveInnings
	if err := c.get(ctx, "/matches/"+url.PathEscape(matchID)+"/live", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Match fetches match metadata including both team rosters.
func (c *APIClient) Match(ctx context.Context, matchID string) (*Match, error) {
	var res struct {
		Match Match `json:"match"`
	}
	if err := c.get(ctx, "/matches/"+url.PathEscape(matchID), &res); err != nil {
		return nil, err
	}
	return &res.Match, nil
}

// EndInnings declares the current innings over before its allotted
// overs, e.g. all out or a declaration. Returns the match status after
// the transition ("in_progress" or "completed").
func (c *APIClient) EndInnings(ctx context.Context, matchID string) (string, error) {
	var res struct {
		Status string `json:"status"`
	}
	err := c.post(ctx, "/matches/"+url.PathEscape(matchID)+"/end-innings", struct{}{}, &res)
	if err != nil {
		return "", err
	}
	return res.Status, nil
}

func (c *APIClient) post(ctx context.Context, path string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, result)
}

func (c *APIClient) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, result)
}

func (c *APIClient) do(req *http.Request, result any) error {
	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return fmt.Errorf("token source: %w", err)
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response %s: %w", req.URL.Path, err)
	}

	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode response %s: %w", req.URL.Path, err)
	}
	if resp.StatusCode != http.StatusOK || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("decode response data %s: %w", req.URL.Path, err)
	}
	return nil
}
