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

// Package scoring keeps a single match innings consistent across three
// asynchronous update sources: the direct response to a locally submitted
// delivery, realtime broadcasts from peer scorers in the same match room,
// and undo commands. The server owns the scoring rules; this package is
// the client-side coordinator that predicts, renders and reconciles.
package scoring

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Outcome is the kind of a delivery.
type Outcome string

const (
	OutcomeNormal   Outcome = "normal"
	OutcomeWide     Outcome = "wide"
	OutcomeNoBall   Outcome = "no_ball"
	OutcomeBye      Outcome = "bye"
	OutcomeLegBye   Outcome = "leg_bye"
	OutcomeWicket   Outcome = "wicket"
	OutcomeDeadBall Outcome = "dead_ball"
)

// Legal reports whether the delivery counts toward the over.
// Wides and no-balls are re-bowled and never advance the ball counter.
func (o Outcome) Legal() bool {
	return o != OutcomeWide && o != OutcomeNoBall
}

// CreditsBatters reports whether runs from this outcome are run by the
// batters, which is what makes odd run counts swap the strike.
func (o Outcome) CreditsBatters() bool {
	switch o {
	case OutcomeNormal, OutcomeBye, OutcomeLegBye:
		return true
	}
	return false
}

// Known reports whether the outcome is one the backend accepts.
func (o Outcome) Known() bool {
	switch o {
	case OutcomeNormal, OutcomeWide, OutcomeNoBall, OutcomeBye, OutcomeLegBye, OutcomeWicket, OutcomeDeadBall:
		return true
	}
	return false
}

// Dismissal is how a batter got out.
type Dismissal string

const (
	DismissalBowled          Dismissal = "bowled"
	DismissalCaught          Dismissal = "caught"
	DismissalLBW             Dismissal = "lbw"
	DismissalRunOut          Dismissal = "run_out"
	DismissalStumped         Dismissal = "stumped"
	DismissalHitWicket       Dismissal = "hit_wicket"
	DismissalCaughtAndBowled Dismissal = "caught_and_bowled"
	DismissalRetiredHurt     Dismissal = "retired_hurt"
	DismissalRetiredOut      Dismissal = "retired_out"
	DismissalTimedOut        Dismissal = "timed_out"
	DismissalHitBallTwice    Dismissal = "hit_the_ball_twice"
	DismissalObstructing     Dismissal = "obstructing_the_field"
)

// Known reports whether the dismissal type is one the backend accepts.
func (d Dismissal) Known() bool {
	switch d {
	case DismissalBowled, DismissalCaught, DismissalLBW, DismissalRunOut,
		DismissalStumped, DismissalHitWicket, DismissalCaughtAndBowled,
		DismissalRetiredHurt, DismissalRetiredOut, DismissalTimedOut,
		DismissalHitBallTwice, DismissalObstructing:
		return true
	}
	return false
}

// NeedsFielder reports whether the dismissal requires a fielder id.
func (d Dismissal) NeedsFielder() bool {
	switch d {
	case DismissalCaught, DismissalRunOut, DismissalStumped:
		return true
	}
	return false
}

// Extras is the team-credited runs breakdown.
type Extras struct {
	Wides   int `json:"wides"`
	NoBalls int `json:"noBalls"`
	Byes    int `json:"byes"`
	LegByes int `json:"legByes"`
	Penalty int `json:"penalty,omitempty"`
	Total   int `json:"total"`
}

// BattingEntry is one batter's line in the innings.
//
// The backend emits several historical field-name aliases for the same
// concepts (balls/ballsFaced, strikeRate/sr, player/playerId). They are
// folded into the canonical names here and never propagate further.
type BattingEntry struct {
	PlayerID   string
	PlayerName string
	Runs       int
	Balls      int
	Fours      int
	Sixes      int
	Out        bool
	Dismissal  Dismissal
	StrikeRate float64
}

func (e *BattingEntry) UnmarshalJSON(b []byte) error {
	var raw struct {
		Player        string    `json:"player"`
		PlayerID      string    `json:"playerId"`
		PlayerName    string    `json:"playerName"`
		Runs          int       `json:"runs"`
		Balls         *int      `json:"balls"`
		BallsFaced    *int      `json:"ballsFaced"`
		Fours         int       `json:"fours"`
		Sixes         int       `json:"sixes"`
		IsOut         bool      `json:"isOut"`
		DismissalType Dismissal `json:"dismissalType"`
		StrikeRate    *float64  `json:"strikeRate"`
		SR            *float64  `json:"sr"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	e.PlayerID = raw.Player
	if e.PlayerID == "" {
		e.PlayerID = raw.PlayerID
	}
	e.PlayerName = raw.PlayerName
	e.Runs = raw.Runs
	e.Balls = firstInt(raw.Balls, raw.BallsFaced)
	e.Fours = raw.Fours
	e.Sixes = raw.Sixes
	e.Out = raw.IsOut
	e.Dismissal = raw.DismissalType
	e.StrikeRate = firstFloat(raw.StrikeRate, raw.SR)
	return nil
}

func (e BattingEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Player        string    `json:"player"`
		PlayerName    string    `json:"playerName"`
		Runs          int       `json:"runs"`
		Balls         int       `json:"balls"`
		Fours         int       `json:"fours"`
		Sixes         int       `json:"sixes"`
		IsOut         bool      `json:"isOut"`
		DismissalType Dismissal `json:"dismissalType,omitempty"`
		StrikeRate    float64   `json:"strikeRate"`
	}{e.PlayerID, e.PlayerName, e.Runs, e.Balls, e.Fours, e.Sixes, e.Out, e.Dismissal, e.StrikeRate})
}

// BowlingEntry is one bowler's line in the innings. Same alias folding
// as BattingEntry (runs/runsConceded, economy/economyRate).
type BowlingEntry struct {
	PlayerID     string
	PlayerName   string
	Overs        float64
	Balls        int
	Maidens      int
	RunsConceded int
	Wickets      int
	Economy      float64
}

func (e *BowlingEntry) UnmarshalJSON(b []byte) error {
	var raw struct {
		Player       string   `json:"player"`
		PlayerID     string   `json:"playerId"`
		PlayerName   string   `json:"playerName"`
		Overs        float64  `json:"overs"`
		Balls        int      `json:"balls"`
		Maidens      int      `json:"maidens"`
		Runs         *int     `json:"runs"`
		RunsConceded *int     `json:"runsConceded"`
		Wickets      int      `json:"wickets"`
		Economy      *float64 `json:"economy"`
		EconomyRate  *float64 `json:"economyRate"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	e.PlayerID = raw.Player
	if e.PlayerID == "" {
		e.PlayerID = raw.PlayerID
	}
	e.PlayerName = raw.PlayerName
	e.Overs = raw.Overs
	e.Balls = raw.Balls
	e.Maidens = raw.Maidens
	e.RunsConceded = firstInt(raw.Runs, raw.RunsConceded)
	e.Wickets = raw.Wickets
	e.Economy = firstFloat(raw.Economy, raw.EconomyRate)
	return nil
}

func (e BowlingEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Player     string  `json:"player"`
		PlayerName string  `json:"playerName"`
		Overs      float64 `json:"overs"`
		Balls      int     `json:"balls"`
		Maidens    int     `json:"maidens"`
		Runs       int     `json:"runs"`
		Wickets    int     `json:"wickets"`
		Economy    float64 `json:"economy"`
	}{e.PlayerID, e.PlayerName, e.Overs, e.Balls, e.Maidens, e.RunsConceded, e.Wickets, e.Economy})
}

func firstInt(vals ...*int) int {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}

func firstFloat(vals ...*float64) float64 {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}

// Innings is the full client-side innings snapshot. TotalBalls is the
// total legal balls bowled; completed overs and balls-in-over derive
// from it so the over invariant holds by construction.
type Innings struct {
	Number       int            `json:"inningsNumber"`
	BattingTeam  string         `json:"battingTeam"`
	BowlingTeam  string         `json:"bowlingTeam"`
	TotalRuns    int            `json:"totalRuns"`
	TotalWickets int            `json:"totalWickets"`
	TotalBalls   int            `json:"totalBalls"`
	Extras       Extras         `json:"extras"`
	Batting      []BattingEntry `json:"battingStats,omitempty"`
	Bowling      []BowlingEntry `json:"bowlingStats,omitempty"`
	Completed    bool           `json:"isCompleted"`
	// Target is the chase target. Zero means none (first innings).
	Target int `json:"target,omitempty"`
}

// CompletedOvers is the number of finished six-ball overs.
func (in *Innings) CompletedOvers() int { return in.TotalBalls / 6 }

// BallsInOver is the legal-ball count of the over in progress, in [0,6).
func (in *Innings) BallsInOver() int { return in.TotalBalls % 6 }

// Overs formats the innings progress as "completed.balls", e.g. "2.3".
func (in *Innings) Overs() string {
	return fmt.Sprintf("%d.%d", in.CompletedOvers(), in.BallsInOver())
}

// RunRate is the current run rate, zero before the first legal ball.
func (in *Innings) RunRate() float64 {
	if in.TotalBalls == 0 {
		return 0
	}
	return float64(in.TotalRuns) / (float64(in.TotalBalls) / 6)
}

// Score formats the innings as "runs/wickets (overs)".
func (in *Innings) Score() string {
	return fmt.Sprintf("%d/%d (%s)", in.TotalRuns, in.TotalWickets, in.Overs())
}

// Empty reports whether nothing has been recorded in the innings yet.
// An innings with only extras recorded (all wides, say) is not empty
// even though its legal-ball count is still zero.
func (in *Innings) Empty() bool {
	return in.TotalRuns == 0 && in.TotalWickets == 0 && in.TotalBalls == 0 && in.Extras.Total == 0
}

// InningsSummary is the reduced innings shape carried by realtime events.
// It omits the per-player lines to keep broadcast payloads small.
type InningsSummary struct {
	TotalRuns    int    `json:"totalRuns"`
	TotalWickets int    `json:"totalWickets"`
	Overs        string `json:"overs"` // "2.3"
	RunRate      string `json:"runRate,omitempty"`
	Extras       Extras `json:"extras"`
	Target       *int   `json:"target"`
	Completed    bool   `json:"isCompleted,omitempty"`
}

// Balls converts the summary's overs string to a total legal-ball
// count. Malformed input is treated as zero rather than rejected: the
// summary came from the authoritative server and partial application
// beats dropping the whole event.
func (s *InningsSummary) Balls() int {
	return ParseOvers(s.Overs)
}

// ParseOvers converts an "overs.balls" string like "2.3" to total
// legal balls (15). Missing or malformed components count as zero.
func ParseOvers(overs string) int {
	whole, frac, _ := strings.Cut(overs, ".")
	o, _ := strconv.Atoi(whole)
	b, _ := strconv.Atoi(frac)
	return o*6 + b
}

// Delivery is one attempted scoring action. Deliveries are write-once:
// the client only ever submits new ones or a single undo command.
type Delivery struct {
	MatchID      string    `json:"matchId"`
	Outcome      Outcome   `json:"outcome"`
	Runs         int       `json:"runs"`
	ExtraRuns    int       `json:"extraRuns,omitempty"`
	StrikerID    string    `json:"strikerId"`
	NonStrikerID string    `json:"nonStrikerId"`
	BowlerID     string    `json:"bowlerId"`
	Wicket       bool      `json:"isWicket,omitempty"`
	Dismissal    Dismissal `json:"dismissalType,omitempty"`
	DismissedID  string    `json:"dismissedPlayerId,omitempty"`
	FielderID    string    `json:"fielderId,omitempty"`
	Commentary   string    `json:"commentary,omitempty"`

	// ClientKey is generated per submission so the coordinator can
	// recognize the broadcast echo of its own delivery.
	ClientKey string `json:"clientKey,omitempty"`
}

// TeamRuns is the total the delivery adds to the team score.
func (d *Delivery) TeamRuns() int { return d.Runs + d.ExtraRuns }

// BallLabel is the short label shown in the this-over history strip.
func (d *Delivery) BallLabel() string {
	switch {
	case d.Outcome == OutcomeWide:
		return "WD"
	case d.Outcome == OutcomeNoBall:
		return "NB"
	case d.Wicket || d.Outcome == OutcomeWicket:
		return "W"
	default:
		return strconv.Itoa(d.Runs)
	}
}

// BallEcho is the compact event echo returned with a record response.
type BallEcho struct {
	Over    int     `json:"over"`
	Ball    int     `json:"ball"`
	Outcome Outcome `json:"outcome"`
	Runs    int     `json:"runs"`
}

// RecordBallResult is the payload of a successful record submission.
type RecordBallResult struct {
	Innings Innings  `json:"innings"`
	Event   BallEcho `json:"event"`
}

// apiEnvelope is the backend's uniform response wrapper.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Fixed2 renders a rate with the two-decimal display convention used
// for run rates, strike rates and economies.
func Fixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
