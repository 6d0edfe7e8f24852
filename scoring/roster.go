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
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Team sides as the backend names them.
const (
	TeamA = "team_a"
	TeamB = "team_b"
)

// Player is a roster entry. IDs are opaque backend identifiers.
type Player struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	PlayingRole  string `json:"playingRole,omitempty"`
	IsCaptain    bool   `json:"isCaptain,omitempty"`
	IsKeeper     bool   `json:"isWicketKeeper,omitempty"`
	JerseyNumber int    `json:"jerseyNumber,omitempty"`
}

// Team is one side's roster.
type Team struct {
	Name    string   `json:"name"`
	Players []Player `json:"players"`
}

// Match is the metadata the client needs around an innings: which
// side bats, and both rosters for actor selection and name display.
type Match struct {
	ID             string `json:"_id"`
	Status         string `json:"status"`
	TotalOvers     int    `json:"totalOvers"`
	TeamA          Team   `json:"teamA"`
	TeamB          Team   `json:"teamB"`
	CurrentInnings int    `json:"currentInnings"`
}

// Rosters returns the batting and fielding rosters for an innings.
func (m *Match) Rosters(battingTeam string) (batting, fielding *Team) {
	if battingTeam == TeamB {
		return &m.TeamB, &m.TeamA
	}
	return &m.TeamA, &m.TeamB
}

// PlayerName resolves a player id across both rosters; empty string
// when unknown.
func (m *Match) PlayerName(id string) string {
	for _, t := range []*Team{&m.TeamA, &m.TeamB} {
		for _, p := range t.Players {
			if p.ID == id {
				return p.Name
			}
		}
	}
	return ""
}

// HasPlayer reports whether the team roster contains the player id.
func (t *Team) HasPlayer(id string) bool {
	for _, p := range t.Players {
		if p.ID == id {
			return true
		}
	}
	return false
}

// FindPlayer resolves a typed name fragment to a roster player using
// fuzzy matching, so a scorer can say "kohli" for "Virat Kohli". An
// exact id match short-circuits. Ambiguity is an error rather than a
// guess: picking the wrong batter silently would corrupt the scoring.
func (t *Team) FindPlayer(query string) (*Player, error) {
	if query == "" {
		return nil, fmt.Errorf("empty player query")
	}
	for i := range t.Players {
		if t.Players[i].ID == query {
			return &t.Players[i], nil
		}
	}

	q := strings.ToLower(query)
	best, runnerUp := -1, -1
	bestDist := int(^uint(0) >> 1)
	for i, p := range t.Players {
		if !fuzzy.MatchFold(query, p.Name) {
			continue
		}
		d := fuzzy.LevenshteinDistance(q, strings.ToLower(p.Name))
		switch {
		case d < bestDist:
			best, runnerUp, bestDist = i, best, d
		case d == bestDist:
			runnerUp = i
		}
	}
	if best < 0 {
		return nil, fmt.Errorf("no player matching %q in %s", query, t.Name)
	}
	if runnerUp >= 0 && fuzzy.LevenshteinDistance(q, strings.ToLower(t.Players[runnerUp].Name)) == bestDist {
		return nil, fmt.Errorf("ambiguous player %q: %s or %s", query, t.Players[best].Name, t.Players[runnerUp].Name)
	}
	return &t.Players[best], nil
}
