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

import "testing"

func testMatch() *Match {
	return &Match{
		ID: "m1",
		TeamA: Team{Name: "Falcons", Players: []Player{
			{ID: "a1", Name: "Virat Kohli"},
			{ID: "a2", Name: "Rohit Sharma"},
			{ID: "a3", Name: "Ishan Kishan"},
		}},
		TeamB: Team{Name: "Hawks", Players: []Player{
			{ID: "b1", Name: "Pat Cummins"},
			{ID: "b2", Name: "Mitchell Starc"},
			{ID: "b3", Name: "Mitchell Marsh"},
		}},
	}
}

func TestRosters(t *testing.T) {
	m := testMatch()
	batting, fielding := m.Rosters(TeamB)
	if batting.Name != "Hawks" || fielding.Name != "Falcons" {
		t.Errorf("Rosters(team_b) = %s batting, %s fielding", batting.Name, fielding.Name)
	}
	batting, fielding = m.Rosters(TeamA)
	if batting.Name != "Falcons" || fielding.Name != "Hawks" {
		t.Errorf("Rosters(team_a) = %s batting, %s fielding", batting.Name, fielding.Name)
	}

	if got := m.PlayerName("b2"); got != "Mitchell Starc" {
		t.Errorf("PlayerName(b2) = %q", got)
	}
	if got := m.PlayerName("nope"); got != "" {
		t.Errorf("PlayerName(nope) = %q, want empty", got)
	}
	if !m.TeamA.HasPlayer("a3") || m.TeamA.HasPlayer("b1") {
		t.Error("HasPlayer membership wrong")
	}
}

func TestFindPlayer(t *testing.T) {
	m := testMatch()

	tests := []struct {
		name    string
		team    *Team
		query   string
		wantID  string
		wantErr bool
	}{
		{name: "Exact id short-circuits", team: &m.TeamA, query: "a2", wantID: "a2"},
		{name: "Surname fragment", team: &m.TeamA, query: "kohli", wantID: "a1"},
		{name: "Case insensitive", team: &m.TeamA, query: "ROHIT", wantID: "a2"},
		{name: "Full name", team: &m.TeamB, query: "Pat Cummins", wantID: "b1"},
		{name: "Distinguishing suffix", team: &m.TeamB, query: "starc", wantID: "b2"},
		{name: "Ambiguous first name", team: &m.TeamB, query: "mitchell", wantErr: true},
		{name: "No match", team: &m.TeamA, query: "bradman", wantErr: true},
		{name: "Empty query", team: &m.TeamA, query: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := tc.team.FindPlayer(tc.query)
			if tc.wantErr {
				if err == nil {
					t.Errorf("FindPlayer(%q) = %v, want error", tc.query, p)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindPlayer(%q): %v", tc.query, err)
			}
			if p.ID != tc.wantID {
				t.Errorf("FindPlayer(%q) = %s, want %s", tc.query, p.ID, tc.wantID)
			}
		})
	}
}
