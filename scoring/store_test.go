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

func TestInningsStoreReplace(t *testing.T) {
	var s InningsStore
	if s.Known() {
		t.Error("Fresh store should not be Known")
	}

	s.Replace(Innings{TotalRuns: 10, TotalBalls: 8})
	if !s.Known() {
		t.Error("Store should be Known after Replace")
	}
	if got := s.Current(); got.TotalRuns != 10 || got.TotalBalls != 8 {
		t.Errorf("Current() = %+v, want runs=10 balls=8", got)
	}

	// Replacement is wholesale: stale fields do not leak through.
	s.Replace(Innings{TotalRuns: 4})
	if got := s.Current(); got.TotalBalls != 0 {
		t.Errorf("TotalBalls = %d after wholesale replace, want 0", got.TotalBalls)
	}

	s.Clear()
	cleared := s.Current()
	if s.Known() || !cleared.Empty() {
		t.Errorf("Store after Clear: known=%v innings=%+v", s.Known(), cleared)
	}
}

func TestInningsStoreApplySummary(t *testing.T) {
	var s InningsStore
	s.Replace(Innings{
		TotalRuns:  20,
		TotalBalls: 12,
		Batting:    []BattingEntry{{PlayerID: "p1", Runs: 12}},
		Bowling:    []BowlingEntry{{PlayerID: "p9", Wickets: 1}},
		Target:     150,
	})

	target := 151
	s.ApplySummary(InningsSummary{
		TotalRuns:    26,
		TotalWickets: 1,
		Overs:        "2.1",
		Extras:       Extras{Wides: 2, Total: 2},
		Target:       &target,
	})

	got := s.Current()
	if got.TotalRuns != 26 || got.TotalWickets != 1 || got.TotalBalls != 13 {
		t.Errorf("Totals = %d/%d balls=%d, want 26/1 balls=13", got.TotalRuns, got.TotalWickets, got.TotalBalls)
	}
	if got.Extras.Wides != 2 {
		t.Errorf("Extras.Wides = %d, want 2", got.Extras.Wides)
	}
	if got.Target != 151 {
		t.Errorf("Target = %d, want 151", got.Target)
	}
	// Summaries carry no per-player lines; the last known ones stay.
	if len(got.Batting) != 1 || got.Batting[0].PlayerID != "p1" {
		t.Errorf("Batting lines lost: %+v", got.Batting)
	}
	if len(got.Bowling) != 1 {
		t.Errorf("Bowling lines lost: %+v", got.Bowling)
	}

	// A summary without a target leaves the known target alone.
	s.ApplySummary(InningsSummary{TotalRuns: 30, TotalWickets: 1, Overs: "2.3"})
	if got := s.Current(); got.Target != 151 {
		t.Errorf("Target = %d after target-less summary, want 151", got.Target)
	}

	// Applying the same summary twice changes nothing.
	before := s.Current()
	s.ApplySummary(InningsSummary{TotalRuns: 30, TotalWickets: 1, Overs: "2.3"})
	if after := s.Current(); after.TotalRuns != before.TotalRuns || after.TotalBalls != before.TotalBalls {
		t.Errorf("Second identical ApplySummary changed the snapshot: %+v -> %+v", before, after)
	}
}
