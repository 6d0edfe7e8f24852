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

// InningsStore holds the client's current view of the innings. It is
// intentionally dumb: snapshots are replaced wholesale, never patched
// field by field, so applying the same update twice is a no-op and no
// partial-update drift can accumulate. Ordering and staleness are the
// coordinator's job, not the store's.
//
// The store is owned by a single coordinator goroutine and does no
// locking of its own.
type InningsStore struct {
	innings Innings
	known   bool
}

// Replace installs a full innings snapshot unconditionally.
func (s *InningsStore) Replace(in Innings) {
	s.innings = in
	s.known = true
}

// ApplySummary merges a reduced realtime summary into the current
// snapshot: totals, overs, extras and target are taken from the
// summary while the last known per-player lines are preserved, since
// broadcasts do not carry them.
func (s *InningsStore) ApplySummary(sum InningsSummary) {
	s.innings.TotalRuns = sum.TotalRuns
	s.innings.TotalWickets = sum.TotalWickets
	s.innings.TotalBalls = sum.Balls()
	s.innings.Extras = sum.Extras
	if sum.Target != nil {
		s.innings.Target = *sum.Target
	}
	if sum.Completed {
		s.innings.Completed = true
	}
	s.known = true
}

// Clear resets the store for an innings or match transition.
func (s *InningsStore) Clear() {
	s.innings = Innings{}
	s.known = false
}

// Current returns the stored snapshot. The zero Innings before
// anything was installed.
func (s *InningsStore) Current() Innings {
	return s.innings
}

// Known reports whether any snapshot has been installed since the last
// Clear.
func (s *InningsStore) Known() bool {
	return s.known
}
