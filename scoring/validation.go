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

import "fmt"

const (
	// maxBatRuns bounds runs off the bat for one delivery. Seven covers
	// an all-run four plus overthrows; anything above is a typo.
	maxBatRuns = 7
	maxExtras  = 7

	maxCommentaryLen = 500
)

// ValidateDelivery checks a delivery before submission. The server
// revalidates everything; this only catches payloads that could never
// be legal so they fail fast without a round trip.
func ValidateDelivery(d *Delivery) error {
	if d.MatchID == "" {
		return fmt.Errorf("missing match id")
	}
	if !d.Outcome.Known() {
		return fmt.Errorf("unknown outcome %q", d.Outcome)
	}
	if d.Runs < 0 || d.Runs > maxBatRuns {
		return fmt.Errorf("runs %d out of range [0,%d]", d.Runs, maxBatRuns)
	}
	if d.ExtraRuns < 0 || d.ExtraRuns > maxExtras {
		return fmt.Errorf("extra runs %d out of range [0,%d]", d.ExtraRuns, maxExtras)
	}
	switch d.Outcome {
	case OutcomeWide, OutcomeNoBall:
		if d.ExtraRuns == 0 {
			return fmt.Errorf("%s must carry at least one extra run", d.Outcome)
		}
	case OutcomeDeadBall:
		if d.Runs != 0 || d.ExtraRuns != 0 {
			return fmt.Errorf("dead ball cannot score runs")
		}
	}
	if d.StrikerID == "" || d.NonStrikerID == "" || d.BowlerID == "" {
		return ErrActorsIncomplete
	}
	if d.StrikerID == d.NonStrikerID {
		return fmt.Errorf("striker and non-striker must differ")
	}
	if d.Wicket || d.Outcome == OutcomeWicket {
		if !d.Dismissal.Known() {
			return fmt.Errorf("unknown dismissal type %q", d.Dismissal)
		}
		if d.Dismissal.NeedsFielder() && d.FielderID == "" {
			return fmt.Errorf("%s requires a fielder", d.Dismissal)
		}
		if d.DismissedID != "" && d.DismissedID != d.StrikerID && d.DismissedID != d.NonStrikerID {
			return fmt.Errorf("dismissed player %s is not batting", d.DismissedID)
		}
	}
	if len(d.Commentary) > maxCommentaryLen {
		return fmt.Errorf("commentary exceeds %d characters", maxCommentaryLen)
	}
	return nil
}
