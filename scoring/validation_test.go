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
	"strings"
	"testing"
)

func validDelivery() Delivery {
	return Delivery{
		MatchID:      "m1",
		Outcome:      OutcomeNormal,
		Runs:         1,
		StrikerID:    "s",
		NonStrikerID: "n",
		BowlerID:     "b",
	}
}

func TestValidateDelivery(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Delivery)
		wantErr bool
	}{
		{
			name:   "Valid single",
			mutate: func(d *Delivery) {},
		},
		{
			name:    "Missing match id",
			mutate:  func(d *Delivery) { d.MatchID = "" },
			wantErr: true,
		},
		{
			name:    "Unknown outcome",
			mutate:  func(d *Delivery) { d.Outcome = "reverse_sweep" },
			wantErr: true,
		},
		{
			name:    "Negative runs",
			mutate:  func(d *Delivery) { d.Runs = -1 },
			wantErr: true,
		},
		{
			name:    "Runs above cap",
			mutate:  func(d *Delivery) { d.Runs = 8 },
			wantErr: true,
		},
		{
			name:   "Seven runs allowed",
			mutate: func(d *Delivery) { d.Runs = 7 },
		},
		{
			name:    "Wide without extras",
			mutate:  func(d *Delivery) { d.Outcome = OutcomeWide; d.Runs = 0; d.ExtraRuns = 0 },
			wantErr: true,
		},
		{
			name:   "Wide with one extra",
			mutate: func(d *Delivery) { d.Outcome = OutcomeWide; d.Runs = 0; d.ExtraRuns = 1 },
		},
		{
			name:    "No-ball without extras",
			mutate:  func(d *Delivery) { d.Outcome = OutcomeNoBall; d.ExtraRuns = 0 },
			wantErr: true,
		},
		{
			name:    "Dead ball with runs",
			mutate:  func(d *Delivery) { d.Outcome = OutcomeDeadBall },
			wantErr: true,
		},
		{
			name:   "Dead ball scoreless",
			mutate: func(d *Delivery) { d.Outcome = OutcomeDeadBall; d.Runs = 0 },
		},
		{
			name:    "Missing bowler",
			mutate:  func(d *Delivery) { d.BowlerID = "" },
			wantErr: true,
		},
		{
			name:    "Striker at both ends",
			mutate:  func(d *Delivery) { d.NonStrikerID = d.StrikerID },
			wantErr: true,
		},
		{
			name: "Wicket without dismissal type",
			mutate: func(d *Delivery) {
				d.Wicket = true
			},
			wantErr: true,
		},
		{
			name: "Caught without fielder",
			mutate: func(d *Delivery) {
				d.Wicket = true
				d.Dismissal = DismissalCaught
			},
			wantErr: true,
		},
		{
			name: "Caught with fielder",
			mutate: func(d *Delivery) {
				d.Wicket = true
				d.Dismissal = DismissalCaught
				d.FielderID = "f"
			},
		},
		{
			name: "Bowled needs no fielder",
			mutate: func(d *Delivery) {
				d.Wicket = true
				d.Dismissal = DismissalBowled
			},
		},
		{
			name: "Dismissed player not batting",
			mutate: func(d *Delivery) {
				d.Wicket = true
				d.Dismissal = DismissalBowled
				d.DismissedID = "someone_else"
			},
			wantErr: true,
		},
		{
			name: "Run out of the non-striker",
			mutate: func(d *Delivery) {
				d.Wicket = true
				d.Dismissal = DismissalRunOut
				d.DismissedID = "n"
				d.FielderID = "f"
			},
		},
		{
			name:    "Commentary too long",
			mutate:  func(d *Delivery) { d.Commentary = strings.Repeat("x", 501) },
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := validDelivery()
			tc.mutate(&d)
			err := ValidateDelivery(&d)
			if tc.wantErr && err == nil {
				t.Errorf("ValidateDelivery(%+v) = nil, want error", d)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("ValidateDelivery(%+v) = %v, want nil", d, err)
			}
		})
	}
}
