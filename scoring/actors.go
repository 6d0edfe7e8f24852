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

// Role is one of the three on-field positions tracked per innings.
type Role string

const (
	RoleStriker    Role = "striker"
	RoleNonStriker Role = "non_striker"
	RoleBowler     Role = "bowler"
)

// Actors holds the identities currently on field. An empty string means
// the role is unselected and scoring is blocked until it is filled.
type Actors struct {
	Striker    string `json:"striker"`
	NonStriker string `json:"nonStriker"`
	Bowler     string `json:"bowler"`
}

// Complete reports whether all three roles are selected.
func (a Actors) Complete() bool {
	return a.Striker != "" && a.NonStriker != "" && a.Bowler != ""
}

// Missing lists the unselected roles.
func (a Actors) Missing() []Role {
	var roles []Role
	if a.Striker == "" {
		roles = append(roles, RoleStriker)
	}
	if a.NonStriker == "" {
		roles = append(roles, RoleNonStriker)
	}
	if a.Bowler == "" {
		roles = append(roles, RoleBowler)
	}
	return roles
}

// WithRole returns a copy with one role set. Selecting the same player
// at both ends is rejected; a player may not face their own bowling
// either, but batting/fielding team membership is checked against the
// roster by the coordinator, not here.
func (a Actors) WithRole(role Role, playerID string) (Actors, error) {
	if playerID == "" {
		return a, fmt.Errorf("%s: empty player id", role)
	}
	switch role {
	case RoleStriker:
		if playerID == a.NonStriker {
			return a, fmt.Errorf("striker and non-striker must differ")
		}
		a.Striker = playerID
	case RoleNonStriker:
		if playerID == a.Striker {
			return a, fmt.Errorf("striker and non-striker must differ")
		}
		a.NonStriker = playerID
	case RoleBowler:
		a.Bowler = playerID
	default:
		return a, fmt.Errorf("unknown role %q", role)
	}
	return a, nil
}

// clearPlayer blanks whichever role the player currently occupies.
func (a Actors) clearPlayer(playerID string) Actors {
	switch playerID {
	case "":
	case a.Striker:
		a.Striker = ""
	case a.NonStriker:
		a.NonStriker = ""
	case a.Bowler:
		a.Bowler = ""
	}
	return a
}

// swapEnds exchanges striker and non-striker.
func (a Actors) swapEnds() Actors {
	a.Striker, a.NonStriker = a.NonStriker, a.Striker
	return a
}

// Rotation is the actor state predicted for the moment after a delivery.
type Rotation struct {
	Actors Actors
	// Swapped is true when the batters changed ends, for whatever
	// combination of reasons.
	Swapped bool
	// OverCompleted means the delivery finished the over: the bowler
	// role has been cleared and must be reselected.
	OverCompleted bool
	// WicketFell means a dismissed batter's role has been cleared.
	WicketFell bool
}

// RotateOnDelivery applies cricket's strike rotation to the prior actor
// state. ballsAfter is the innings' total legal-ball count including
// this delivery (for an illegal delivery, the unchanged count).
//
// Odd batter-run deliveries of a batting-credited kind swap the ends.
// A delivery that completes the over swaps the ends again, so an
// odd-run over-ending ball leaves the strike where it was. Wides and
// no-balls never rotate strike regardless of runs taken on them.
// A dismissal clears the dismissed player's role after any swaps; the
// surviving batter keeps whichever end the rotation put them at.
func RotateOnDelivery(prior Actors, d Delivery, ballsAfter int) Rotation {
	rot := Rotation{Actors: prior}

	legal := d.Outcome.Legal()
	if legal && d.Outcome.CreditsBatters() && d.Runs%2 == 1 {
		rot.Actors = rot.Actors.swapEnds()
		rot.Swapped = !rot.Swapped
	}
	if legal && ballsAfter > 0 && ballsAfter%6 == 0 {
		rot.Actors = rot.Actors.swapEnds()
		rot.Swapped = !rot.Swapped
		rot.Actors.Bowler = ""
		rot.OverCompleted = true
	}
	if d.Wicket || d.Outcome == OutcomeWicket {
		dismissed := d.DismissedID
		if dismissed == "" {
			dismissed = d.StrikerID
		}
		rot.Actors = rot.Actors.clearPlayer(dismissed)
		rot.WicketFell = true
	}
	return rot
}
