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
	"errors"
	"fmt"
)

// Guarded preconditions. These are normal control flow on the caller's
// side, never caused by the network.
var (
	// ErrActorsIncomplete means striker, non-striker or bowler is
	// unselected; the delivery was not submitted.
	ErrActorsIncomplete = errors.New("on-field actors incomplete")

	// ErrSubmissionInFlight means a delivery is already awaiting its
	// response. Predictions are never stacked.
	ErrSubmissionInFlight = errors.New("a submission is already in flight")

	// ErrInningsComplete and ErrMatchComplete reject scoring actions
	// after the corresponding terminal state was confirmed.
	ErrInningsComplete = errors.New("innings already complete")
	ErrMatchComplete   = errors.New("match already complete")

	// ErrNothingToUndo rejects an undo before any delivery was
	// recorded in the current innings.
	ErrNothingToUndo = errors.New("no delivery to undo")

	// ErrCoordinatorClosed is returned by every operation after Close.
	ErrCoordinatorClosed = errors.New("coordinator closed")

	// ErrNotConnected is returned when a socket operation is attempted
	// without an established connection.
	ErrNotConnected = errors.New("realtime connection not established")
)

// APIError is a request that reached the server and was answered with
// a failure. Status 4xx responses are validation rejections: the
// delivery was illegal for the current match state and no local state
// change was applied.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server rejected request (%d): %s", e.Status, e.Message)
}

// IsValidation reports whether err is a server-side rejection of the
// submitted action, as opposed to a transport failure.
func IsValidation(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status >= 400 && ae.Status < 500
}

// IsTransport reports whether err is a network or socket failure where
// no response is known. After a transport error the delivery may or
// may not have applied server-side, which is why the coordinator never
// retries automatically.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	var ae *APIError
	return !errors.As(err, &ae)
}
