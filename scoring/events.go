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

import "encoding/json"

// Realtime event names (mirrors the backend's constants).
const (
	EventJoinRoom       = "join_room"
	EventLeaveRoom      = "leave_room"
	EventRoomUpdated    = "room_updated"
	EventRoomUserJoined = "room_user_joined"
	EventRoomUserLeft   = "room_user_left"

	EventBallUpdate      = "ball_update"
	EventStrikeRotate    = "strike_rotate"
	EventOverComplete    = "over_complete"
	EventWicketFallen    = "wicket_fallen"
	EventInningsComplete = "innings_complete"
	EventMatchComplete   = "match_complete"
	EventScoreUpdate     = "score_update"
	EventUndoBall        = "undo_ball"
	EventRecordBall      = "record_ball"

	EventRequestLiveScore = "request_live_score"
	EventLiveScoreData    = "live_score_data"

	EventMatchChat     = "match_chat"
	EventMatchReaction = "match_reaction"

	EventError = "error"

	// Synthetic events dispatched by the connection itself, never
	// carried on the wire.
	EventConnected    = "_connected"
	EventDisconnected = "_disconnected"
)

// NextBatsmen carries the server's authoritative batter assignment.
// A nil field means "no change", not "role cleared".
type NextBatsmen struct {
	Striker    *string `json:"striker"`
	NonStriker *string `json:"nonStriker"`
}

// BallUpdate is broadcast to all room members after every recorded
// delivery, including to the scorer that submitted it.
type BallUpdate struct {
	Event             json.RawMessage `json:"event"` // ScoreEvent document
	Innings           InningsSummary  `json:"innings"`
	StrikeRotated     bool            `json:"strikeRotated"`
	NextBatsmen       NextBatsmen     `json:"nextBatsmen"`
	OverJustCompleted bool            `json:"overJustCompleted"`
	InningsCompleted  bool            `json:"inningsCompleted"`
	// ClientKey echoes the submitting client's key so the submitter
	// can recognize its own delivery coming back.
	ClientKey string `json:"clientKey,omitempty"`
}

// Strike rotation reasons.
const (
	RotateReasonOddRuns = "odd_runs"
	RotateReasonOverEnd = "over_end"
)

// StrikeRotate is the server-computed rotation. When present it is
// authoritative and consumed instead of the local rotation rules.
type StrikeRotate struct {
	NewStriker    *string `json:"newStriker"`
	NewNonStriker *string `json:"newNonStriker"`
	Reason        string  `json:"reason"`
}

// OverComplete announces a finished over.
type OverComplete struct {
	CompletedOver int `json:"completedOver"`
	Bowler        struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"bowler"`
	NextStriker    *string `json:"nextStriker"`
	NextNonStriker *string `json:"nextNonStriker"`
}

// WicketFallen announces a dismissal.
type WicketFallen struct {
	WicketNumber    int `json:"wicketNumber"`
	DismissedPlayer struct {
		Player     *string `json:"player"`
		PlayerName *string `json:"playerName"`
	} `json:"dismissedPlayer"`
	DismissalType Dismissal   `json:"dismissalType"`
	Score         int         `json:"score"`
	NextBatsmen   NextBatsmen `json:"nextBatsmen"`
}

// InningsCompleteEvent announces the end of an innings.
type InningsCompleteEvent struct {
	InningsNumber int    `json:"inningsNumber"`
	TotalRuns     int    `json:"totalRuns"`
	TotalWickets  int    `json:"totalWickets"`
	Overs         string `json:"overs"`
	Target        *int   `json:"target"`
}

// UndoBall is broadcast after the server reverts the last delivery.
// Its summary carries no run rate and no completion flag; nextBatsmen
// is the authoritative post-revert pair.
type UndoBall struct {
	UndoneEvent string         `json:"undoneEvent"`
	Innings     InningsSummary `json:"innings"`
	NextBatsmen NextBatsmen    `json:"nextBatsmen"`
}

// MatchCompleteEvent carries the final result.
type MatchCompleteEvent struct {
	Winner     string `json:"winner,omitempty"`
	WinnerName string `json:"winnerName,omitempty"`
	WinBy      string `json:"winBy,omitempty"`
	IsDraw     bool   `json:"isDraw,omitempty"`
	IsTie      bool   `json:"isTie,omitempty"`
	IsNoResult bool   `json:"isNoResult,omitempty"`
}

// RecordBallAck is the acknowledgement for a record_ball emitted over
// the socket instead of REST.
type RecordBallAck struct {
	Success bool `json:"success"`
	Data    *struct {
		Innings           InningsSummary `json:"innings"`
		StrikeRotated     bool           `json:"strikeRotated"`
		NextBatsmen       NextBatsmen    `json:"nextBatsmen"`
		OverJustCompleted bool           `json:"overJustCompleted"`
	} `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// RoomRef identifies the event room to join or leave. Either field is
// accepted by the backend.
type RoomRef struct {
	RoomID  string `json:"roomId,omitempty"`
	MatchID string `json:"matchId,omitempty"`
}

// RoomUser is a presence notification payload.
type RoomUser struct {
	UserID      string `json:"userId"`
	SocketID    string `json:"socketId"`
	IsSpectator bool   `json:"isSpectator"`
	Timestamp   string `json:"timestamp"`
}

// ChatMessage is a match room chat line.
type ChatMessage struct {
	RoomID    string `json:"roomId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Reaction kinds the backend accepts.
const (
	ReactionSix    = "six"
	ReactionFour   = "four"
	ReactionWicket = "wicket"
	ReactionAppeal = "appeal"
	ReactionCheer  = "cheer"
	ReactionClap   = "clap"
)

// ReactionMessage is a quick emote sent to the match room.
type ReactionMessage struct {
	RoomID    string `json:"roomId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	Reaction  string `json:"reaction"`
	Timestamp string `json:"timestamp,omitempty"`
}

// SocketError is the error payload the server emits on the error event.
type SocketError struct {
	Message string `json:"message"`
}
