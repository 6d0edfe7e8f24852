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
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Phase is the coordinator's position in the scoring state machine.
type Phase string

const (
	// PhaseAwaitingActors blocks scoring until striker, non-striker
	// and bowler are all selected.
	PhaseAwaitingActors Phase = "awaiting_actors"
	// PhaseReady accepts delivery submissions.
	PhaseReady Phase = "ready"
	// PhaseSubmitting has exactly one scoring action in flight.
	PhaseSubmitting Phase = "submitting"
	// Terminal phases for the innings; no further deliveries accepted.
	PhaseInningsComplete Phase = "innings_complete"
	PhaseMatchComplete   Phase = "match_complete"
)

// OverBall is one display item of the this-over history strip.
type OverBall struct {
	Label   string  `json:"label"`
	Outcome Outcome `json:"outcome"`
	Runs    int     `json:"runs"`
}

// View is the read-only snapshot handed to the consumer after every
// state change. Slices are shared; treat them as immutable.
type View struct {
	Phase     Phase
	Innings   Innings
	Actors    Actors
	Missing   []Role
	OverBalls []OverBall

	// RunsNeeded is target minus current score, zero without a target.
	RunsNeeded int

	// InningsResult and MatchResult are set once the corresponding
	// terminal signal was confirmed.
	InningsResult *InningsCompleteEvent
	MatchResult   *MatchCompleteEvent

	// Err is the most recent submission failure, cleared when the
	// next action is accepted. The consumer offers retry; nothing
	// is retried automatically.
	Err error
}

// Realtime is the subset of Conn the coordinator consumes.
type Realtime interface {
	Subscribe(event string, fn Handler) *Subscription
	Emit(event string, v any) error
	EmitWithAck(ctx context.Context, event string, v any) (json.RawMessage, error)
	JoinRoom(ref RoomRef) error
	LeaveRoom(ref RoomRef) error
}

// CoordinatorOptions configures a scoring session.
type CoordinatorOptions struct {
	MatchID string
	// RoomID is the event room when it differs from the match id.
	RoomID string
	API    *APIClient
	// Realtime may be nil for a REST-only session (no broadcasts).
	Realtime Realtime
	// ScoreOverSocket submits deliveries as record_ball socket events
	// with acks instead of REST.
	ScoreOverSocket bool
	// OnChange is invoked on the coordinator goroutine after every
	// state change. It must not call back into the coordinator.
	OnChange func(View)
	// RequestTimeout bounds socket-ack waits. REST timeouts come from
	// the APIClient.
	RequestTimeout time.Duration
}

// Coordinator owns one scoring session: the innings snapshot, the
// on-field actors and the optimistic/confirmed reconciliation. All
// state lives on a single goroutine fed by a request channel; the
// asynchronous sources (submission responses, socket broadcasts) race
// only to enqueue, never to mutate.
type Coordinator struct {
	opts    CoordinatorOptions
	matchID string

	requests chan coordRequest
	done     chan struct{}
	subs     []*Subscription

	closeMu sync.RWMutex
	closed  bool

	// Everything below is owned by the run goroutine.
	store     InningsStore
	actors    Actors
	phase     Phase
	overBalls []OverBall

	// watermark is the monotonic staleness guard: the highest total
	// legal-ball count seen from an authoritative source. Updates
	// below it are discarded; an undo lowers it explicitly.
	watermark int

	// pendingKey is the client key of the single in-flight delivery,
	// empty when none. pendingUndo suppresses the double pop of the
	// this-over strip when our own undo echoes back.
	pendingKey  string
	pendingUndo bool

	// stash is the last confirmed state, kept while a prediction is
	// unconfirmed so a failure can roll back exactly to it.
	stash *confirmedState

	match         *Match
	lastErr       error
	inningsResult *InningsCompleteEvent
	matchResult   *MatchCompleteEvent
}

type confirmedState struct {
	innings   Innings
	actors    Actors
	overBalls []OverBall
}

type coordRequest struct {
	kind string

	role     Role
	playerID string

	delivery Delivery

	event string
	data  json.RawMessage

	result *submitOutcome

	seedInnings *Innings
	seedMatch   *Match

	errReply  chan error
	viewReply chan View
}

const (
	reqSelect   = "SELECT"
	reqSubmit   = "SUBMIT"
	reqUndo     = "UNDO"
	reqEvent    = "EVENT"
	reqResult   = "RESULT"
	reqSeed     = "SEED"
	reqSnapshot = "SNAPSHOT"
	reqClear    = "CLEAR"
)

// submitOutcome is the normalized result of either submission channel.
type submitOutcome struct {
	key      string
	undo     bool
	err      error
	delivery Delivery

	innings  *Innings        // REST: full snapshot
	summary  *InningsSummary // socket ack: reduced summary
	next     NextBatsmen
	overDone bool
}

// NewCoordinator starts a scoring session. Close must be called on
// teardown to detach the event handlers.
func NewCoordinator(opts CoordinatorOptions) *Coordinator {
	c := &Coordinator{
		opts:     opts,
		matchID:  opts.MatchID,
		requests: make(chan coordRequest, 64),
		done:     make(chan struct{}),
		phase:    PhaseAwaitingActors,
	}
	if c.opts.RequestTimeout <= 0 {
		c.opts.RequestTimeout = 10 * time.Second
	}
	if rt := opts.Realtime; rt != nil {
		for _, ev := range []string{
			EventBallUpdate, EventStrikeRotate, EventOverComplete,
			EventWicketFallen, EventInningsComplete, EventMatchComplete,
			EventUndoBall, EventLiveScoreData,
		} {
			ev := ev
			c.subs = append(c.subs, rt.Subscribe(ev, func(data json.RawMessage) {
				c.post(coordRequest{kind: reqEvent, event: ev, data: data})
			}))
		}
		if err := rt.JoinRoom(c.roomRef()); err != nil {
			log.Printf("Coordinator: join room for match %s: %v", c.matchID, err)
		}
	}
	go c.run()
	return c
}

func (c *Coordinator) roomRef() RoomRef {
	if c.opts.RoomID != "" {
		return RoomRef{RoomID: c.opts.RoomID, MatchID: c.matchID}
	}
	return RoomRef{MatchID: c.matchID}
}

// post enqueues a request unless the coordinator is torn down. Late
// responses and broadcasts after Close land here and are dropped. The
// read lock pins the closed flag for the duration of the enqueue, so a
// request accepted here is either handled by the run loop or failed by
// its final drain, never stranded.
func (c *Coordinator) post(req coordRequest) bool {
	c.closeMu.RLock()
	defer c.closeMu.RUnlock()
	if c.closed {
		return false
	}
	c.requests <- req
	return true
}

func (c *Coordinator) run() {
	for {
		select {
		case <-c.done:
			c.drain()
			return
		case req := <-c.requests:
			c.handle(req)
		}
	}
}

// drain fails whatever was enqueued before Close won the race. Nothing
// new can arrive: the closed flag was set before done was closed.
func (c *Coordinator) drain() {
	for {
		select {
		case req := <-c.requests:
			if req.errReply != nil {
				req.errReply <- ErrCoordinatorClosed
			}
			if req.viewReply != nil {
				req.viewReply <- View{Phase: PhaseMatchComplete}
			}
		default:
			return
		}
	}
}

// Close detaches every event handler, leaves the room and stops the
// run loop. An in-flight submission is abandoned: its response finds
// the coordinator closed and mutates nothing.
func (c *Coordinator) Close() {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return
	}
	c.closed = true
	c.closeMu.Unlock()

	for _, s := range c.subs {
		s.Cancel()
	}
	c.subs = nil
	if rt := c.opts.Realtime; rt != nil {
		if err := rt.LeaveRoom(c.roomRef()); err != nil {
			log.Printf("Coordinator: leave room for match %s: %v", c.matchID, err)
		}
	}
	close(c.done)
}

// Seed loads the live innings and the match rosters over REST and
// installs them as the confirmed baseline. Call once when entering
// the scoring view.
func (c *Coordinator) Seed(ctx context.Context) error {
	live, err := c.opts.API.Live(ctx, c.matchID)
	if err != nil {
		return err
	}
	in := live.Innings()
	m, err := c.opts.API.Match(ctx, c.matchID)
	if err != nil {
		return err
	}
	reply := make(chan error, 1)
	if !c.post(coordRequest{kind: reqSeed, seedInnings: &in, seedMatch: m, errReply: reply}) {
		return ErrCoordinatorClosed
	}
	return <-reply
}

// SelectActor sets one on-field role explicitly, as at innings start,
// after an over (new bowler) or after a wicket (new batter).
func (c *Coordinator) SelectActor(role Role, playerID string) error {
	reply := make(chan error, 1)
	if !c.post(coordRequest{kind: reqSelect, role: role, playerID: playerID, errReply: reply}) {
		return ErrCoordinatorClosed
	}
	return <-reply
}

// Record submits one delivery. A nil return means the delivery was
// accepted, an optimistic prediction is rendered and the submission is
// in flight; the outcome arrives through OnChange. Gate failures
// (actors incomplete, another submission in flight, terminal innings,
// invalid payload) are returned synchronously and change nothing.
func (c *Coordinator) Record(d Delivery) error {
	reply := make(chan error, 1)
	if !c.post(coordRequest{kind: reqSubmit, delivery: d, errReply: reply}) {
		return ErrCoordinatorClosed
	}
	return <-reply
}

// Undo submits an undo-last-delivery command. The server decides what
// the last delivery is; no local state besides the newest this-over
// display item changes until the authoritative revert arrives.
func (c *Coordinator) Undo() error {
	reply := make(chan error, 1)
	if !c.post(coordRequest{kind: reqUndo, errReply: reply}) {
		return ErrCoordinatorClosed
	}
	return <-reply
}

// Snapshot returns the current view synchronously.
func (c *Coordinator) Snapshot() View {
	reply := make(chan View, 1)
	if !c.post(coordRequest{kind: reqSnapshot, viewReply: reply}) {
		return View{Phase: PhaseMatchComplete}
	}
	return <-reply
}

// ClearInnings resets the session for an innings transition: empty
// store, no actors, scoring blocked until reselection.
func (c *Coordinator) ClearInnings() {
	c.post(coordRequest{kind: reqClear})
}

func (c *Coordinator) handle(req coordRequest) {
	switch req.kind {
	case reqSelect:
		req.errReply <- c.handleSelect(req.role, req.playerID)
	case reqSubmit:
		req.errReply <- c.handleSubmit(req.delivery)
	case reqUndo:
		req.errReply <- c.handleUndo()
	case reqResult:
		c.handleResult(req.result)
	case reqEvent:
		c.handleEvent(req.event, req.data)
	case reqSeed:
		c.handleSeed(req.seedInnings, req.seedMatch)
		req.errReply <- nil
	case reqSnapshot:
		req.viewReply <- c.view()
	case reqClear:
		c.store.Clear()
		c.actors = Actors{}
		c.overBalls = nil
		c.watermark = 0
		c.pendingKey = ""
		c.pendingUndo = false
		c.stash = nil
		c.lastErr = nil
		c.inningsResult = nil
		c.phase = PhaseAwaitingActors
		c.notify()
	}
}

func (c *Coordinator) handleSeed(in *Innings, m *Match) {
	c.store.Replace(*in)
	c.watermark = in.TotalBalls
	c.match = m
	if in.Completed {
		c.phase = PhaseInningsComplete
	} else {
		c.recomputePhase()
	}
	c.notify()
}

func (c *Coordinator) handleSelect(role Role, playerID string) error {
	switch c.phase {
	case PhaseInningsComplete:
		return ErrInningsComplete
	case PhaseMatchComplete:
		return ErrMatchComplete
	}
	next, err := c.actors.WithRole(role, playerID)
	if err != nil {
		return err
	}
	if err := c.checkMembership(role, playerID); err != nil {
		return err
	}
	c.actors = next
	if c.phase != PhaseSubmitting {
		c.recomputePhase()
	}
	c.notify()
	return nil
}

// checkMembership verifies team membership against the roster when it
// is known: batters bat for the batting side, the bowler bowls for
// the fielding side.
func (c *Coordinator) checkMembership(role Role, playerID string) error {
	if c.match == nil {
		return nil
	}
	batting, fielding := c.match.Rosters(c.store.Current().BattingTeam)
	if role == RoleBowler {
		if !fielding.HasPlayer(playerID) {
			return fmt.Errorf("player %s is not on the fielding side %s", playerID, fielding.Name)
		}
		return nil
	}
	if !batting.HasPlayer(playerID) {
		return fmt.Errorf("player %s is not on the batting side %s", playerID, batting.Name)
	}
	return nil
}

func (c *Coordinator) handleSubmit(d Delivery) error {
	switch c.phase {
	case PhaseInningsComplete:
		return ErrInningsComplete
	case PhaseMatchComplete:
		return ErrMatchComplete
	case PhaseSubmitting:
		return ErrSubmissionInFlight
	}
	if !c.actors.Complete() {
		c.phase = PhaseAwaitingActors
		c.notify()
		return ErrActorsIncomplete
	}

	d.MatchID = c.matchID
	d.StrikerID = c.actors.Striker
	d.NonStrikerID = c.actors.NonStriker
	d.BowlerID = c.actors.Bowler
	if err := ValidateDelivery(&d); err != nil {
		return err
	}

	c.stash = &confirmedState{
		innings:   c.store.Current(),
		actors:    c.actors,
		overBalls: append([]OverBall(nil), c.overBalls...),
	}
	d.ClientKey = uuid.NewString()
	c.pendingKey = d.ClientKey
	c.lastErr = nil

	// Optimistic prediction: best-effort totals plus the rotation
	// rules. Rendered immediately, replaced by whichever
	// authoritative update arrives first.
	predicted := predictInnings(c.store.Current(), d)
	rot := RotateOnDelivery(c.actors, d, predicted.TotalBalls)
	c.store.Replace(predicted)
	c.actors = rot.Actors
	if rot.OverCompleted {
		c.overBalls = nil
	} else {
		c.overBalls = append(c.overBalls, OverBall{Label: d.BallLabel(), Outcome: d.Outcome, Runs: d.Runs})
	}
	c.phase = PhaseSubmitting
	c.notify()

	go c.submit(d)
	return nil
}

func (c *Coordinator) submit(d Delivery) {
	out := &submitOutcome{key: d.ClientKey, delivery: d}
	if c.opts.ScoreOverSocket && c.opts.Realtime != nil {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.RequestTimeout)
		defer cancel()
		raw, err := c.opts.Realtime.EmitWithAck(ctx, EventRecordBall, d)
		if err != nil {
			out.err = err
		} else {
			var ack RecordBallAck
			if err := json.Unmarshal(raw, &ack); err != nil {
				out.err = err
			} else if !ack.Success || ack.Data == nil {
				out.err = &APIError{Status: 400, Message: ack.Error}
			} else {
				out.summary = &ack.Data.Innings
				out.next = ack.Data.NextBatsmen
				out.overDone = ack.Data.OverJustCompleted
			}
		}
	} else {
		res, err := c.opts.API.RecordBall(context.Background(), d)
		if err != nil {
			out.err = err
		} else {
			out.innings = &res.Innings
		}
	}
	c.post(coordRequest{kind: reqResult, result: out})
}

func (c *Coordinator) handleUndo() error {
	switch c.phase {
	case PhaseInningsComplete:
		return ErrInningsComplete
	case PhaseMatchComplete:
		return ErrMatchComplete
	case PhaseSubmitting:
		return ErrSubmissionInFlight
	}
	in := c.store.Current()
	if in.Empty() {
		return ErrNothingToUndo
	}

	c.stash = &confirmedState{
		innings:   in,
		actors:    c.actors,
		overBalls: append([]OverBall(nil), c.overBalls...),
	}
	// The only optimistic part of an undo: pop the newest this-over
	// item. Totals and actors wait for the authoritative revert.
	if n := len(c.overBalls); n > 0 {
		c.overBalls = c.overBalls[:n-1]
	}
	c.pendingKey = uuid.NewString()
	c.pendingUndo = true
	c.lastErr = nil
	c.phase = PhaseSubmitting
	c.notify()

	key := c.pendingKey
	go func() {
		out := &submitOutcome{key: key, undo: true}
		in, err := c.opts.API.UndoBall(context.Background(), c.matchID)
		if err != nil {
			out.err = err
		} else {
			out.innings = in
		}
		c.post(coordRequest{kind: reqResult, result: out})
	}()
	return nil
}

func (c *Coordinator) handleResult(out *submitOutcome) {
	superseded := out.key != c.pendingKey
	if out.err != nil {
		if superseded {
			// A broadcast already reconciled this delivery; the late
			// failure is about a response that no longer matters.
			log.Printf("Coordinator: ignoring superseded submission error for match %s: %v", c.matchID, out.err)
			return
		}
		// Roll back exactly to the last confirmed snapshot.
		if c.stash != nil {
			c.store.Replace(c.stash.innings)
			c.actors = c.stash.actors
			c.overBalls = c.stash.overBalls
			c.stash = nil
		}
		c.pendingKey = ""
		c.pendingUndo = c.pendingUndo && !out.undo
		c.lastErr = out.err
		c.recomputePhase()
		c.notify()
		return
	}

	if !superseded {
		c.pendingKey = ""
		c.stash = nil
	}

	switch {
	case out.undo:
		c.applyUndoResponse(out)
	case out.innings != nil:
		c.applyRecordResponse(out, superseded)
	case out.summary != nil:
		c.applyRecordAck(out, superseded)
	}
	c.notify()
}

// applyRecordResponse reconciles a REST record response: the server's
// full innings snapshot plus a rotation recomputed from confirmed
// totals. Idempotent against the broadcast echo of the same delivery.
func (c *Coordinator) applyRecordResponse(out *submitOutcome, superseded bool) {
	in := *out.innings
	if in.TotalBalls < c.watermark && !in.Completed {
		// A later broadcast already moved the state past this
		// response; staleness is discarded silently.
		c.recomputePhase()
		return
	}
	c.store.Replace(in)
	c.watermark = in.TotalBalls

	if !superseded {
		// Recompute the rotation from the actors the delivery was
		// submitted with and the confirmed ball count. When the
		// prediction was right this lands on the same state.
		c.applyConfirmedRotation(out.delivery, in.TotalBalls)
	}
	c.finishDelivery(in.Completed)
}

// applyConfirmedRotation rebuilds the actor state from the last
// confirmed actors and the server-confirmed ball count.
func (c *Coordinator) applyConfirmedRotation(d Delivery, ballsAfter int) {
	prior := Actors{Striker: d.StrikerID, NonStriker: d.NonStrikerID, Bowler: d.BowlerID}
	rot := RotateOnDelivery(prior, d, ballsAfter)
	c.actors = rot.Actors
	if rot.OverCompleted {
		c.overBalls = nil
	}
}

// applyRecordAck reconciles a socket acknowledgement, which carries
// the reduced summary and the server's authoritative next batters.
func (c *Coordinator) applyRecordAck(out *submitOutcome, superseded bool) {
	balls := out.summary.Balls()
	if balls < c.watermark {
		c.recomputePhase()
		return
	}
	c.store.ApplySummary(*out.summary)
	c.watermark = balls
	if !superseded {
		c.applyNextBatsmen(out.next)
		if out.overDone {
			c.actors.Bowler = ""
			c.overBalls = nil
		}
	}
	c.finishDelivery(out.summary.Completed)
}

func (c *Coordinator) applyUndoResponse(out *submitOutcome) {
	// The revert bypasses the monotonic guard and lowers the
	// watermark: the server said this earlier state is now current.
	in := *out.innings
	in.Completed = false
	c.store.Replace(in)
	c.watermark = in.TotalBalls
	c.inningsResult = nil
	// On-field actors are not guessed locally; the undo_ball
	// broadcast carries the authoritative pair.
	c.recomputePhase()
}

func (c *Coordinator) finishDelivery(inningsCompleted bool) {
	if inningsCompleted {
		c.enterInningsComplete(nil)
		return
	}
	c.recomputePhase()
}

func (c *Coordinator) enterInningsComplete(ev *InningsCompleteEvent) {
	c.phase = PhaseInningsComplete
	c.actors = Actors{}
	c.pendingKey = ""
	c.pendingUndo = false
	if ev != nil {
		c.inningsResult = ev
	}
	in := c.store.Current()
	in.Completed = true
	c.store.Replace(in)
}

func (c *Coordinator) enterMatchComplete(ev *MatchCompleteEvent) {
	c.phase = PhaseMatchComplete
	c.actors = Actors{}
	c.pendingKey = ""
	c.pendingUndo = false
	if ev != nil {
		c.matchResult = ev
	}
}

func (c *Coordinator) terminal() bool {
	return c.phase == PhaseInningsComplete || c.phase == PhaseMatchComplete
}

// recomputePhase maps the non-terminal, non-submitting state to ready
// or awaiting-actors.
func (c *Coordinator) recomputePhase() {
	if c.pendingKey != "" {
		c.phase = PhaseSubmitting
		return
	}
	if c.actors.Complete() {
		c.phase = PhaseReady
	} else {
		c.phase = PhaseAwaitingActors
	}
}

func (c *Coordinator) handleEvent(event string, data json.RawMessage) {
	switch event {
	case EventBallUpdate:
		var p BallUpdate
		if err := json.Unmarshal(data, &p); err != nil {
			log.Printf("Coordinator: bad %s payload: %v", event, err)
			return
		}
		c.applyBallUpdate(&p)
	case EventStrikeRotate:
		var p StrikeRotate
		if err := json.Unmarshal(data, &p); err != nil {
			log.Printf("Coordinator: bad %s payload: %v", event, err)
			return
		}
		c.applyNextBatsmen(NextBatsmen{Striker: p.NewStriker, NonStriker: p.NewNonStriker})
		c.notify()
	case EventOverComplete:
		var p OverComplete
		if err := json.Unmarshal(data, &p); err != nil {
			log.Printf("Coordinator: bad %s payload: %v", event, err)
			return
		}
		c.applyNextBatsmen(NextBatsmen{Striker: p.NextStriker, NonStriker: p.NextNonStriker})
		c.actors.Bowler = ""
		c.overBalls = nil
		if !c.terminal() {
			c.recomputePhase()
		}
		c.notify()
	case EventWicketFallen:
		var p WicketFallen
		if err := json.Unmarshal(data, &p); err != nil {
			log.Printf("Coordinator: bad %s payload: %v", event, err)
			return
		}
		in := c.store.Current()
		in.TotalWickets = p.WicketNumber
		in.TotalRuns = p.Score
		c.store.Replace(in)
		if p.DismissedPlayer.Player != nil {
			c.actors = c.actors.clearPlayer(*p.DismissedPlayer.Player)
		}
		c.applyNextBatsmen(p.NextBatsmen)
		if !c.terminal() {
			c.recomputePhase()
		}
		c.notify()
	case EventInningsComplete:
		var p InningsCompleteEvent
		if err := json.Unmarshal(data, &p); err != nil {
			log.Printf("Coordinator: bad %s payload: %v", event, err)
			return
		}
		in := c.store.Current()
		in.TotalRuns = p.TotalRuns
		in.TotalWickets = p.TotalWickets
		in.TotalBalls = ParseOvers(p.Overs)
		if p.Target != nil {
			in.Target = *p.Target
		}
		c.store.Replace(in)
		c.watermark = in.TotalBalls
		c.enterInningsComplete(&p)
		c.notify()
	case EventMatchComplete:
		var p MatchCompleteEvent
		if err := json.Unmarshal(data, &p); err != nil {
			log.Printf("Coordinator: bad %s payload: %v", event, err)
			return
		}
		c.enterMatchComplete(&p)
		c.notify()
	case EventUndoBall:
		var p UndoBall
		if err := json.Unmarshal(data, &p); err != nil {
			log.Printf("Coordinator: bad %s payload: %v", event, err)
			return
		}
		c.applyUndoBroadcast(&p)
	case EventLiveScoreData:
		var p LiveInnings
		if err := json.Unmarshal(data, &p); err != nil {
			log.Printf("Coordinator: bad %s payload: %v", event, err)
			return
		}
		in := p.Innings()
		if in.TotalBalls < c.watermark {
			return
		}
		c.store.Replace(in)
		c.watermark = in.TotalBalls
		c.notify()
	}
}

// applyBallUpdate is the peer-broadcast reconciliation path. The
// snapshot is authoritative and replaces any optimistic prediction
// outright, including the one for our own in-flight delivery when the
// echo outruns the direct response.
func (c *Coordinator) applyBallUpdate(p *BallUpdate) {
	balls := p.Innings.Balls()
	isEcho := p.ClientKey != "" && p.ClientKey == c.pendingKey
	if !isEcho && balls < c.watermark {
		// Out-of-order delivery from the transport; older than what
		// we already have. Dropped, never surfaced.
		return
	}

	c.store.ApplySummary(p.Innings)
	c.watermark = balls
	c.pendingUndo = false
	c.applyNextBatsmen(p.NextBatsmen)

	if isEcho {
		// Our own delivery came back as a broadcast before (or
		// instead of) the direct response. The submission is
		// confirmed; the late response becomes a no-op.
		c.pendingKey = ""
		c.stash = nil
	} else {
		// Peer delivery: append its ball to the this-over strip. If
		// our own submission is still in flight the broadcast wins
		// over the prediction, and our response reconciles again
		// idempotently when it lands.
		c.appendPeerBall(p.Event)
	}

	if p.OverJustCompleted {
		c.actors.Bowler = ""
		c.overBalls = nil
	}

	if p.InningsCompleted || p.Innings.Completed {
		c.enterInningsComplete(nil)
	} else {
		c.recomputePhase()
	}
	c.notify()
}

func (c *Coordinator) appendPeerBall(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var ev struct {
		Outcome Outcome `json:"outcome"`
		Runs    int     `json:"runs"`
	}
	if err := json.Unmarshal(raw, &ev); err != nil || !ev.Outcome.Known() {
		return
	}
	d := Delivery{Outcome: ev.Outcome, Runs: ev.Runs}
	c.overBalls = append(c.overBalls, OverBall{Label: d.BallLabel(), Outcome: ev.Outcome, Runs: ev.Runs})
}

func (c *Coordinator) applyUndoBroadcast(p *UndoBall) {
	// Reverts bypass the staleness guard and move the watermark down.
	c.store.ApplySummary(p.Innings)
	in := c.store.Current()
	in.Completed = false
	c.store.Replace(in)
	c.watermark = p.Innings.Balls()
	c.inningsResult = nil
	c.applyNextBatsmen(p.NextBatsmen)
	if c.pendingUndo {
		// We initiated this undo and already popped the display item.
		c.pendingUndo = false
	} else if n := len(c.overBalls); n > 0 {
		c.overBalls = c.overBalls[:n-1]
	}
	if c.phase != PhaseMatchComplete {
		c.recomputePhase()
	}
	c.notify()
}

// applyNextBatsmen installs the server's batter assignment. Nil fields
// leave the corresponding role untouched.
func (c *Coordinator) applyNextBatsmen(next NextBatsmen) {
	if next.Striker != nil {
		c.actors.Striker = *next.Striker
	}
	if next.NonStriker != nil {
		c.actors.NonStriker = *next.NonStriker
	}
}

// predictInnings is the best-effort local increment of the innings
// totals for one delivery. Per-player lines are left untouched; the
// server's snapshot refreshes them on confirmation.
func predictInnings(in Innings, d Delivery) Innings {
	in.TotalRuns += d.TeamRuns()
	switch d.Outcome {
	case OutcomeWide:
		in.Extras.Wides += d.ExtraRuns
		in.Extras.Total += d.ExtraRuns
	case OutcomeNoBall:
		in.Extras.NoBalls += d.ExtraRuns
		in.Extras.Total += d.ExtraRuns
	case OutcomeBye:
		in.Extras.Byes += d.Runs
		in.Extras.Total += d.Runs
	case OutcomeLegBye:
		in.Extras.LegByes += d.Runs
		in.Extras.Total += d.Runs
	}
	if d.Outcome.Legal() {
		in.TotalBalls++
	}
	if (d.Wicket || d.Outcome == OutcomeWicket) && in.TotalWickets < 10 {
		in.TotalWickets++
	}
	return in
}

func (c *Coordinator) view() View {
	in := c.store.Current()
	v := View{
		Phase:         c.phase,
		Innings:       in,
		Actors:        c.actors,
		Missing:       c.actors.Missing(),
		OverBalls:     append([]OverBall(nil), c.overBalls...),
		InningsResult: c.inningsResult,
		MatchResult:   c.matchResult,
		Err:           c.lastErr,
	}
	if in.Target > 0 {
		v.RunsNeeded = in.Target - in.TotalRuns
		if v.RunsNeeded < 0 {
			v.RunsNeeded = 0
		}
	}
	return v
}

func (c *Coordinator) notify() {
	if c.opts.OnChange != nil {
		c.opts.OnChange(c.view())
	}
}
