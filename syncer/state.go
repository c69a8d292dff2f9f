// Package syncer implements the block-syncer state machine: a
// single-dispatch, no-reentrancy scheduler that issues block requests,
// accepts gossip, and orders block insertion. A failed request is logged
// and the syncer returns to Idle; the request is not retried.
//
// A single actor goroutine drains a channel of closures, one state
// mutation per message, so the allowed-predecessor table is enforced by
// github.com/looplab/fsm rather than a hand-rolled switch of conditionals.
package syncer

import (
	"context"

	"github.com/looplab/fsm"
)

// State names for the syncer's state machine.
const (
	StateStopped    = "Stopped"
	StateStarting   = "Starting"
	StateIdle       = "Idle"
	StateRequesting = "Requesting"
	StateSyncing    = "Syncing"
	StateStopping   = "Stopping"
)

const (
	eventStart      = "start"
	eventBecomeIdle = "becomeIdle"
	eventRequest    = "request"
	eventSync       = "sync"
	eventStop       = "stop"
	eventStopped    = "stopped"
)

// newStateMachine encodes the allowed-predecessor table for each transition:
//
//	Starting    <- Stopped
//	Idle        <- Syncing, Requesting, Starting
//	Requesting  <- Syncing, Idle
//	Syncing     <- Idle, Requesting, Syncing
//	Stopping    <- Idle, Syncing, Requesting
//	Stopped     <- Stopping
func newStateMachine(callbacks fsm.Callbacks) *fsm.FSM {
	return fsm.NewFSM(
		StateStopped,
		fsm.Events{
			{Name: eventStart, Src: []string{StateStopped}, Dst: StateStarting},
			{Name: eventBecomeIdle, Src: []string{StateSyncing, StateRequesting, StateStarting}, Dst: StateIdle},
			{Name: eventRequest, Src: []string{StateSyncing, StateIdle}, Dst: StateRequesting},
			{Name: eventSync, Src: []string{StateIdle, StateRequesting, StateSyncing}, Dst: StateSyncing},
			{Name: eventStop, Src: []string{StateIdle, StateSyncing, StateRequesting}, Dst: StateStopping},
			{Name: eventStopped, Src: []string{StateStopping}, Dst: StateStopped},
		},
		callbacks,
	)
}

// dispatch fires event on the machine. Dispatching a transition that is
// not allowed from the current state is a no-op, not an error:
// fsm.InvalidEventError (wrong source state) is swallowed, and so is
// fsm.NoTransitionError (the event's destination is the current state, as
// with Syncing -> Syncing, in which case no enter callback runs); any other
// error is propagated.
func dispatch(ctx context.Context, m *fsm.FSM, event string, args ...interface{}) error {
	err := m.Event(ctx, event, args...)
	if err == nil {
		return nil
	}
	if _, ok := err.(fsm.InvalidEventError); ok {
		return nil
	}
	if _, ok := err.(fsm.NoTransitionError); ok {
		return nil
	}
	return err
}
