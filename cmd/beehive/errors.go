package main

import (
	"errors"

	"github.com/beehive-swarm/beehive/internal/beename"
	"github.com/beehive-swarm/beehive/internal/inject"
	"github.com/beehive-swarm/beehive/internal/store"
	"github.com/beehive-swarm/beehive/internal/supervisor"
	"github.com/beehive-swarm/beehive/internal/task"
)

// Exit codes, per spec.md §6.
const (
	exitOK                     = 0
	exitGeneral                = 1
	exitAlreadyRunning         = 2
	exitMultiplexerUnavailable = 3
	exitTimeout                = 4
)

// exitCodeFor classifies err into one of the documented exit codes. It is
// deliberately conservative: only the error shapes a command can actually
// produce are special-cased, everything else maps to exitGeneral.
func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}

	var ackErr *supervisor.AckTimeoutError
	if errors.As(err, &ackErr) {
		return exitTimeout
	}

	var transportErr *inject.TransportError
	if errors.As(err, &transportErr) && transportErr.Outcome == inject.OutcomeSessionNotFound {
		return exitMultiplexerUnavailable
	}

	var muxErr *multiplexerUnavailableError
	if errors.As(err, &muxErr) {
		return exitMultiplexerUnavailable
	}

	var runningErr *alreadyRunningError
	if errors.As(err, &runningErr) {
		return exitAlreadyRunning
	}

	var notRunningErr *sessionNotRunningError
	if errors.As(err, &notRunningErr) {
		return exitAlreadyRunning
	}

	var nameErr *beename.InvalidNameError
	if errors.As(err, &nameErr) {
		return exitGeneral
	}

	var notFound *store.NotFoundError
	if errors.As(err, &notFound) {
		return exitGeneral
	}

	var taskNotFound *task.NotFoundError
	if errors.As(err, &taskNotFound) {
		return exitGeneral
	}

	return exitGeneral
}
