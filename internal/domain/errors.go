package domain

import "errors"

var (
	// ErrBankNotFound indicates the question bank for a topic could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrSessionNotFound is returned when no session exists for the given id.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrAlreadyStarted is returned when Start is called on a running session.
	ErrAlreadyStarted = errors.New("quiz session already started")
	// ErrNotInProgress is returned when an in-progress transition is requested
	// from any other phase.
	ErrNotInProgress = errors.New("quiz session not in progress")
	// ErrNotCompleted is returned when Retake is requested before completion.
	ErrNotCompleted = errors.New("quiz session not completed")
	// ErrNoSelection is returned when a user-driven advance carries no selection.
	ErrNoSelection = errors.New("no option selected for current question")
	// ErrUnknownOption is returned when a selection names a key the current
	// question does not offer.
	ErrUnknownOption = errors.New("unknown option key")
	// ErrSyncFailed indicates the backend rejected or never received a result.
	ErrSyncFailed = errors.New("result sync failed")
	// ErrNoCredential means a sync was requested without an authenticated credential.
	ErrNoCredential = errors.New("no credential available")
	// ErrNoPendingResult means no staged entry exists for the quiz id.
	ErrNoPendingResult = errors.New("no pending result staged")
)
