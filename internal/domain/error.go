package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrForbidden           = errors.New("access denied")
	ErrJobTerminal         = errors.New("job already reached a terminal status")
	ErrModelDisabled       = errors.New("model is not enabled for this capability")
	ErrModelsNotDistinct   = errors.New("comparison requires two distinct models")
	ErrQueueDispatch       = errors.New("queue dispatch failed")
	ErrWrongCorrelation   = errors.New("job does not belong to the expected correlation kind")
	ErrInvalidExecContext = errors.New("invalid query execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
