package events

import "time"

// OperationStart is emitted before one GraphQL operation executes.
type OperationStart struct {
	Query         string
	OperationName string
	Kind          string // query, mutation or subscription
}

// OperationFinish is emitted once the operation's response is assembled.
type OperationFinish struct {
	Query         string
	OperationName string
	Kind          string
	Errors        []error
	Duration      time.Duration
}
