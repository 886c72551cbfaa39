package events

import "time"

// RequestStart is emitted when the HTTP endpoint accepts a request.
// Context carries the request ID.
type RequestStart struct {
	Method string
	Path   string
}

// RequestFinish is emitted once the response status is known.
type RequestFinish struct {
	Method   string
	Path     string
	Status   int
	Duration time.Duration
}
