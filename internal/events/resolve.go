package events

import "time"

// ResolveStart is emitted before a depth's resolver batch is dispatched to
// the host runtime.
type ResolveStart struct {
	Fields []string // "Type.field" per task, in task order
}

// ResolveFinish is emitted after a resolver batch completes.
type ResolveFinish struct {
	Fields   []string
	Errors   []error // per-task errors, nil entries for successes
	Duration time.Duration
}

// SubscriptionEvent is emitted once per subscription stream pull.
type SubscriptionEvent struct {
	Field    string // "Type.field" of the subscription root
	Err      error  // nil for a live value, the stream error otherwise
	End      bool   // true when the pull reported end-of-stream
	Duration time.Duration
}
