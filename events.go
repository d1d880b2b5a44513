package filepicker

import "time"

// EventCode is a name for a lifecycle event on a pick operation
type EventCode int

const (
	// Opened is emitted when an operation is registered and the picker
	// launched
	Opened EventCode = iota

	// ResultReceived is emitted when the global channel delivers a result
	// matching a live operation
	ResultReceived

	// ResultDiscarded is emitted when a result matched a live operation but
	// carried a non-success status or an empty payload
	ResultDiscarded

	// ResolveStarted is emitted when payload resolution begins
	ResolveStarted

	// Delivered is emitted after the operation's callback was invoked
	Delivered

	// Cancelled is emitted when a caller withdraws an operation
	Cancelled

	// Expired is emitted when an operation outlives the registry TTL
	Expired

	// SaveComposed is emitted when a save destination was composed
	SaveComposed
)

// Events are human readable names for lifecycle events
var Events = map[EventCode]string{
	Opened:          "Opened",
	ResultReceived:  "ResultReceived",
	ResultDiscarded: "ResultDiscarded",
	ResolveStarted:  "ResolveStarted",
	Delivered:       "Delivered",
	Cancelled:       "Cancelled",
	Expired:         "Expired",
	SaveComposed:    "SaveComposed",
}

// Event is the verbose description of one lifecycle event
type Event struct {
	Code      EventCode
	Token     Token
	Message   string
	Timestamp time.Time
}

// Subscriber is a callback that is called when lifecycle events occur
type Subscriber func(event Event)

// Unsubscribe is a function that gets called to unsubscribe from events
type Unsubscribe func()
