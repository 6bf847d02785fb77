// Package notify carries short-lived user-facing messages from any producer
// to the single on-screen renderer. Bus is the delivery channel; Queue holds
// what is currently visible and expires each entry on its own timer.
package notify

// Variant selects the severity styling of a notification.
type Variant int

const (
	VariantDefault Variant = iota
	VariantDestructive
)

// String returns "default" or "destructive".
func (v Variant) String() string {
	if v == VariantDestructive {
		return "destructive"
	}
	return "default"
}

// Event is a transient user-facing message. Description may be empty.
type Event struct {
	Title       string
	Description string
	Variant     Variant
}

// Message joins title and description the way toasts display them.
func (e Event) Message() string {
	if e.Description == "" {
		return e.Title
	}
	return e.Title + "\n\n" + e.Description
}

// Publisher is the dependency producers receive. Implementations must not
// retain the caller's goroutine beyond delivery.
type Publisher interface {
	Publish(Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Event)

// Publish calls f(e).
func (f PublisherFunc) Publish(e Event) { f(e) }

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(Event) {})
