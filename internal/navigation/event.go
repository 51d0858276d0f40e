package navigation

import "github.com/edgard/shelfbot/internal/catalog"

// Event is an inbound user action. The set of implementations is closed.
type Event interface {
	Name() string
	isEvent()
}

// StartCommand resets the chat to the welcome screen from any state.
type StartCommand struct{}

// ButtonPress is a press on a recognized button.
type ButtonPress struct {
	InteractionID string
	Target        catalog.ScreenID
}

// UnknownButton is a press whose payload names no screen. It never changes
// what the chat shows.
type UnknownButton struct {
	InteractionID string
	Payload       string
}

func (StartCommand) Name() string  { return "start" }
func (ButtonPress) Name() string   { return "button" }
func (UnknownButton) Name() string { return "unknown_button" }

func (StartCommand) isEvent()  {}
func (ButtonPress) isEvent()   {}
func (UnknownButton) isEvent() {}

// PayloadResolver maps button payloads to screens.
type PayloadResolver interface {
	Resolve(payload string) (catalog.ScreenID, bool)
}

// DecodeButton parses a raw button payload once, at the transport boundary.
func DecodeButton(r PayloadResolver, interactionID, payload string) Event {
	target, ok := r.Resolve(payload)
	if !ok {
		return UnknownButton{InteractionID: interactionID, Payload: payload}
	}
	return ButtonPress{InteractionID: interactionID, Target: target}
}
