package database

import "time"

// Transition statuses
const (
	StatusCompleted  = "completed"
	StatusIncomplete = "incomplete"
	StatusDegraded   = "degraded" // drawn, but the interaction was not acknowledged
)

// Transition is one journal row: a screen change in a chat and how it went.
type Transition struct {
	ID           int64     `db:"id"`
	TransitionID string    `db:"transition_id"`
	ChatID       int64     `db:"chat_id"`
	Event        string    `db:"event"`
	Screen       string    `db:"screen"`
	Messages     int       `db:"messages"`
	Deleted      int       `db:"deleted"`
	Status       string    `db:"status"`
	Error        string    `db:"error"`
	DurationMS   int64     `db:"duration_ms"`
	CreatedAt    time.Time `db:"created_at"`
}

// ScreenVisits is the number of transitions into a screen.
type ScreenVisits struct {
	Screen string `db:"screen"`
	Visits int    `db:"visits"`
	Chats  int    `db:"chats"`
}
