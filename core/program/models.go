package program

import "time"

type Program struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsLive      bool      `json:"is_live"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// Enrollment records a user's enrollment in a program, unique on the pair.
type Enrollment struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	ProgramID int       `json:"program_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}
