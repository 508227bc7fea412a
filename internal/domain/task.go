package domain

import "time"

// Task is the domain entity for a to-do item.
// It does not depend on Gin, Postgres or Redis.
type Task struct {
	ID          int64
	UserID      int64
	Title       string
	IsCompleted bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
