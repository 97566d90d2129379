package entity

import "github.com/google/uuid"

// Category represents a category for data transfer between layers.
type Category struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
