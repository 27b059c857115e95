package adjustments

import "time"

// Category is a confirmed adjustment category (price adjustment) stored on the server.
type Category struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateCategoryRequest creates a category. ID is optional; a uuid is assigned when empty.
type CreateCategoryRequest struct {
	ID   string `json:"id" validate:"omitempty,max=64"`
	Name string `json:"name" validate:"required,max=200"`
}
