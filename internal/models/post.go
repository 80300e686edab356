package models

import "time"

// Post is a squeak. Username is a soft reference to User.Username.
type Post struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"desc"`
	Username    string    `json:"username"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
