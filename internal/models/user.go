package models

import "time"

// User is the stored account record. It carries the password hash and must
// not be serialized to clients; use Public for anything leaving the service.
type User struct {
	ID         string    `json:"-"`
	Name       string    `json:"-"`
	Username   string    `json:"-"`
	Email      string    `json:"-"`
	Password   string    `json:"-"`
	Phone      string    `json:"-"`
	ProfilePic string    `json:"-"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}

// PublicUser is the client-facing projection of a User.
type PublicUser struct {
	ID         string    `json:"_id"`
	Name       string    `json:"name"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	ProfilePic string    `json:"profilePic"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Public drops the password hash.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Name:       u.Name,
		Username:   u.Username,
		Email:      u.Email,
		Phone:      u.Phone,
		ProfilePic: u.ProfilePic,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// PublicUsers projects a slice of records.
func PublicUsers(users []User) []PublicUser {
	out := make([]PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}

// UserUpdate is a partial update. Nil fields are left untouched. Password
// must already be hashed when it reaches a store.
type UserUpdate struct {
	Name       *string
	Username   *string
	Email      *string
	Password   *string
	Phone      *string
	ProfilePic *string
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Username == nil && u.Email == nil &&
		u.Password == nil && u.Phone == nil && u.ProfilePic == nil
}
