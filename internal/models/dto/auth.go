package dto

import "github.com/hongminglow/squeak-be/internal/models"

type RegisterRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User     models.PublicUser `json:"user"`
	Token    string            `json:"token"`
	Status   int               `json:"status"`
	Message  string            `json:"message"`
	LoggedIn bool              `json:"loggedIn"`
}
