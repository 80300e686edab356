package dto

// UpdateUserRequest carries the mutable user fields. UserID is the legacy
// ownership claim; it is only compared against the authenticated caller.
type UpdateUserRequest struct {
	UserID     string  `json:"userId"`
	Name       *string `json:"name"`
	Username   *string `json:"username"`
	Email      *string `json:"email"`
	Password   *string `json:"password"`
	Phone      *string `json:"phone"`
	ProfilePic *string `json:"profilePic"`
}

type DeleteUserRequest struct {
	UserID string `json:"userId"`
}

type DeleteUserResponse struct {
	Message      string `json:"message"`
	PostsDeleted int64  `json:"postsDeleted"`
}

type CreatePostRequest struct {
	Title    string `json:"title"`
	Desc     string `json:"desc"`
	Username string `json:"username"`
}

type DeletePostRequest struct {
	Username string `json:"username"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
