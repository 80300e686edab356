package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hongminglow/squeak-be/internal/models"
)

type userDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Name       string             `bson:"name"`
	Username   string             `bson:"username"`
	Email      string             `bson:"email"`
	Password   string             `bson:"password"`
	Phone      string             `bson:"phone,omitempty"`
	ProfilePic string             `bson:"profilePic"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
}

func (d userDocument) model() models.User {
	return models.User{
		ID:         d.ID.Hex(),
		Name:       d.Name,
		Username:   d.Username,
		Email:      d.Email,
		Password:   d.Password,
		Phone:      d.Phone,
		ProfilePic: d.ProfilePic,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

type postDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title,omitempty"`
	Description string             `bson:"desc"`
	Username    string             `bson:"username"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d postDocument) model() models.Post {
	return models.Post{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Username:    d.Username,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
