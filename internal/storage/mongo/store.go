package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hongminglow/squeak-be/internal/models"
	"github.com/hongminglow/squeak-be/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

const (
	usersCollection = "users"
	postsCollection = "posts"
)

// Store provides MongoDB-backed persistence for users and posts.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	users  *mongo.Collection
	posts  *mongo.Collection
}

// NewStore connects, pings, and ensures the indexes that back uniqueness.
func NewStore(ctx context.Context, uri, database string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client: client,
		db:     db,
		users:  db.Collection(usersCollection),
		posts:  db.Collection(postsCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("uniq_username").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_email").SetUnique(true),
		},
	}
	if _, err := s.users.Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("ensure user indexes: %w", err)
	}

	postIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetName("idx_username"),
	}
	if _, err := s.posts.Indexes().CreateOne(ctx, postIndex); err != nil {
		return fmt.Errorf("ensure post indexes: %w", err)
	}
	return nil
}

// CreateUser inserts a user document.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	now := timestamp()
	doc := userDocument{
		Name:       user.Name,
		Username:   user.Username,
		Email:      user.Email,
		Password:   user.Password,
		Phone:      user.Phone,
		ProfilePic: user.ProfilePic,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	res, err := s.users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.model(), nil
}

// FindUserByID fetches a user by ObjectID hex.
func (s *Store) FindUserByID(ctx context.Context, id string) (models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, storage.ErrNotFound
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

// FindUserByUsername fetches a user by username.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (models.User, error) {
	return s.findUser(ctx, bson.M{"username": username})
}

// FindUserByEmail fetches a user by email address.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

// ListUsers returns every user in insertion order.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	cur, err := s.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	users := make([]models.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.model())
	}
	return users, nil
}

// UpdateUser $sets the non-nil fields of update and returns the new document.
func (s *Store) UpdateUser(ctx context.Context, id string, update models.UserUpdate) (models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, storage.ErrNotFound
	}

	set := bson.M{"updatedAt": timestamp()}
	setIf(set, "name", update.Name)
	setIf(set, "username", update.Username)
	setIf(set, "email", update.Email)
	setIf(set, "password", update.Password)
	setIf(set, "phone", update.Phone)
	setIf(set, "profilePic", update.ProfilePic)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDocument
	err = s.users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.User{}, storage.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return models.User{}, storage.ErrAlreadyExists
	case err != nil:
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	return doc.model(), nil
}

// DeleteUser removes a user document.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return storage.ErrNotFound
	}
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CreatePost inserts a post document.
func (s *Store) CreatePost(ctx context.Context, post models.Post) (models.Post, error) {
	now := timestamp()
	doc := postDocument{
		Title:       post.Title,
		Description: post.Description,
		Username:    post.Username,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	res, err := s.posts.InsertOne(ctx, doc)
	if err != nil {
		return models.Post{}, fmt.Errorf("insert post: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.model(), nil
}

// FindPostByID fetches a post by ObjectID hex.
func (s *Store) FindPostByID(ctx context.Context, id string) (models.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Post{}, storage.ErrNotFound
	}
	var doc postDocument
	err = s.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Post{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Post{}, fmt.Errorf("find post: %w", err)
	}
	return doc.model(), nil
}

// ListPosts returns every post in insertion order.
func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	return s.findPosts(ctx, bson.M{})
}

// ListPostsByUsername returns the posts owned by username.
func (s *Store) ListPostsByUsername(ctx context.Context, username string) ([]models.Post, error) {
	return s.findPosts(ctx, bson.M{"username": username})
}

// DeletePost removes a post document.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return storage.ErrNotFound
	}
	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeletePostsByUsername removes every post owned by username.
func (s *Store) DeletePostsByUsername(ctx context.Context, username string) (int64, error) {
	res, err := s.posts.DeleteMany(ctx, bson.M{"username": username})
	if err != nil {
		return 0, fmt.Errorf("delete posts by username: %w", err)
	}
	return res.DeletedCount, nil
}

// CountPostsByUsername counts the posts owned by username.
func (s *Store) CountPostsByUsername(ctx context.Context, username string) (int64, error) {
	n, err := s.posts.CountDocuments(ctx, bson.M{"username": username})
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// RenamePostsOwner moves posts from one username to another.
func (s *Store) RenamePostsOwner(ctx context.Context, from, to string) (int64, error) {
	update := bson.M{"$set": bson.M{"username": to, "updatedAt": timestamp()}}
	res, err := s.posts.UpdateMany(ctx, bson.M{"username": from}, update)
	if err != nil {
		return 0, fmt.Errorf("rename posts owner: %w", err)
	}
	return res.ModifiedCount, nil
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (models.User, error) {
	var doc userDocument
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, storage.ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return doc.model(), nil
}

func (s *Store) findPosts(ctx context.Context, filter bson.M) ([]models.Post, error) {
	cur, err := s.posts.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	var docs []postDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	posts := make([]models.Post, 0, len(docs))
	for _, d := range docs {
		posts = append(posts, d.model())
	}
	return posts, nil
}

func setIf(set bson.M, key string, value *string) {
	if value != nil {
		set[key] = *value
	}
}

// Mongo keeps millisecond precision; truncate so returned values round-trip.
func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
