// Package mongostore implements the store interfaces on the document
// database. Queries mirror the collection layout the rest of the backend
// writes: users embed their session list, friends hold the pairwise relation.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flyingbingbong/jubsok-backend/internal/store"
)

const connectTimeout = 5 * time.Second

// Connect dials the database and verifies the connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// Users implements store.UserStore on the users collection.
type Users struct {
	col *mongo.Collection
}

// NewUsers binds the users collection.
func NewUsers(db *mongo.Database) *Users {
	return &Users{col: db.Collection("users")}
}

func (s *Users) FindByID(ctx context.Context, id string) (*store.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Users) FindByProviderID(ctx context.Context, providerID string) (*store.User, error) {
	return s.findOne(ctx, bson.M{"providerId": providerID})
}

func (s *Users) FindByNickname(ctx context.Context, nickname string) (*store.User, error) {
	return s.findOne(ctx, bson.M{"nickname": nickname})
}

func (s *Users) findOne(ctx context.Context, filter bson.M) (*store.User, error) {
	var u store.User
	err := s.col.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (s *Users) TouchSession(ctx context.Context, userID, sessionID string, at time.Time) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": userID, "sessions._id": sessionID},
		bson.M{"$set": bson.M{"lastSeen": at, "sessions.$.lastSeen": at}},
	)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Users) AddSession(ctx context.Context, userID string, sess store.Session) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"sessions": sess}},
	)
	if err != nil {
		return fmt.Errorf("add session: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Users) RemoveSession(ctx context.Context, userID, sessionID string) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"sessions": bson.M{"_id": sessionID}}},
	)
	if err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Friends implements store.FriendStore on the friends collection. Computing
// the active audience needs the users collection as well for the session
// projection.
type Friends struct {
	col   *mongo.Collection
	users *mongo.Collection
}

// NewFriends binds the friends and users collections.
func NewFriends(db *mongo.Database) *Friends {
	return &Friends{col: db.Collection("friends"), users: db.Collection("users")}
}

func (s *Friends) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{
		"users": bson.M{"$all": bson.A{userID, otherID}},
	})
	if err != nil {
		return false, fmt.Errorf("count friend relation: %w", err)
	}
	return n > 0, nil
}

func (s *Friends) ActiveFriendSessionIDs(ctx context.Context, userID string, since time.Time) ([]string, error) {
	friendIDs, err := s.friendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(friendIDs) == 0 {
		return nil, nil
	}

	cur, err := s.users.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": bson.M{"$in": friendIDs}}}},
		{{Key: "$unwind", Value: "$sessions"}},
		{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$sessions"}}},
		{{Key: "$match", Value: bson.M{"lastSeen": bson.M{"$gt": since}}}},
		{{Key: "$project", Value: bson.M{"_id": 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate active sessions: %w", err)
	}
	defer cur.Close(ctx)

	var sessions []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("decode active sessions: %w", err)
	}
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

func (s *Friends) friendIDs(ctx context.Context, userID string) ([]string, error) {
	cur, err := s.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"users": userID}}},
		{{Key: "$unwind", Value: "$users"}},
		{{Key: "$match", Value: bson.M{"users": bson.M{"$ne": userID}}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "friendIds": bson.M{"$addToSet": "$users"}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate friend ids: %w", err)
	}
	defer cur.Close(ctx)

	var groups []struct {
		FriendIDs []string `bson:"friendIds"`
	}
	if err := cur.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("decode friend ids: %w", err)
	}
	if len(groups) == 0 {
		return nil, nil
	}
	return groups[0].FriendIDs, nil
}
