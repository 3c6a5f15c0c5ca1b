package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

type ReactionKind string

const (
	ReactionFire   ReactionKind = "fire"
	ReactionRocket ReactionKind = "rocket"
	ReactionBulb   ReactionKind = "bulb"
)

type Reactions struct {
	Fire   []string `bson:"fire" json:"fire"`
	Rocket []string `bson:"rocket" json:"rocket"`
	Bulb   []string `bson:"bulb" json:"bulb"`
}

// Count returns the total number of reactions of every kind.
func (r Reactions) Count() int {
	return len(r.Fire) + len(r.Rocket) + len(r.Bulb)
}

// Of returns the user IDs that reacted with kind.
func (r Reactions) Of(kind ReactionKind) []string {
	switch kind {
	case ReactionFire:
		return r.Fire
	case ReactionRocket:
		return r.Rocket
	case ReactionBulb:
		return r.Bulb
	}
	return nil
}

// CommunityPost lives in the document store. Scores are never persisted.
type CommunityPost struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	AuthorID  string              `bson:"authorId" json:"author_id"`
	House     House               `bson:"house" json:"house"`
	Title     string              `bson:"title" json:"title"`
	Content   string              `bson:"content" json:"content"`
	ImageURL  *string             `bson:"imageUrl,omitempty" json:"image_url,omitempty"`
	Upvotes   []string            `bson:"upvotes" json:"upvotes"`
	Downvotes []string            `bson:"downvotes" json:"downvotes"`
	Reactions Reactions           `bson:"reactions" json:"reactions"`
	LikedBy   []string            `bson:"likedBy" json:"-"` // voters whose first upvote already paid the author
	Views     int                 `bson:"views" json:"views"`
	SharedLog *primitive.ObjectID `bson:"sharedLog,omitempty" json:"shared_log,omitempty"`
	CreatedAt time.Time           `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updated_at"`
}

// NetVotes is upvotes minus downvotes.
func (p *CommunityPost) NetVotes() int {
	return len(p.Upvotes) - len(p.Downvotes)
}

type PostComment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID    primitive.ObjectID `bson:"postId" json:"post_id"`
	AuthorID  string             `bson:"authorId" json:"author_id"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
}
