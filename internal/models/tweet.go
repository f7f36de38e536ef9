package models

import "time"

// Tweet is a timeline post stored in MongoDB. LikedBy is the source of
// truth for likes; Likes is the denormalized count kept in the same
// document so both move in a single update.
type Tweet struct {
	ID         string    `json:"id" bson:"_id"`
	AuthorID   string    `json:"author_id" bson:"author_id"`
	AuthorName string    `json:"author_name" bson:"author_name"`
	Content    string    `json:"content" bson:"content"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	Likes      int       `json:"likes" bson:"likes"`
	LikedBy    []string  `json:"liked_by" bson:"liked_by"`
}

// Activity is one entry of the append-only activity log. It exists so a
// timeline can be refreshed by asking "what changed since T" instead of
// rescanning tweets.
type Activity struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	TweetID   string    `json:"tweet_id" bson:"tweet_id"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// CreateTweetRequest defines the request body for posting.
type CreateTweetRequest struct {
	Content string `json:"content" validate:"required,min=1,max=280"`
}
