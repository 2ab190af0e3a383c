package model

import "time"

/*

PostLike is a "many-to-many" relation of user liking a post

UserID: user id
PostID: post id
CreatedAt: time when relation is created

The composite primary key keeps the relation duplicate free, so the
like toggle can flip a single row instead of scanning the whole set.

*/

type PostLike struct {
	UserID    string `gorm:"primaryKey"`
	PostID    string `gorm:"primaryKey"`
	CreatedAt time.Time
}
