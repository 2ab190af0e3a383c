package model

import "time"

/*

User is a registered account on the board

Id: primary key, use to identify a user
CreatedAt: time when entity is created
UpdatedAt: time when profile is last edited

Username: unique login name
Email: address activation codes and notifications are sent to
FirstName, LastName: optional profile data
PasswordHash: bcrypt hash of the password, never the plain text
Active: false until the user submits a valid one-time code

LikedPosts: posts this user liked, "many-to-many" relation

*/

type User struct {
	Id           string `gorm:"primaryKey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Username     string `gorm:"uniqueIndex"`
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Active       bool
	LikedPosts   []*Post `json:"liked_posts" gorm:"many2many:post_likes;"`
}
