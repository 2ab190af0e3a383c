package model

import "time"

/*

Response is a reply a user leaves on another user's post

Id: primary key
CreatedAt: time when entity is created

UserID:
User: the responder, "belongs-to" relation. The responder may edit the
      response, the POST owner (not the responder) may delete it.
PostID:
Post: the post this response was left on, "belongs-to" relation

Text: free-text body
ReadAt: set the first time the post owner sees the response in the
        self-service view, nil until then

*/

type Response struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	UserID    string `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	User      User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	PostID    string `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Post      Post   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Text      string
	ReadAt    *time.Time
}
