package model

import "time"

/*

Post is a classified ad published on the board

Id: primary key, use to identify a post
CreatedAt: time when entity is created
UpdatedAt: time when the post is last edited, refreshed on every mutation

UserID:
User: the post owner, "belongs-to" relation. Only the owner may update
      or delete the post.

ImageUrl: reference to the uploaded image, stored by the file store
Title: plain text title
Text: rich text body (sanitized HTML)
CategoryID:
Category: reference data the post is filed under, "belongs-to" relation

LikedByUsers: users who liked this post, "many-to-many" relation through
              the post_likes join table, no duplicates
Responses: responses submitted against this post, "has-many" relation

*/

type Post struct {
	Id           string `gorm:"primaryKey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	UserID       string `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	User         User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ImageUrl     string
	Title        string
	Text         string
	CategoryID   string   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Category     Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	LikedByUsers []*User  `json:"liked_by_users" gorm:"many2many:post_likes;"`
	Responses    []*Response
}

// Preview is the shortened body used on the post list page.
func (p *Post) Preview() string {
	if len(p.Text) <= 124 {
		return p.Text
	}
	return p.Text[:124] + "..."
}
