package model

import "time"

/*

EmailActivationKey is a one-time code mailed to a new user

Id: primary key
Key: the 6 digit code, stored as text exactly as it was mailed
UserID:
User: the account this code activates, "belongs-to" relation
SentAt: time when the code was mailed

A user may hold several keys at once (a resend does not invalidate
earlier codes); any of them activates the account. All keys of a user
are removed once activation succeeds.

*/

type EmailActivationKey struct {
	Id     string `gorm:"primaryKey"`
	Key    string `gorm:"index;size:6"`
	UserID string `gorm:"index;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	User   User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	SentAt time.Time
}
