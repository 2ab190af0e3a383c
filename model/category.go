package model

/*

Category is reference data a post is filed under, managed by admins

Id: primary key
Name: display name

*/

type Category struct {
	Id   string `gorm:"primaryKey"`
	Name string
}
