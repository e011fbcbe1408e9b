package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string    `gorm:"primaryKey"       json:"id"`
	Name         string    `gorm:"not null"         json:"name"`
	Email        string    `gorm:"unique;not null"  json:"email"`
	PasswordHash string    `gorm:"not null"         json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type Post struct {
	ID        string    `gorm:"primaryKey"      json:"id"`
	UserID    string    `gorm:"index;not null"  json:"userId"`
	Title     string    `gorm:"not null"        json:"title"`
	Content   string    `gorm:"not null"        json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type Comment struct {
	ID        string    `gorm:"primaryKey"      json:"id"`
	PostID    string    `gorm:"index;not null"  json:"postId"`
	UserID    string    `gorm:"index;not null"  json:"userId"`
	Content   string    `gorm:"not null"        json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
