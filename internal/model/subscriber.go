package model

import "time"

// Subscriber is a visitor who opted in on a page. Email is unique per profile.
type Subscriber struct {
	ID        string    `db:"id" json:"id"`
	ProfileID string    `db:"profile_id" json:"profile_id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type CustomDomain struct {
	ID                string    `db:"id" json:"id"`
	UserID            string    `db:"user_id" json:"user_id"`
	Domain            string    `db:"domain" json:"domain"`
	VerificationToken string    `db:"verification_token" json:"verification_token"`
	IsVerified        bool      `db:"is_verified" json:"is_verified"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}
