package model

import "time"

type Link struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Title         string    `db:"title" json:"title"`
	URL           string    `db:"url" json:"url"`
	Description   string    `db:"description" json:"description"`
	ThumbnailURL  string    `db:"thumbnail_url" json:"thumbnail_url"`
	CoverURL      string    `db:"cover_url" json:"cover_url"`
	Position      int       `db:"position" json:"position"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	IsFeatured    bool      `db:"is_featured" json:"is_featured"`
	ClickCount    int64     `db:"click_count" json:"click_count"`
	SectionID     *string   `db:"section_id" json:"section_id"`
	RequiresEmail bool      `db:"requires_email" json:"requires_email"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type LinkSection struct {
	ID        string    `db:"id" json:"id"`
	ProfileID string    `db:"profile_id" json:"profile_id"`
	Title     string    `db:"title" json:"title"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type SocialLink struct {
	ID        string    `db:"id" json:"id"`
	ProfileID string    `db:"profile_id" json:"profile_id"`
	Platform  string    `db:"platform" json:"platform"`
	URL       string    `db:"url" json:"url"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
