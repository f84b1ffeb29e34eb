package model

import "time"

const (
	BackgroundSolid    = "solid"
	BackgroundGradient = "gradient"
	BackgroundImage    = "image"

	DefaultFontFamily  = "inter"
	DefaultButtonStyle = "rounded"
)

// PageSettings holds the appearance and behaviour of a public page.
type PageSettings struct {
	UserID             string     `db:"user_id" json:"user_id"`
	BackgroundType     string     `db:"background_type" json:"background_type"`
	BackgroundColor    string     `db:"background_color" json:"background_color"`
	GradientFrom       string     `db:"gradient_from" json:"gradient_from"`
	GradientTo         string     `db:"gradient_to" json:"gradient_to"`
	BackgroundImageURL string     `db:"background_image_url" json:"background_image_url"`
	TextColor          string     `db:"text_color" json:"text_color"`
	FontFamily         string     `db:"font_family" json:"font_family"`
	ButtonStyle        string     `db:"button_style" json:"button_style"`
	ButtonColor        string     `db:"button_color" json:"button_color"`
	ButtonTextColor    string     `db:"button_text_color" json:"button_text_color"`
	HeaderVideoURL     string     `db:"header_video_url" json:"header_video_url"`
	ShowSocialIcons    bool       `db:"show_social_icons" json:"show_social_icons"`
	HideBranding       bool       `db:"hide_branding" json:"hide_branding"`
	RedirectURL        string     `db:"redirect_url" json:"redirect_url"`
	RedirectUntil      *time.Time `db:"redirect_until" json:"redirect_until"`
	ShowSubscriberForm bool       `db:"show_subscriber_form" json:"show_subscriber_form"`
	SubscriberTitle    string     `db:"subscriber_title" json:"subscriber_title"`
	SubscriberButton   string     `db:"subscriber_button" json:"subscriber_button"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// DefaultSettings is used for pages that never saved appearance settings.
func DefaultSettings(userID string) PageSettings {
	return PageSettings{
		UserID:           userID,
		BackgroundType:   BackgroundSolid,
		BackgroundColor:  "#ffffff",
		TextColor:        "#111827",
		FontFamily:       DefaultFontFamily,
		ButtonStyle:      DefaultButtonStyle,
		ButtonColor:      "#111827",
		ButtonTextColor:  "#ffffff",
		ShowSocialIcons:  true,
		SubscriberTitle:  "Join my newsletter",
		SubscriberButton: "Subscribe",
	}
}

// RedirectActive reports whether the page should redirect at now. It is a
// plain timestamp comparison with no stored state.
func (s PageSettings) RedirectActive(now time.Time) bool {
	return s.RedirectURL != "" && s.RedirectUntil != nil && now.Before(*s.RedirectUntil)
}
