package repository

import (
	"context"
	"fmt"

	"biolink/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SettingsRepository interface {
	// Get returns nil, nil when the user never saved settings.
	Get(ctx context.Context, userID string) (*model.PageSettings, error)
	Upsert(ctx context.Context, s model.PageSettings) (*model.PageSettings, error)
}

type settingsRepo struct {
	pool *pgxpool.Pool
}

func NewSettingsRepo(pool *pgxpool.Pool) SettingsRepository {
	return &settingsRepo{pool: pool}
}

const settingsColumns = `user_id, background_type, background_color, gradient_from, gradient_to,
	background_image_url, text_color, font_family, button_style, button_color, button_text_color,
	header_video_url, show_social_icons, hide_branding, redirect_url, redirect_until,
	show_subscriber_form, subscriber_title, subscriber_button, updated_at`

func scanSettings(row pgx.Row) (*model.PageSettings, error) {
	var s model.PageSettings
	err := row.Scan(
		&s.UserID,
		&s.BackgroundType,
		&s.BackgroundColor,
		&s.GradientFrom,
		&s.GradientTo,
		&s.BackgroundImageURL,
		&s.TextColor,
		&s.FontFamily,
		&s.ButtonStyle,
		&s.ButtonColor,
		&s.ButtonTextColor,
		&s.HeaderVideoURL,
		&s.ShowSocialIcons,
		&s.HideBranding,
		&s.RedirectURL,
		&s.RedirectUntil,
		&s.ShowSubscriberForm,
		&s.SubscriberTitle,
		&s.SubscriberButton,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingsRepo) Get(ctx context.Context, userID string) (*model.PageSettings, error) {
	s, err := scanSettings(r.pool.QueryRow(ctx, `SELECT `+settingsColumns+` FROM page_settings WHERE user_id = $1`, userID))
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting settings for user %s: %w", userID, err)
	}
	return s, nil
}

func (r *settingsRepo) Upsert(ctx context.Context, s model.PageSettings) (*model.PageSettings, error) {
	return upsertSettings(ctx, r.pool, s)
}

func upsertSettings(ctx context.Context, db dbtx, s model.PageSettings) (*model.PageSettings, error) {
	saved, err := scanSettings(db.QueryRow(ctx, `
		INSERT INTO page_settings (user_id, background_type, background_color, gradient_from, gradient_to,
			background_image_url, text_color, font_family, button_style, button_color, button_text_color,
			header_video_url, show_social_icons, hide_branding, redirect_url, redirect_until,
			show_subscriber_form, subscriber_title, subscriber_button)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (user_id) DO UPDATE
		SET background_type = EXCLUDED.background_type,
			background_color = EXCLUDED.background_color,
			gradient_from = EXCLUDED.gradient_from,
			gradient_to = EXCLUDED.gradient_to,
			background_image_url = EXCLUDED.background_image_url,
			text_color = EXCLUDED.text_color,
			font_family = EXCLUDED.font_family,
			button_style = EXCLUDED.button_style,
			button_color = EXCLUDED.button_color,
			button_text_color = EXCLUDED.button_text_color,
			header_video_url = EXCLUDED.header_video_url,
			show_social_icons = EXCLUDED.show_social_icons,
			hide_branding = EXCLUDED.hide_branding,
			redirect_url = EXCLUDED.redirect_url,
			redirect_until = EXCLUDED.redirect_until,
			show_subscriber_form = EXCLUDED.show_subscriber_form,
			subscriber_title = EXCLUDED.subscriber_title,
			subscriber_button = EXCLUDED.subscriber_button,
			updated_at = NOW()
		RETURNING `+settingsColumns,
		s.UserID, s.BackgroundType, s.BackgroundColor, s.GradientFrom, s.GradientTo,
		s.BackgroundImageURL, s.TextColor, s.FontFamily, s.ButtonStyle, s.ButtonColor, s.ButtonTextColor,
		s.HeaderVideoURL, s.ShowSocialIcons, s.HideBranding, s.RedirectURL, s.RedirectUntil,
		s.ShowSubscriberForm, s.SubscriberTitle, s.SubscriberButton,
	))
	if err != nil {
		return nil, fmt.Errorf("upserting settings for user %s: %w", s.UserID, err)
	}
	return saved, nil
}
