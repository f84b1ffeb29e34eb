package service

import (
	"context"
	"strings"
	"time"

	"biolink/internal/auth"
	"biolink/internal/model"
	"biolink/internal/pipeline"
	"biolink/internal/repository"
	"biolink/internal/validation"

	"github.com/rs/zerolog"
)

// SettingsInput patches page settings. Nil fields are unchanged.
type SettingsInput struct {
	BackgroundType     *string    `json:"background_type" validate:"omitnil,oneof=solid gradient image"`
	BackgroundColor    *string    `json:"background_color" validate:"omitnil,hexcolor"`
	GradientFrom       *string    `json:"gradient_from" validate:"omitnil,hexcolor"`
	GradientTo         *string    `json:"gradient_to" validate:"omitnil,hexcolor"`
	BackgroundImageURL *string    `json:"background_image_url" validate:"omitnil,optional_url"`
	TextColor          *string    `json:"text_color" validate:"omitnil,hexcolor"`
	FontFamily         *string    `json:"font_family" validate:"omitnil,oneof=inter roboto poppins montserrat playfair lora mono"`
	ButtonStyle        *string    `json:"button_style" validate:"omitnil,oneof=rounded pill square outline"`
	ButtonColor        *string    `json:"button_color" validate:"omitnil,hexcolor"`
	ButtonTextColor    *string    `json:"button_text_color" validate:"omitnil,hexcolor"`
	HeaderVideoURL     *string    `json:"header_video_url" validate:"omitnil,optional_url"`
	ShowSocialIcons    *bool      `json:"show_social_icons"`
	HideBranding       *bool      `json:"hide_branding"`
	RedirectURL        *string    `json:"redirect_url" validate:"omitnil,optional_url"`
	RedirectUntil      *time.Time `json:"redirect_until"`
	ShowSubscriberForm *bool      `json:"show_subscriber_form"`
	SubscriberTitle    *string    `json:"subscriber_title" validate:"omitnil,max=60"`
	SubscriberButton   *string    `json:"subscriber_button" validate:"omitnil,max=30"`
}

type SettingsService interface {
	Get(ctx context.Context, id auth.Identity) pipeline.Result
	Update(ctx context.Context, id auth.Identity, in *SettingsInput) pipeline.Result
}

type settingsService struct {
	settings repository.SettingsRepository
	p        *pipeline.Pipeline
	logger   zerolog.Logger
}

func NewSettingsService(settings repository.SettingsRepository, p *pipeline.Pipeline, logger zerolog.Logger) SettingsService {
	return &settingsService{
		settings: settings,
		p:        p,
		logger:   logger.With().Str("service", "SettingsService").Logger(),
	}
}

func (s *settingsService) current(ctx context.Context, userID string) (model.PageSettings, error) {
	cur, err := s.settings.Get(ctx, userID)
	if err != nil {
		return model.PageSettings{}, err
	}
	if cur == nil {
		return model.DefaultSettings(userID), nil
	}
	return *cur, nil
}

func (s *settingsService) Get(ctx context.Context, id auth.Identity) pipeline.Result {
	return pipeline.Read(ctx, s.p, id, "settings.get", func(ctx context.Context, id auth.Identity) (any, error) {
		return s.current(ctx, id.UserID)
	})
}

func settingsGate(_ context.Context, _ auth.Identity, f model.FeatureFlags, in *SettingsInput) error {
	bg := deref(in.BackgroundType)
	checks := []struct {
		set     bool
		allowed bool
		msg     string
	}{
		{bg == model.BackgroundGradient, f.CanUseGradients, MsgGradients},
		{bg == model.BackgroundImage, f.CanUseBackgroundImage, MsgBackgroundImage},
		{nonEmpty(in.HeaderVideoURL), f.CanUseVideoHeader, MsgVideoHeader},
		{in.FontFamily != nil && *in.FontFamily != model.DefaultFontFamily, f.CanUseCustomFonts, MsgCustomFonts},
		{in.ButtonStyle != nil && *in.ButtonStyle != model.DefaultButtonStyle, f.CanUseButtonStyles, MsgButtonStyles},
		{isTrue(in.HideBranding), f.CanRemoveBranding, MsgBranding},
		{nonEmpty(in.RedirectURL) || in.RedirectUntil != nil, f.CanScheduleRedirect, MsgRedirect},
		{isTrue(in.ShowSubscriberForm), f.CanCollectSubscribers, MsgSubscribers},
	}
	for _, c := range checks {
		if c.set {
			if err := pipeline.Require(c.allowed, c.msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func normalizeSettings(in *SettingsInput) {
	validation.NormalizeURLPtr(in.BackgroundImageURL)
	validation.NormalizeURLPtr(in.HeaderVideoURL)
	validation.NormalizeURLPtr(in.RedirectURL)
	for _, c := range []*string{in.BackgroundColor, in.GradientFrom, in.GradientTo, in.TextColor, in.ButtonColor, in.ButtonTextColor} {
		if c != nil {
			*c = strings.ToLower(strings.TrimSpace(*c))
		}
	}
}

func (s *settingsService) Update(ctx context.Context, id auth.Identity, in *SettingsInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[SettingsInput]{
		Name:      "settings.update",
		Gate:      settingsGate,
		Normalize: normalizeSettings,
		Mutate: func(ctx context.Context, id auth.Identity, in *SettingsInput) (any, error) {
			cur, err := s.current(ctx, id.UserID)
			if err != nil {
				return nil, err
			}
			apply(&cur, in)
			return s.settings.Upsert(ctx, cur)
		},
		Success: "Appearance saved.",
	}, in)
}

// apply copies every set field of in onto cur.
func apply(cur *model.PageSettings, in *SettingsInput) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setBool := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}

	set(&cur.BackgroundType, in.BackgroundType)
	set(&cur.BackgroundColor, in.BackgroundColor)
	set(&cur.GradientFrom, in.GradientFrom)
	set(&cur.GradientTo, in.GradientTo)
	set(&cur.BackgroundImageURL, in.BackgroundImageURL)
	set(&cur.TextColor, in.TextColor)
	set(&cur.FontFamily, in.FontFamily)
	set(&cur.ButtonStyle, in.ButtonStyle)
	set(&cur.ButtonColor, in.ButtonColor)
	set(&cur.ButtonTextColor, in.ButtonTextColor)
	set(&cur.HeaderVideoURL, in.HeaderVideoURL)
	setBool(&cur.ShowSocialIcons, in.ShowSocialIcons)
	setBool(&cur.HideBranding, in.HideBranding)
	set(&cur.RedirectURL, in.RedirectURL)
	if in.RedirectUntil != nil {
		t := in.RedirectUntil.UTC()
		cur.RedirectUntil = &t
	}
	// Clearing the destination clears the schedule.
	if cur.RedirectURL == "" {
		cur.RedirectUntil = nil
	}
	setBool(&cur.ShowSubscriberForm, in.ShowSubscriberForm)
	set(&cur.SubscriberTitle, in.SubscriberTitle)
	set(&cur.SubscriberButton, in.SubscriberButton)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
