package service

import (
	"context"
	"strings"

	"biolink/internal/apperr"
	"biolink/internal/auth"
	"biolink/internal/model"
	"biolink/internal/pipeline"
	"biolink/internal/plan"
	"biolink/internal/repository"
	"biolink/internal/validation"

	"github.com/rs/zerolog"
)

type OnboardingInput struct {
	Username    string `json:"username" validate:"required,username"`
	DisplayName string `json:"display_name" validate:"max=50"`
}

type UsernameInput struct {
	Username string `json:"username" validate:"required,username"`
}

type ProfileInput struct {
	Username    *string `json:"username" validate:"omitnil,username"`
	DisplayName *string `json:"display_name" validate:"omitnil,max=50"`
	Bio         *string `json:"bio" validate:"omitnil,max=160"`
	AvatarURL   *string `json:"avatar_url" validate:"omitnil,optional_url"`
}

// UsernameAvailability is the data of a username check. A registered name
// is never available; Own marks the caller's current username.
type UsernameAvailability struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
	Own       bool   `json:"own"`
}

type ProfileService interface {
	CompleteOnboarding(ctx context.Context, id auth.Identity, in *OnboardingInput) pipeline.Result
	CheckUsername(ctx context.Context, id auth.Identity, in *UsernameInput) pipeline.Result
	GetProfile(ctx context.Context, id auth.Identity) pipeline.Result
	UpdateProfile(ctx context.Context, id auth.Identity, in *ProfileInput) pipeline.Result
	DeleteAccount(ctx context.Context, id auth.Identity) pipeline.Result
	GetFlags(ctx context.Context, id auth.Identity) pipeline.Result
}

type profileService struct {
	profiles repository.ProfileRepository
	p        *pipeline.Pipeline
	logger   zerolog.Logger
}

// NewProfileService creates a new ProfileService with a scoped logger.
func NewProfileService(profiles repository.ProfileRepository, p *pipeline.Pipeline, logger zerolog.Logger) ProfileService {
	return &profileService{
		profiles: profiles,
		p:        p,
		logger:   logger.With().Str("service", "ProfileService").Logger(),
	}
}

func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CompleteOnboarding creates the caller's profile with default settings and
// the free plan.
func (s *profileService) CompleteOnboarding(ctx context.Context, id auth.Identity, in *OnboardingInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[OnboardingInput]{
		Name: "profile.onboard",
		Normalize: func(in *OnboardingInput) {
			in.Username = normalizeUsername(in.Username)
			in.DisplayName = strings.TrimSpace(in.DisplayName)
		},
		Mutate: func(ctx context.Context, id auth.Identity, in *OnboardingInput) (any, error) {
			taken, err := s.profiles.UsernameTaken(ctx, in.Username, id.UserID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, apperr.New(apperr.Conflict, repository.MsgUsernameTaken)
			}

			display := in.DisplayName
			if display == "" {
				display = in.Username
			}
			created, err := s.profiles.Onboard(ctx,
				model.Profile{ID: id.UserID, Username: in.Username, DisplayName: display},
				model.DefaultSettings(id.UserID),
				plan.Default(id.UserID),
				string(plan.Free),
			)
			if err != nil {
				return nil, err
			}
			s.logger.Info().Str("user_id", id.UserID).Str("username", created.Username).Msg("Profile onboarded")
			return created, nil
		},
		Success: "Welcome aboard!",
		Failure: "Could not create your profile. Please try again.",
	}, in)
}

func (s *profileService) CheckUsername(ctx context.Context, id auth.Identity, in *UsernameInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[UsernameInput]{
		Name:      "profile.check_username",
		ReadOnly:  true,
		Normalize: func(in *UsernameInput) { in.Username = normalizeUsername(in.Username) },
		Mutate: func(ctx context.Context, id auth.Identity, in *UsernameInput) (any, error) {
			taken, err := s.profiles.UsernameTaken(ctx, in.Username, "")
			if err != nil || !taken {
				return UsernameAvailability{Username: in.Username, Available: !taken}, err
			}
			byOther, err := s.profiles.UsernameTaken(ctx, in.Username, id.UserID)
			if err != nil {
				return nil, err
			}
			return UsernameAvailability{Username: in.Username, Own: !byOther}, nil
		},
	}, in)
}

func (s *profileService) GetProfile(ctx context.Context, id auth.Identity) pipeline.Result {
	return pipeline.Read(ctx, s.p, id, "profile.get", func(ctx context.Context, id auth.Identity) (any, error) {
		return s.profiles.GetByID(ctx, id.UserID)
	})
}

func (s *profileService) UpdateProfile(ctx context.Context, id auth.Identity, in *ProfileInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[ProfileInput]{
		Name: "profile.update",
		Normalize: func(in *ProfileInput) {
			if in.Username != nil {
				*in.Username = normalizeUsername(*in.Username)
			}
			validation.NormalizeURLPtr(in.AvatarURL)
		},
		Mutate: func(ctx context.Context, id auth.Identity, in *ProfileInput) (any, error) {
			if in.Username != nil {
				taken, err := s.profiles.UsernameTaken(ctx, *in.Username, id.UserID)
				if err != nil {
					return nil, err
				}
				if taken {
					return nil, apperr.New(apperr.Conflict, repository.MsgUsernameTaken)
				}
			}
			return s.profiles.Update(ctx, id.UserID, repository.ProfileUpdate{
				Username:    in.Username,
				DisplayName: in.DisplayName,
				Bio:         in.Bio,
				AvatarURL:   in.AvatarURL,
			})
		},
		Success: "Profile updated.",
	}, in)
}

// DeleteAccount removes the profile and everything it owns.
func (s *profileService) DeleteAccount(ctx context.Context, id auth.Identity) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[struct{}]{
		Name: "profile.delete",
		Mutate: func(ctx context.Context, id auth.Identity, _ *struct{}) (any, error) {
			if err := s.profiles.Delete(ctx, id.UserID); err != nil {
				return nil, err
			}
			s.logger.Info().Str("user_id", id.UserID).Msg("Account deleted")
			return nil, nil
		},
		Success: "Your account has been deleted.",
		Failure: "Could not delete your account. Please try again.",
	}, nil)
}

// GetFlags returns the caller's entitlements, or the free template when no row exists.
func (s *profileService) GetFlags(ctx context.Context, id auth.Identity) pipeline.Result {
	return pipeline.Read(ctx, s.p, id, "flags.get", func(ctx context.Context, id auth.Identity) (any, error) {
		return s.p.Flags(ctx, id.UserID)
	})
}
