package service

import (
	"context"
	"strings"

	"biolink/internal/auth"
	"biolink/internal/model"
	"biolink/internal/pipeline"
	"biolink/internal/repository"
	"biolink/internal/validation"

	"github.com/rs/zerolog"
)

type SocialLinkInput struct {
	Platform string `json:"platform" validate:"required,platform"`
	URL      string `json:"url" validate:"required,link_url"`
}

type UpdateSocialLinkInput struct {
	ID       string  `json:"-" validate:"required,uuid"`
	Platform *string `json:"platform" validate:"omitnil,platform"`
	URL      *string `json:"url" validate:"omitnil,link_url"`
}

type SocialLinkService interface {
	List(ctx context.Context, id auth.Identity) pipeline.Result
	Create(ctx context.Context, id auth.Identity, in *SocialLinkInput) pipeline.Result
	Update(ctx context.Context, id auth.Identity, in *UpdateSocialLinkInput) pipeline.Result
	Delete(ctx context.Context, id auth.Identity, in *IDInput) pipeline.Result
	Reorder(ctx context.Context, id auth.Identity, in *ReorderInput) pipeline.Result
}

type socialLinkService struct {
	socials repository.SocialLinkRepository
	p       *pipeline.Pipeline
	logger  zerolog.Logger
}

func NewSocialLinkService(socials repository.SocialLinkRepository, p *pipeline.Pipeline, logger zerolog.Logger) SocialLinkService {
	return &socialLinkService{
		socials: socials,
		p:       p,
		logger:  logger.With().Str("service", "SocialLinkService").Logger(),
	}
}

func socialGate[T any](_ context.Context, _ auth.Identity, f model.FeatureFlags, _ *T) error {
	return pipeline.Require(f.CanUseSocialIcons, MsgSocialIcons)
}

func (s *socialLinkService) List(ctx context.Context, id auth.Identity) pipeline.Result {
	return pipeline.Read(ctx, s.p, id, "social.list", func(ctx context.Context, id auth.Identity) (any, error) {
		return s.socials.List(ctx, id.UserID)
	})
}

func (s *socialLinkService) Create(ctx context.Context, id auth.Identity, in *SocialLinkInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[SocialLinkInput]{
		Name: "social.create",
		Gate: socialGate[SocialLinkInput],
		Normalize: func(in *SocialLinkInput) {
			in.Platform = strings.ToLower(strings.TrimSpace(in.Platform))
			in.URL = validation.NormalizeURL(in.URL)
		},
		Mutate: func(ctx context.Context, id auth.Identity, in *SocialLinkInput) (any, error) {
			return s.socials.Create(ctx, id.UserID, in.Platform, in.URL)
		},
		Success: "Social link added.",
	}, in)
}

func (s *socialLinkService) Update(ctx context.Context, id auth.Identity, in *UpdateSocialLinkInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[UpdateSocialLinkInput]{
		Name: "social.update",
		Gate: socialGate[UpdateSocialLinkInput],
		Normalize: func(in *UpdateSocialLinkInput) {
			if in.Platform != nil {
				*in.Platform = strings.ToLower(strings.TrimSpace(*in.Platform))
			}
			validation.NormalizeURLPtr(in.URL)
		},
		Mutate: func(ctx context.Context, id auth.Identity, in *UpdateSocialLinkInput) (any, error) {
			return s.socials.Update(ctx, id.UserID, in.ID, in.Platform, in.URL)
		},
		Success: "Social link updated.",
	}, in)
}

func (s *socialLinkService) Delete(ctx context.Context, id auth.Identity, in *IDInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[IDInput]{
		Name: "social.delete",
		Mutate: func(ctx context.Context, id auth.Identity, in *IDInput) (any, error) {
			return nil, s.socials.Delete(ctx, id.UserID, in.ID)
		},
		Success: "Social link removed.",
	}, in)
}

func (s *socialLinkService) Reorder(ctx context.Context, id auth.Identity, in *ReorderInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[ReorderInput]{
		Name: "social.reorder",
		Gate: socialGate[ReorderInput],
		Mutate: func(ctx context.Context, id auth.Identity, in *ReorderInput) (any, error) {
			return nil, s.socials.Reorder(ctx, id.UserID, in.IDs)
		},
		Success: "Social links reordered.",
		Failure: "Could not save the new order. Please refresh and try again.",
	}, in)
}
