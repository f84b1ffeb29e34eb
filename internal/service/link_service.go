package service

import (
	"context"
	"strings"

	"biolink/internal/apperr"
	"biolink/internal/auth"
	"biolink/internal/model"
	"biolink/internal/pipeline"
	"biolink/internal/repository"
	"biolink/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const msgSectionNotFound = "Section not found."

type CreateLinkInput struct {
	Title         string `json:"title" validate:"required,max=100"`
	URL           string `json:"url" validate:"required,link_url"`
	Description   string `json:"description" validate:"max=300"`
	ThumbnailURL  string `json:"thumbnail_url" validate:"optional_url"`
	CoverURL      string `json:"cover_url" validate:"optional_url"`
	IsActive      *bool  `json:"is_active"`
	IsFeatured    bool   `json:"is_featured"`
	RequiresEmail bool   `json:"requires_email"`
	SectionID     string `json:"section_id" validate:"optional_uuid"`
}

// UpdateLinkInput is a patch: nil fields are unchanged, an empty section_id
// moves the link out of its section.
type UpdateLinkInput struct {
	ID            string  `json:"-" validate:"required,uuid"`
	Title         *string `json:"title" validate:"omitnil,min=1,max=100"`
	URL           *string `json:"url" validate:"omitnil,link_url"`
	Description   *string `json:"description" validate:"omitnil,max=300"`
	ThumbnailURL  *string `json:"thumbnail_url" validate:"omitnil,optional_url"`
	CoverURL      *string `json:"cover_url" validate:"omitnil,optional_url"`
	IsActive      *bool   `json:"is_active"`
	IsFeatured    *bool   `json:"is_featured"`
	RequiresEmail *bool   `json:"requires_email"`
	SectionID     *string `json:"section_id" validate:"omitnil,optional_uuid"`
}

type IDInput struct {
	ID string `json:"id" validate:"required,uuid"`
}

type ReorderInput struct {
	IDs []string `json:"ids" validate:"required,min=1,unique,dive,uuid"`
}

type LinkService interface {
	List(ctx context.Context, id auth.Identity) pipeline.Result
	Create(ctx context.Context, id auth.Identity, in *CreateLinkInput) pipeline.Result
	Update(ctx context.Context, id auth.Identity, in *UpdateLinkInput) pipeline.Result
	Delete(ctx context.Context, id auth.Identity, in *IDInput) pipeline.Result
	Reorder(ctx context.Context, id auth.Identity, in *ReorderInput) pipeline.Result
	// RecordClick counts a visitor's click. It needs no identity.
	RecordClick(ctx context.Context, linkID string) error
}

type linkService struct {
	links    repository.LinkRepository
	sections repository.SectionRepository
	p        *pipeline.Pipeline
	logger   zerolog.Logger
}

// NewLinkService creates a new LinkService with a scoped logger.
func NewLinkService(links repository.LinkRepository, sections repository.SectionRepository, p *pipeline.Pipeline, logger zerolog.Logger) LinkService {
	return &linkService{
		links:    links,
		sections: sections,
		p:        p,
		logger:   logger.With().Str("service", "LinkService").Logger(),
	}
}

func (s *linkService) List(ctx context.Context, id auth.Identity) pipeline.Result {
	return pipeline.Read(ctx, s.p, id, "link.list", func(ctx context.Context, id auth.Identity) (any, error) {
		return s.links.List(ctx, id.UserID)
	})
}

func (s *linkService) Create(ctx context.Context, id auth.Identity, in *CreateLinkInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[CreateLinkInput]{
		Name: "link.create",
		Gate: func(ctx context.Context, id auth.Identity, f model.FeatureFlags, in *CreateLinkInput) error {
			n, err := s.links.Count(ctx, id.UserID)
			if err != nil {
				return err
			}
			if n >= f.MaxLinks {
				return apperr.New(apperr.Forbidden, linkLimitMessage(f.MaxLinks))
			}
			return linkGates(f, &in.Description, &in.ThumbnailURL, &in.CoverURL, &in.SectionID, &in.IsFeatured, &in.RequiresEmail)
		},
		Normalize: func(in *CreateLinkInput) {
			in.Title = strings.TrimSpace(in.Title)
			in.URL = validation.NormalizeURL(in.URL)
			in.ThumbnailURL = validation.NormalizeURL(in.ThumbnailURL)
			in.CoverURL = validation.NormalizeURL(in.CoverURL)
		},
		Mutate: func(ctx context.Context, id auth.Identity, in *CreateLinkInput) (any, error) {
			if err := s.ownsSection(ctx, id.UserID, in.SectionID); err != nil {
				return nil, err
			}
			return s.links.Create(ctx, id.UserID, repository.LinkFields{
				Title:         &in.Title,
				URL:           &in.URL,
				Description:   &in.Description,
				ThumbnailURL:  &in.ThumbnailURL,
				CoverURL:      &in.CoverURL,
				IsActive:      in.IsActive,
				IsFeatured:    &in.IsFeatured,
				RequiresEmail: &in.RequiresEmail,
				SectionID:     &in.SectionID,
			})
		},
		Success: "Link added.",
		Failure: "Could not add the link. Please try again.",
	}, in)
}

func (s *linkService) Update(ctx context.Context, id auth.Identity, in *UpdateLinkInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[UpdateLinkInput]{
		Name: "link.update",
		Gate: func(_ context.Context, _ auth.Identity, f model.FeatureFlags, in *UpdateLinkInput) error {
			return linkGates(f, in.Description, in.ThumbnailURL, in.CoverURL, in.SectionID, in.IsFeatured, in.RequiresEmail)
		},
		Normalize: func(in *UpdateLinkInput) {
			if in.Title != nil {
				*in.Title = strings.TrimSpace(*in.Title)
			}
			validation.NormalizeURLPtr(in.URL)
			validation.NormalizeURLPtr(in.ThumbnailURL)
			validation.NormalizeURLPtr(in.CoverURL)
		},
		Mutate: func(ctx context.Context, id auth.Identity, in *UpdateLinkInput) (any, error) {
			if in.SectionID != nil {
				if err := s.ownsSection(ctx, id.UserID, *in.SectionID); err != nil {
					return nil, err
				}
			}
			return s.links.Update(ctx, id.UserID, in.ID, repository.LinkFields{
				Title:         in.Title,
				URL:           in.URL,
				Description:   in.Description,
				ThumbnailURL:  in.ThumbnailURL,
				CoverURL:      in.CoverURL,
				IsActive:      in.IsActive,
				IsFeatured:    in.IsFeatured,
				RequiresEmail: in.RequiresEmail,
				SectionID:     in.SectionID,
			})
		},
		Success: "Link updated.",
	}, in)
}

// ownsSection rejects section ids that do not belong to userID.
func (s *linkService) ownsSection(ctx context.Context, userID, sectionID string) error {
	if sectionID == "" {
		return nil
	}
	if _, err := s.sections.Get(ctx, userID, sectionID); err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return apperr.New(apperr.NotFound, msgSectionNotFound)
		}
		return err
	}
	return nil
}

func (s *linkService) Delete(ctx context.Context, id auth.Identity, in *IDInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[IDInput]{
		Name: "link.delete",
		Mutate: func(ctx context.Context, id auth.Identity, in *IDInput) (any, error) {
			return nil, s.links.Delete(ctx, id.UserID, in.ID)
		},
		Success: "Link deleted.",
	}, in)
}

func (s *linkService) Reorder(ctx context.Context, id auth.Identity, in *ReorderInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[ReorderInput]{
		Name: "link.reorder",
		Mutate: func(ctx context.Context, id auth.Identity, in *ReorderInput) (any, error) {
			return nil, s.links.Reorder(ctx, id.UserID, in.IDs)
		},
		Success: "Links reordered.",
		Failure: "Could not save the new order. Please refresh and try again.",
	}, in)
}

func (s *linkService) RecordClick(ctx context.Context, linkID string) error {
	if uuid.Validate(linkID) != nil {
		return apperr.New(apperr.NotFound, msgLinkNotFound)
	}
	if err := s.links.IncrementClick(ctx, linkID); err != nil {
		if !apperr.Is(err, apperr.NotFound) {
			s.logger.Error().Err(err).Str("link_id", linkID).Msg("Failed to record click")
		}
		return err
	}
	return nil
}
