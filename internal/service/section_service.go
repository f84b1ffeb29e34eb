package service

import (
	"context"
	"strings"

	"biolink/internal/auth"
	"biolink/internal/model"
	"biolink/internal/pipeline"
	"biolink/internal/repository"

	"github.com/rs/zerolog"
)

type SectionInput struct {
	ID    string `json:"-" validate:"omitempty,uuid"`
	Title string `json:"title" validate:"required,max=60"`
}

type SectionService interface {
	List(ctx context.Context, id auth.Identity) pipeline.Result
	Create(ctx context.Context, id auth.Identity, in *SectionInput) pipeline.Result
	Update(ctx context.Context, id auth.Identity, in *SectionInput) pipeline.Result
	Delete(ctx context.Context, id auth.Identity, in *IDInput) pipeline.Result
	Reorder(ctx context.Context, id auth.Identity, in *ReorderInput) pipeline.Result
}

type sectionService struct {
	sections repository.SectionRepository
	p        *pipeline.Pipeline
	logger   zerolog.Logger
}

func NewSectionService(sections repository.SectionRepository, p *pipeline.Pipeline, logger zerolog.Logger) SectionService {
	return &sectionService{
		sections: sections,
		p:        p,
		logger:   logger.With().Str("service", "SectionService").Logger(),
	}
}

func sectionsGate[T any](_ context.Context, _ auth.Identity, f model.FeatureFlags, _ *T) error {
	return pipeline.Require(f.CanUseSections, MsgSections)
}

func trimTitle(in *SectionInput) { in.Title = strings.TrimSpace(in.Title) }

func (s *sectionService) List(ctx context.Context, id auth.Identity) pipeline.Result {
	return pipeline.Read(ctx, s.p, id, "section.list", func(ctx context.Context, id auth.Identity) (any, error) {
		return s.sections.List(ctx, id.UserID)
	})
}

func (s *sectionService) Create(ctx context.Context, id auth.Identity, in *SectionInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[SectionInput]{
		Name:      "section.create",
		Gate:      sectionsGate[SectionInput],
		Normalize: trimTitle,
		Mutate: func(ctx context.Context, id auth.Identity, in *SectionInput) (any, error) {
			return s.sections.Create(ctx, id.UserID, in.Title)
		},
		Success: "Section added.",
	}, in)
}

func (s *sectionService) Update(ctx context.Context, id auth.Identity, in *SectionInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[SectionInput]{
		Name:      "section.update",
		Gate:      sectionsGate[SectionInput],
		Normalize: trimTitle,
		Mutate: func(ctx context.Context, id auth.Identity, in *SectionInput) (any, error) {
			return s.sections.Update(ctx, id.UserID, in.ID, in.Title)
		},
		Success: "Section updated.",
	}, in)
}

// Delete is ungated so a downgraded owner can still clean up. Links in the
// section are kept and become unsectioned.
func (s *sectionService) Delete(ctx context.Context, id auth.Identity, in *IDInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[IDInput]{
		Name: "section.delete",
		Mutate: func(ctx context.Context, id auth.Identity, in *IDInput) (any, error) {
			return nil, s.sections.Delete(ctx, id.UserID, in.ID)
		},
		Success: "Section deleted.",
	}, in)
}

func (s *sectionService) Reorder(ctx context.Context, id auth.Identity, in *ReorderInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[ReorderInput]{
		Name: "section.reorder",
		Gate: sectionsGate[ReorderInput],
		Mutate: func(ctx context.Context, id auth.Identity, in *ReorderInput) (any, error) {
			return nil, s.sections.Reorder(ctx, id.UserID, in.IDs)
		},
		Success: "Sections reordered.",
		Failure: "Could not save the new order. Please refresh and try again.",
	}, in)
}
