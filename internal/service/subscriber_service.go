package service

import (
	"context"
	"strings"

	"biolink/internal/apperr"
	"biolink/internal/auth"
	"biolink/internal/export"
	"biolink/internal/model"
	"biolink/internal/pipeline"
	"biolink/internal/repository"

	"github.com/rs/zerolog"
)

const (
	MsgNothingToExport  = "No subscribers to export."
	msgNotCollecting    = "This page is not accepting subscribers."
	msgLeadGateDisabled = "This link is not collecting emails."
	msgNoEmailRequired  = "This link does not require an email."
	msgLinkNotFound     = "Link not found."
)

type SubscribeInput struct {
	ProfileID string `json:"profile_id" validate:"required,uuid"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Name      string `json:"name" validate:"max=100"`
}

type LeadCaptureInput struct {
	ProfileID string `json:"profile_id" validate:"required,uuid"`
	LinkID    string `json:"link_id" validate:"required,uuid"`
	Email     string `json:"email" validate:"required,email,max=254"`

	link *model.Link
}

// Lead is returned after a capture so the page can continue to the link.
type Lead struct {
	URL string `json:"url"`
}

// CSVExport is the data of a successful export.
type CSVExport struct {
	Filename string
	Body     []byte
}

type SubscriberService interface {
	// Subscribe and Capture are visitor-facing and need no identity.
	Subscribe(ctx context.Context, in *SubscribeInput) pipeline.Result
	Capture(ctx context.Context, in *LeadCaptureInput) pipeline.Result
	List(ctx context.Context, id auth.Identity) pipeline.Result
	Delete(ctx context.Context, id auth.Identity, in *IDInput) pipeline.Result
	ExportCSV(ctx context.Context, id auth.Identity) pipeline.Result
}

type subscriberService struct {
	subscribers repository.SubscriberRepository
	settings    repository.SettingsRepository
	links       repository.LinkRepository
	p           *pipeline.Pipeline
	logger      zerolog.Logger
}

func NewSubscriberService(subscribers repository.SubscriberRepository, settings repository.SettingsRepository, links repository.LinkRepository, p *pipeline.Pipeline, logger zerolog.Logger) SubscriberService {
	return &subscriberService{
		subscribers: subscribers,
		settings:    settings,
		links:       links,
		p:           p,
		logger:      logger.With().Str("service", "SubscriberService").Logger(),
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Subscribe needs both the owner's entitlement and the page toggle.
func (s *subscriberService) Subscribe(ctx context.Context, in *SubscribeInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, auth.Identity{}, pipeline.Operation[SubscribeInput]{
		Name:     "subscriber.subscribe",
		ReadOnly: true,
		Owner:    func(in *SubscribeInput) string { return in.ProfileID },
		Normalize: func(in *SubscribeInput) {
			in.Email = normalizeEmail(in.Email)
			in.Name = strings.TrimSpace(in.Name)
		},
		Gate: func(ctx context.Context, _ auth.Identity, f model.FeatureFlags, in *SubscribeInput) error {
			if !f.CanCollectSubscribers {
				return apperr.New(apperr.Forbidden, msgNotCollecting)
			}
			settings, err := s.settings.Get(ctx, in.ProfileID)
			if err != nil {
				return err
			}
			if settings == nil || !settings.ShowSubscriberForm {
				return apperr.New(apperr.Forbidden, msgNotCollecting)
			}
			return nil
		},
		Mutate: func(ctx context.Context, _ auth.Identity, in *SubscribeInput) (any, error) {
			if _, err := s.subscribers.Create(ctx, in.ProfileID, in.Email, in.Name); err != nil {
				return nil, err
			}
			return nil, nil
		},
		Success: "Thanks for subscribing!",
	}, in)
}

// Capture records the email a visitor gives to open a gated link.
// Repeat captures of the same email succeed silently.
func (s *subscriberService) Capture(ctx context.Context, in *LeadCaptureInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, auth.Identity{}, pipeline.Operation[LeadCaptureInput]{
		Name:      "subscriber.lead_capture",
		ReadOnly:  true,
		Owner:     func(in *LeadCaptureInput) string { return in.ProfileID },
		Normalize: func(in *LeadCaptureInput) { in.Email = normalizeEmail(in.Email) },
		// The link is resolved before the plan check so an unknown link is
		// always 404, whatever the owner's plan.
		Gate: func(ctx context.Context, _ auth.Identity, f model.FeatureFlags, in *LeadCaptureInput) error {
			link, err := s.links.GetPublic(ctx, in.LinkID)
			if err != nil {
				return err
			}
			if link.UserID != in.ProfileID || !link.IsActive {
				return apperr.New(apperr.NotFound, msgLinkNotFound)
			}
			if err := pipeline.Require(f.CanUseLeadGate, msgLeadGateDisabled); err != nil {
				return err
			}
			if !link.RequiresEmail {
				return apperr.New(apperr.ValidationFailed, msgNoEmailRequired)
			}
			in.link = link
			return nil
		},
		Mutate: func(ctx context.Context, _ auth.Identity, in *LeadCaptureInput) (any, error) {
			if err := s.subscribers.CreateIgnoringDuplicate(ctx, in.ProfileID, in.Email, ""); err != nil {
				return nil, err
			}
			return Lead{URL: in.link.URL}, nil
		},
		Success: "Thanks! Opening the link.",
	}, in)
}

func (s *subscriberService) List(ctx context.Context, id auth.Identity) pipeline.Result {
	return pipeline.Read(ctx, s.p, id, "subscriber.list", func(ctx context.Context, id auth.Identity) (any, error) {
		return s.subscribers.List(ctx, id.UserID)
	})
}

func (s *subscriberService) Delete(ctx context.Context, id auth.Identity, in *IDInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[IDInput]{
		Name:     "subscriber.delete",
		ReadOnly: true,
		Mutate: func(ctx context.Context, id auth.Identity, in *IDInput) (any, error) {
			return nil, s.subscribers.Delete(ctx, id.UserID, in.ID)
		},
		Success: "Subscriber removed.",
	}, in)
}

// ExportCSV builds the whole export in memory. An empty list is reported as
// NotFound rather than an empty file.
func (s *subscriberService) ExportCSV(ctx context.Context, id auth.Identity) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[struct{}]{
		Name:     "subscriber.export",
		ReadOnly: true,
		Gate: func(_ context.Context, _ auth.Identity, f model.FeatureFlags, _ *struct{}) error {
			return pipeline.Require(f.CanExportSubscribers, MsgExport)
		},
		Mutate: func(ctx context.Context, id auth.Identity, _ *struct{}) (any, error) {
			subs, err := s.subscribers.List(ctx, id.UserID)
			if err != nil {
				return nil, err
			}
			if len(subs) == 0 {
				return nil, apperr.New(apperr.NotFound, MsgNothingToExport)
			}
			s.logger.Info().Str("user_id", id.UserID).Int("count", len(subs)).Msg("Exporting subscribers")
			return CSVExport{Filename: export.Filename, Body: export.SubscribersCSV(subs)}, nil
		},
	}, nil)
}
