// Package render assembles the public view of a page from its owner's rows.
package render

import (
	"context"
	"fmt"
	"time"

	"biolink/internal/apperr"
	"biolink/internal/model"
	"biolink/internal/plan"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type ProfileLookup interface {
	GetByUsername(ctx context.Context, username string) (*model.Profile, error)
	GetByVerifiedDomain(ctx context.Context, domain string) (*model.Profile, error)
}

type LinkLister interface {
	ListActive(ctx context.Context, userID string) ([]model.Link, error)
}

type SettingsReader interface {
	Get(ctx context.Context, userID string) (*model.PageSettings, error)
}

type FlagsReader interface {
	GetFlags(ctx context.Context, userID string) (*model.FeatureFlags, error)
}

type SectionLister interface {
	List(ctx context.Context, profileID string) ([]model.LinkSection, error)
}

type SocialLister interface {
	List(ctx context.Context, profileID string) ([]model.SocialLink, error)
}

// Cache stores fetched bundles by profile id.
type Cache interface {
	Get(ctx context.Context, profileID string, dst any) (bool, error)
	Set(ctx context.Context, profileID string, v any) error
}

type Sources struct {
	Profiles ProfileLookup
	Links    LinkLister
	Settings SettingsReader
	Flags    FlagsReader
	Sections SectionLister
	Socials  SocialLister
}

// Bundle is every row a page is built from.
type Bundle struct {
	Links    []model.Link        `json:"links"`
	Settings model.PageSettings  `json:"settings"`
	Flags    model.FeatureFlags  `json:"flags"`
	Sections []model.LinkSection `json:"sections"`
	Socials  []model.SocialLink  `json:"socials"`
}

// Outcome is exactly one of not found, a redirect, or a page.
type Outcome struct {
	NotFound    bool
	RedirectURL string
	Page        *Page
}

type Assembler struct {
	src    Sources
	cache  Cache
	appURL string
	now    func() time.Time
	logger zerolog.Logger
}

type Option func(*Assembler)

// WithCache enables bundle caching.
func WithCache(c Cache) Option {
	return func(a *Assembler) { a.cache = c }
}

// WithClock replaces time.Now for redirect checks.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

func NewAssembler(src Sources, appURL string, logger zerolog.Logger, opts ...Option) *Assembler {
	a := &Assembler{
		src:    src,
		appURL: appURL,
		now:    time.Now,
		logger: logger.With().Str("service", "RenderAssembler").Logger(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Assembler) ByUsername(ctx context.Context, username string) (Outcome, error) {
	p, err := a.src.Profiles.GetByUsername(ctx, username)
	return a.assemble(ctx, p, err)
}

func (a *Assembler) ByDomain(ctx context.Context, domain string) (Outcome, error) {
	p, err := a.src.Profiles.GetByVerifiedDomain(ctx, domain)
	return a.assemble(ctx, p, err)
}

func (a *Assembler) assemble(ctx context.Context, profile *model.Profile, err error) (Outcome, error) {
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return Outcome{NotFound: true}, nil
		}
		return Outcome{}, fmt.Errorf("looking up profile: %w", err)
	}
	if profile == nil {
		return Outcome{NotFound: true}, nil
	}

	bundle, err := a.bundle(ctx, profile.ID)
	if err != nil {
		return Outcome{}, err
	}

	// Evaluated per request; only the rows are cached.
	if bundle.Settings.RedirectActive(a.now()) {
		return Outcome{RedirectURL: bundle.Settings.RedirectURL}, nil
	}
	return Outcome{Page: Build(*profile, bundle, a.appURL)}, nil
}

func (a *Assembler) bundle(ctx context.Context, profileID string) (Bundle, error) {
	var b Bundle
	if a.cache != nil {
		hit, err := a.cache.Get(ctx, profileID, &b)
		if err != nil {
			a.logger.Warn().Err(err).Str("profile_id", profileID).Msg("Page cache read failed")
		}
		if hit {
			return b, nil
		}
	}

	b, err := a.fetch(ctx, profileID)
	if err != nil {
		return Bundle{}, err
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, profileID, b); err != nil {
			a.logger.Warn().Err(err).Str("profile_id", profileID).Msg("Page cache write failed")
		}
	}
	return b, nil
}

func (a *Assembler) fetch(ctx context.Context, profileID string) (Bundle, error) {
	var b Bundle
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		links, err := a.src.Links.ListActive(gctx, profileID)
		if err != nil {
			return fmt.Errorf("fetching links: %w", err)
		}
		b.Links = links
		return nil
	})
	g.Go(func() error {
		s, err := a.src.Settings.Get(gctx, profileID)
		if err != nil {
			return fmt.Errorf("fetching settings: %w", err)
		}
		if s == nil {
			b.Settings = model.DefaultSettings(profileID)
		} else {
			b.Settings = *s
		}
		return nil
	})
	g.Go(func() error {
		f, err := a.src.Flags.GetFlags(gctx, profileID)
		if err != nil {
			return fmt.Errorf("fetching flags: %w", err)
		}
		if f == nil {
			b.Flags = plan.Default(profileID)
		} else {
			b.Flags = *f
		}
		return nil
	})
	g.Go(func() error {
		sections, err := a.src.Sections.List(gctx, profileID)
		if err != nil {
			return fmt.Errorf("fetching sections: %w", err)
		}
		b.Sections = sections
		return nil
	})
	g.Go(func() error {
		socials, err := a.src.Socials.List(gctx, profileID)
		if err != nil {
			return fmt.Errorf("fetching social links: %w", err)
		}
		b.Socials = socials
		return nil
	})

	if err := g.Wait(); err != nil {
		return Bundle{}, err
	}
	return b, nil
}
