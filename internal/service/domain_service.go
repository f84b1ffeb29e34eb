package service

import (
	"context"
	"strings"

	"biolink/internal/apperr"
	"biolink/internal/auth"
	"biolink/internal/domains"
	"biolink/internal/model"
	"biolink/internal/pipeline"
	"biolink/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	msgDomainNotVerified = "We could not find the verification record yet. DNS changes can take a while to propagate."
	msgDomainUpstream    = "The domain provider is unavailable. Please try again later."
	msgOwnDomain         = "That domain cannot be used."
)

type DomainInput struct {
	Domain string `json:"domain" validate:"required,fqdn,max=253"`
}

// TXTVerifier checks an ownership TXT record.
type TXTVerifier interface {
	Verify(ctx context.Context, domain, token string) (bool, error)
}

type DomainService interface {
	List(ctx context.Context, id auth.Identity) pipeline.Result
	Add(ctx context.Context, id auth.Identity, in *DomainInput) pipeline.Result
	Verify(ctx context.Context, id auth.Identity, in *IDInput) pipeline.Result
	Delete(ctx context.Context, id auth.Identity, in *IDInput) pipeline.Result
}

type domainService struct {
	domains   repository.DomainRepository
	provider  domains.Provider
	dns       TXTVerifier
	appDomain string
	p         *pipeline.Pipeline
	logger    zerolog.Logger
}

// NewDomainService creates a DomainService. provider may be nil, in which
// case ownership is proven with a DNS TXT record only.
func NewDomainService(repo repository.DomainRepository, provider domains.Provider, dns TXTVerifier, appDomain string, p *pipeline.Pipeline, logger zerolog.Logger) DomainService {
	return &domainService{
		domains:   repo,
		provider:  provider,
		dns:       dns,
		appDomain: strings.ToLower(appDomain),
		p:         p,
		logger:    logger.With().Str("service", "DomainService").Logger(),
	}
}

// normalizeDomain reduces pasted input like "https://Links.Example.com/" to a host name.
func normalizeDomain(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSuffix(s, ".")
}

func domainGate[T any](_ context.Context, _ auth.Identity, f model.FeatureFlags, _ *T) error {
	return pipeline.Require(f.CanUseCustomDomain, MsgCustomDomain)
}

func (s *domainService) List(ctx context.Context, id auth.Identity) pipeline.Result {
	return pipeline.Read(ctx, s.p, id, "domain.list", func(ctx context.Context, id auth.Identity) (any, error) {
		return s.domains.List(ctx, id.UserID)
	})
}

func (s *domainService) Add(ctx context.Context, id auth.Identity, in *DomainInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[DomainInput]{
		Name:      "domain.add",
		Gate:      domainGate[DomainInput],
		Normalize: func(in *DomainInput) { in.Domain = normalizeDomain(in.Domain) },
		Mutate: func(ctx context.Context, id auth.Identity, in *DomainInput) (any, error) {
			if s.appDomain != "" && (in.Domain == s.appDomain || strings.HasSuffix(in.Domain, "."+s.appDomain)) {
				return nil, apperr.New(apperr.ValidationFailed, msgOwnDomain)
			}

			d, err := s.domains.Create(ctx, id.UserID, in.Domain, uuid.NewString())
			if err != nil {
				return nil, err
			}
			if s.provider != nil {
				if err := s.provider.Add(ctx, d.Domain); err != nil {
					// Drop the row so the owner can retry the same name.
					if derr := s.domains.Delete(ctx, id.UserID, d.ID); derr != nil {
						s.logger.Error().Err(derr).Str("domain", d.Domain).Msg("Failed to roll back domain after provider error")
					}
					return nil, apperr.Wrap(apperr.UpstreamFailure, msgDomainUpstream, err)
				}
			}
			s.logger.Info().Str("user_id", id.UserID).Str("domain", d.Domain).Msg("Custom domain added")
			return d, nil
		},
		Success: "Domain added. Add the DNS records to verify it.",
	}, in)
}

func (s *domainService) Verify(ctx context.Context, id auth.Identity, in *IDInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[IDInput]{
		Name: "domain.verify",
		Gate: domainGate[IDInput],
		Mutate: func(ctx context.Context, id auth.Identity, in *IDInput) (any, error) {
			d, err := s.domains.Get(ctx, id.UserID, in.ID)
			if err != nil {
				return nil, err
			}
			if d.IsVerified {
				return d, nil
			}

			var ok bool
			if s.provider != nil {
				ok, err = s.provider.Verify(ctx, d.Domain)
			} else {
				ok, err = s.dns.Verify(ctx, d.Domain, d.VerificationToken)
			}
			if err != nil {
				return nil, apperr.Wrap(apperr.UpstreamFailure, msgDomainUpstream, err)
			}
			if !ok {
				return nil, apperr.New(apperr.ValidationFailed, msgDomainNotVerified)
			}
			return s.domains.MarkVerified(ctx, id.UserID, d.ID)
		},
		Success: "Domain verified.",
	}, in)
}

// Delete is ungated so a downgraded owner can release the domain.
func (s *domainService) Delete(ctx context.Context, id auth.Identity, in *IDInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[IDInput]{
		Name: "domain.delete",
		Mutate: func(ctx context.Context, id auth.Identity, in *IDInput) (any, error) {
			d, err := s.domains.Get(ctx, id.UserID, in.ID)
			if err != nil {
				return nil, err
			}
			if s.provider != nil {
				if err := s.provider.Remove(ctx, d.Domain); err != nil {
					return nil, apperr.Wrap(apperr.UpstreamFailure, msgDomainUpstream, err)
				}
			}
			return nil, s.domains.Delete(ctx, id.UserID, d.ID)
		},
		Success: "Domain removed.",
	}, in)
}
