package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"biolink/internal/apperr"
	"biolink/internal/auth"
	"biolink/internal/billing"
	"biolink/internal/metrics"
	"biolink/internal/model"
	"biolink/internal/pipeline"
	"biolink/internal/plan"
	"biolink/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
)

const (
	msgPlanUnavailable = "That plan is not available."
	msgBillingUpstream = "The payment provider is unavailable. Please try again later."
	msgNoBilling       = "No billing account found. Choose a plan first."
	msgBadSignature    = "Invalid webhook signature."
)

type CheckoutInput struct {
	Plan   string `json:"plan" validate:"required,oneof=starter pro"`
	Period string `json:"period" validate:"required,oneof=monthly yearly"`
}

// RedirectURL is the data of checkout and portal sessions.
type RedirectURL struct {
	URL string `json:"url"`
}

type BillingService interface {
	Checkout(ctx context.Context, id auth.Identity, in *CheckoutInput) pipeline.Result
	Portal(ctx context.Context, id auth.Identity) pipeline.Result
	// HandleWebhook verifies and applies one provider event. A bad signature
	// is a ValidationFailed error; any other error should be retried by the provider.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type billingService struct {
	client billing.Client
	subs   repository.SubscriptionRepository
	prices plan.Prices
	appURL string
	p      *pipeline.Pipeline
	logger zerolog.Logger
}

// NewBillingService creates a new BillingService with a scoped logger.
func NewBillingService(client billing.Client, subs repository.SubscriptionRepository, prices plan.Prices, appURL string, p *pipeline.Pipeline, logger zerolog.Logger) BillingService {
	return &billingService{
		client: client,
		subs:   subs,
		prices: prices,
		appURL: strings.TrimRight(appURL, "/"),
		p:      p,
		logger: logger.With().Str("service", "BillingService").Logger(),
	}
}

func (s *billingService) billingURL(status string) string {
	u := s.appURL + "/dashboard/billing"
	if status != "" {
		u += "?status=" + status
	}
	return u
}

// customerID returns the stored customer for userID, creating one on first use.
func (s *billingService) customerID(ctx context.Context, id auth.Identity) (string, error) {
	sub, err := s.subs.Get(ctx, id.UserID)
	if err != nil {
		return "", err
	}
	if sub != nil && sub.StripeCustomerID != nil && *sub.StripeCustomerID != "" {
		return *sub.StripeCustomerID, nil
	}

	cust, err := s.client.CreateCustomer(ctx, id.Email, id.UserID)
	if err != nil {
		return "", apperr.Wrap(apperr.UpstreamFailure, msgBillingUpstream, err)
	}
	if err := s.subs.SetCustomerID(ctx, id.UserID, cust); err != nil {
		return "", err
	}
	s.logger.Info().Str("user_id", id.UserID).Str("stripe_customer_id", cust).Msg("Created Stripe customer")
	return cust, nil
}

func (s *billingService) Checkout(ctx context.Context, id auth.Identity, in *CheckoutInput) pipeline.Result {
	return pipeline.Run(ctx, s.p, id, pipeline.Operation[CheckoutInput]{
		Name:     "billing.checkout",
		ReadOnly: true,
		Mutate: func(ctx context.Context, id auth.Identity, in *CheckoutInput) (any, error) {
			price, err := s.prices.PriceFor(plan.Plan(in.Plan), plan.Period(in.Period))
			if err != nil {
				s.logger.Error().Err(err).Str("plan", in.Plan).Str("period", in.Period).Msg("Checkout price not configured")
				return nil, apperr.Wrap(apperr.ValidationFailed, msgPlanUnavailable, err)
			}
			customer, err := s.customerID(ctx, id)
			if err != nil {
				return nil, err
			}
			url, err := s.client.CreateCheckoutSession(ctx, billing.CheckoutParams{
				CustomerID: customer,
				PriceID:    price,
				UserID:     id.UserID,
				Plan:       in.Plan,
				SuccessURL: s.billingURL("success"),
				CancelURL:  s.billingURL("cancel"),
			})
			if err != nil {
				return nil, apperr.Wrap(apperr.UpstreamFailure, msgBillingUpstream, err)
			}
			return RedirectURL{URL: url}, nil
		},
	}, in)
}

func (s *billingService) Portal(ctx context.Context, id auth.Identity) pipeline.Result {
	return pipeline.Read(ctx, s.p, id, "billing.portal", func(ctx context.Context, id auth.Identity) (any, error) {
		sub, err := s.subs.Get(ctx, id.UserID)
		if err != nil {
			return nil, err
		}
		if sub == nil || sub.StripeCustomerID == nil || *sub.StripeCustomerID == "" {
			return nil, apperr.New(apperr.NotFound, msgNoBilling)
		}
		url, err := s.client.CreatePortalSession(ctx, *sub.StripeCustomerID, s.billingURL(""))
		if err != nil {
			return nil, apperr.Wrap(apperr.UpstreamFailure, msgBillingUpstream, err)
		}
		return RedirectURL{URL: url}, nil
	})
}

func (s *billingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.client.ConstructEvent(payload, signature)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Signature verification failed for Stripe webhook")
		metrics.WebhookEvents.WithLabelValues("unknown", "bad_signature").Inc()
		return apperr.Wrap(apperr.ValidationFailed, msgBadSignature, err)
	}

	eventType := string(event.Type)
	s.logger.Info().Str("event_type", eventType).Str("event_id", event.ID).Msg("Stripe webhook received")

	if err := s.dispatch(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("event_id", event.ID).Msg("Failed to handle Stripe webhook")
		metrics.WebhookEvents.WithLabelValues(eventType, "error").Inc()
		return err
	}
	metrics.WebhookEvents.WithLabelValues(eventType, "ok").Inc()
	return nil
}

func (s *billingService) dispatch(ctx context.Context, event stripe.Event) error {
	if event.Data == nil {
		return errors.New("event has no data")
	}
	raw := event.Data.Raw

	switch event.Type {
	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(raw, &cs); err != nil {
			return fmt.Errorf("decode checkout session: %w", err)
		}
		if cs.Subscription == nil || cs.Subscription.ID == "" {
			s.logger.Info().Str("session_id", cs.ID).Msg("Checkout session has no subscription, skipping")
			return nil
		}
		sub, err := s.client.GetSubscription(ctx, cs.Subscription.ID)
		if err != nil {
			return fmt.Errorf("fetch subscription %s: %w", cs.Subscription.ID, err)
		}
		userID, err := s.userID(ctx, cs.Metadata, customerOf(cs.Customer, sub.Customer))
		if err != nil {
			return err
		}
		return s.mirror(ctx, userID, sub, model.StatusActive)

	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		if sub.Status != stripe.SubscriptionStatusActive {
			return s.setStatus(ctx, customerOf(sub.Customer), string(sub.Status))
		}
		userID, err := s.userID(ctx, sub.Metadata, customerOf(sub.Customer))
		if err != nil {
			return err
		}
		return s.mirror(ctx, userID, &sub, model.StatusActive)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		userID, err := s.userID(ctx, sub.Metadata, customerOf(sub.Customer))
		if err != nil {
			return err
		}
		return s.downgrade(ctx, userID, customerOf(sub.Customer))

	case "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(raw, &inv); err != nil {
			return fmt.Errorf("decode invoice: %w", err)
		}
		// Flags are left alone so paid features survive the grace period.
		return s.setStatus(ctx, customerOf(inv.Customer), model.StatusPastDue)

	default:
		s.logger.Debug().Str("event_type", string(event.Type)).Msg("Ignoring Stripe event")
		return nil
	}
}

// mirror copies the provider's subscription and overwrites flags with the plan's template.
func (s *billingService) mirror(ctx context.Context, userID string, sub *stripe.Subscription, status string) error {
	period, ok := billing.PeriodOf(sub)
	if !ok {
		return fmt.Errorf("subscription %s has no priced item", sub.ID)
	}
	p, err := s.prices.PlanForPrice(period.PriceID)
	if err != nil {
		return fmt.Errorf("resolve plan for subscription %s: %w", sub.ID, err)
	}

	flags := plan.For(p, userID)
	subID := sub.ID
	row := model.Subscription{
		UserID:               userID,
		StripeSubscriptionID: &subID,
		PlanType:             string(p),
		Status:               status,
		CurrentPeriodStart:   period.Start,
		CurrentPeriodEnd:     period.End,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}
	if c := customerOf(sub.Customer); c != "" {
		row.StripeCustomerID = &c
	}
	if err := s.subs.Sync(ctx, row, &flags); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID).Str("plan", string(p)).Str("subscription_id", sub.ID).Msg("Subscription mirrored")
	s.p.Invalidate(ctx, userID)
	return nil
}

func (s *billingService) downgrade(ctx context.Context, userID, customer string) error {
	flags := plan.For(plan.Free, userID)
	row := model.Subscription{
		UserID:   userID,
		PlanType: string(plan.Free),
		Status:   model.StatusCanceled,
	}
	if customer != "" {
		row.StripeCustomerID = &customer
	}
	if err := s.subs.Sync(ctx, row, &flags); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID).Msg("Subscription canceled, downgraded to free")
	s.p.Invalidate(ctx, userID)
	return nil
}

func (s *billingService) setStatus(ctx context.Context, customer, status string) error {
	if customer == "" {
		return errors.New("event has no customer")
	}
	err := s.subs.SetStatusByCustomer(ctx, customer, status)
	if apperr.Is(err, apperr.NotFound) {
		s.logger.Warn().Str("stripe_customer_id", customer).Str("status", status).Msg("No subscription row for customer, skipping status update")
		return nil
	}
	return err
}

// userID prefers the user_id metadata and falls back to the stored customer id.
func (s *billingService) userID(ctx context.Context, metadata map[string]string, customer string) (string, error) {
	if id := metadata["user_id"]; id != "" {
		return id, nil
	}
	if customer == "" {
		return "", errors.New("cannot determine user: missing metadata and customer id")
	}
	s.logger.Warn().Str("stripe_customer_id", customer).Msg("Missing user_id metadata; looking up user by customer ID")
	sub, err := s.subs.GetByCustomerID(ctx, customer)
	if err != nil {
		return "", fmt.Errorf("lookup user by customer %s: %w", customer, err)
	}
	return sub.UserID, nil
}

func customerOf(cs ...*stripe.Customer) string {
	for _, c := range cs {
		if c != nil && c.ID != "" {
			return c.ID
		}
	}
	return ""
}
