package service

import (
	"context"
	"encoding/json"

	"biolink/internal/apperr"
	"biolink/internal/auth"
	"biolink/internal/billing"
	"biolink/internal/model"
	"biolink/internal/pipeline"
	"biolink/internal/plan"
	"biolink/internal/repository"
	"biolink/internal/validation"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
)

const (
	userID    = "3f1c2a9e-8b7d-4c6e-9a5b-1d2e3f4a5b6c"
	otherUser = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
	linkID    = "5b6c7d8e-9f0a-4b1c-8d2e-3f4a5b6c7d8e"
	sectionID = "7d8e9f0a-1b2c-4d3e-8f4a-5b6c7d8e9f0a"
)

var owner = auth.Identity{UserID: userID, Email: "owner@example.com"}

// flagsStub serves one flag row, or none when nil.
type flagsStub struct {
	flags *model.FeatureFlags
}

func (f *flagsStub) GetFlags(context.Context, string) (*model.FeatureFlags, error) {
	return f.flags, nil
}

func (f *flagsStub) use(p plan.Plan) {
	t := plan.For(p, userID)
	f.flags = &t
}

type invalidations struct {
	users []string
}

func (i *invalidations) Invalidate(_ context.Context, userID string) error {
	i.users = append(i.users, userID)
	return nil
}

func newPipe() (*pipeline.Pipeline, *flagsStub, *invalidations) {
	flags := &flagsStub{}
	inv := &invalidations{}
	return pipeline.New(flags, validation.New(), inv, zerolog.Nop()), flags, inv
}

func strp(s string) *string { return &s }
func boolp(b bool) *bool { return &b }

func notFound(msg string) error { return apperr.New(apperr.NotFound, msg) }

func conflict(msg string) error { return apperr.New(apperr.Conflict, msg) }

// Fakes embed the repository interface so unexercised methods panic.

type fakeProfiles struct {
	repository.ProfileRepository
	owners  map[string]string
	onboard func(p model.Profile, s model.PageSettings, f model.FeatureFlags, planType string) (*model.Profile, error)
	update  func(id string, in repository.ProfileUpdate) (*model.Profile, error)
	deleted []string
}

func (f *fakeProfiles) UsernameTaken(_ context.Context, username, exceptID string) (bool, error) {
	owner, ok := f.owners[username]
	return ok && owner != exceptID, nil
}

func (f *fakeProfiles) Onboard(_ context.Context, p model.Profile, s model.PageSettings, fl model.FeatureFlags, planType string) (*model.Profile, error) {
	return f.onboard(p, s, fl, planType)
}

func (f *fakeProfiles) Update(_ context.Context, id string, in repository.ProfileUpdate) (*model.Profile, error) {
	return f.update(id, in)
}

func (f *fakeProfiles) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeLinks struct {
	repository.LinkRepository
	count     int
	created   []repository.LinkFields
	updated   []repository.LinkFields
	public    map[string]*model.Link
	clicks    []string
	clickErr  error
	reordered [][]string
}

func (f *fakeLinks) Count(context.Context, string) (int, error) { return f.count, nil }

func (f *fakeLinks) Create(_ context.Context, uid string, in repository.LinkFields) (*model.Link, error) {
	f.created = append(f.created, in)
	return &model.Link{ID: linkID, UserID: uid, Title: *in.Title, URL: *in.URL, Position: f.count, IsActive: in.IsActive == nil || *in.IsActive}, nil
}

func (f *fakeLinks) Update(_ context.Context, uid, id string, in repository.LinkFields) (*model.Link, error) {
	f.updated = append(f.updated, in)
	return &model.Link{ID: id, UserID: uid}, nil
}

func (f *fakeLinks) GetPublic(_ context.Context, id string) (*model.Link, error) {
	if l, ok := f.public[id]; ok {
		return l, nil
	}
	return nil, notFound("Link not found.")
}

func (f *fakeLinks) IncrementClick(_ context.Context, id string) error {
	f.clicks = append(f.clicks, id)
	return f.clickErr
}

func (f *fakeLinks) Reorder(_ context.Context, _ string, ids []string) error {
	f.reordered = append(f.reordered, ids)
	return nil
}

type fakeSections struct {
	repository.SectionRepository
	owned     map[string]bool
	created   []string
	deleted   []string
	reordered [][]string
}

func (f *fakeSections) Get(_ context.Context, _ string, id string) (*model.LinkSection, error) {
	if f.owned[id] {
		return &model.LinkSection{ID: id}, nil
	}
	return nil, notFound("Section not found.")
}

func (f *fakeSections) Create(_ context.Context, pid, title string) (*model.LinkSection, error) {
	f.created = append(f.created, title)
	return &model.LinkSection{ID: sectionID, ProfileID: pid, Title: title}, nil
}

func (f *fakeSections) Update(_ context.Context, pid, id, title string) (*model.LinkSection, error) {
	f.created = append(f.created, title)
	return &model.LinkSection{ID: id, ProfileID: pid, Title: title}, nil
}

func (f *fakeSections) Delete(_ context.Context, _, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSections) Reorder(_ context.Context, _ string, ids []string) error {
	f.reordered = append(f.reordered, ids)
	return nil
}

type fakeSocials struct {
	repository.SocialLinkRepository
	created   []model.SocialLink
	deleted   []string
	reordered [][]string
}

func (f *fakeSocials) Create(_ context.Context, pid, platform, url string) (*model.SocialLink, error) {
	l := model.SocialLink{ID: linkID, ProfileID: pid, Platform: platform, URL: url}
	f.created = append(f.created, l)
	return &l, nil
}

func (f *fakeSocials) Update(_ context.Context, pid, id string, platform, url *string) (*model.SocialLink, error) {
	l := model.SocialLink{ID: id, ProfileID: pid}
	if platform != nil {
		l.Platform = *platform
	}
	if url != nil {
		l.URL = *url
	}
	f.created = append(f.created, l)
	return &l, nil
}

func (f *fakeSocials) Delete(_ context.Context, _, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSocials) Reorder(_ context.Context, _ string, ids []string) error {
	f.reordered = append(f.reordered, ids)
	return nil
}

type fakeSettings struct {
	repository.SettingsRepository
	current  *model.PageSettings
	upserted []model.PageSettings
}

func (f *fakeSettings) Get(context.Context, string) (*model.PageSettings, error) {
	return f.current, nil
}

func (f *fakeSettings) Upsert(_ context.Context, s model.PageSettings) (*model.PageSettings, error) {
	f.upserted = append(f.upserted, s)
	f.current = &s
	return &s, nil
}

type fakeSubscribers struct {
	repository.SubscriberRepository
	emails []string
	rows   []model.Subscriber
}

func (f *fakeSubscribers) Create(_ context.Context, pid, email, name string) (*model.Subscriber, error) {
	for _, e := range f.emails {
		if e == email {
			return nil, conflict(repository.MsgAlreadySubscribed)
		}
	}
	f.emails = append(f.emails, email)
	return &model.Subscriber{ProfileID: pid, Email: email, Name: name}, nil
}

func (f *fakeSubscribers) CreateIgnoringDuplicate(_ context.Context, _ string, email, _ string) error {
	for _, e := range f.emails {
		if e == email {
			return nil
		}
	}
	f.emails = append(f.emails, email)
	return nil
}

func (f *fakeSubscribers) List(context.Context, string) ([]model.Subscriber, error) {
	return f.rows, nil
}

type fakeDomains struct {
	repository.DomainRepository
	rows    map[string]*model.CustomDomain
	deleted []string
}

func (f *fakeDomains) Create(_ context.Context, uid, domain, token string) (*model.CustomDomain, error) {
	for _, d := range f.rows {
		if d.Domain == domain {
			return nil, conflict(repository.MsgDomainTaken)
		}
	}
	d := &model.CustomDomain{ID: linkID, UserID: uid, Domain: domain, VerificationToken: token}
	f.rows[d.ID] = d
	return d, nil
}

func (f *fakeDomains) Get(_ context.Context, uid, id string) (*model.CustomDomain, error) {
	d, ok := f.rows[id]
	if !ok || d.UserID != uid {
		return nil, notFound("Domain not found.")
	}
	return d, nil
}

func (f *fakeDomains) MarkVerified(_ context.Context, _, id string) (*model.CustomDomain, error) {
	f.rows[id].IsVerified = true
	return f.rows[id], nil
}

func (f *fakeDomains) Delete(_ context.Context, _, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.rows, id)
	return nil
}

type fakeProvider struct {
	addErr   error
	verified bool
	added    []string
	removed  []string
}

func (f *fakeProvider) Add(_ context.Context, d string) error {
	f.added = append(f.added, d)
	return f.addErr
}

func (f *fakeProvider) Verify(context.Context, string) (bool, error) { return f.verified, nil }

func (f *fakeProvider) Remove(_ context.Context, d string) error {
	f.removed = append(f.removed, d)
	return nil
}

type fakeTXT struct {
	records map[string]string
}

func (f *fakeTXT) Verify(_ context.Context, domain, token string) (bool, error) {
	return f.records[domain] == token, nil
}

type fakeSubscriptions struct {
	repository.SubscriptionRepository
	row      *model.Subscription
	synced   []model.Subscription
	flags    []*model.FeatureFlags
	statuses map[string]string
	customer string
}

func (f *fakeSubscriptions) Get(context.Context, string) (*model.Subscription, error) {
	return f.row, nil
}

func (f *fakeSubscriptions) GetByCustomerID(_ context.Context, c string) (*model.Subscription, error) {
	if f.row == nil || f.row.StripeCustomerID == nil || *f.row.StripeCustomerID != c {
		return nil, notFound("Subscription not found.")
	}
	return f.row, nil
}

func (f *fakeSubscriptions) SetCustomerID(_ context.Context, uid, c string) error {
	f.customer = c
	f.row = &model.Subscription{UserID: uid, StripeCustomerID: &c, PlanType: "free", Status: model.StatusActive}
	return nil
}

func (f *fakeSubscriptions) Sync(_ context.Context, sub model.Subscription, flags *model.FeatureFlags) error {
	f.synced = append(f.synced, sub)
	f.flags = append(f.flags, flags)
	return nil
}

func (f *fakeSubscriptions) SetStatusByCustomer(_ context.Context, c, status string) error {
	if f.statuses == nil {
		f.statuses = map[string]string{}
	}
	f.statuses[c] = status
	return nil
}

type fakeStripe struct {
	event        stripe.Event
	eventErr     error
	subscription *stripe.Subscription
	customers    int
	checkouts    []billing.CheckoutParams
}

func (f *fakeStripe) CreateCustomer(context.Context, string, string) (string, error) {
	f.customers++
	return "cus_new", nil
}

func (f *fakeStripe) CreateCheckoutSession(_ context.Context, p billing.CheckoutParams) (string, error) {
	f.checkouts = append(f.checkouts, p)
	return "https://checkout.example/s/1", nil
}

func (f *fakeStripe) CreatePortalSession(_ context.Context, customerID, _ string) (string, error) {
	return "https://portal.example/" + customerID, nil
}

func (f *fakeStripe) GetSubscription(context.Context, string) (*stripe.Subscription, error) {
	return f.subscription, nil
}

func (f *fakeStripe) ConstructEvent([]byte, string) (stripe.Event, error) {
	return f.event, f.eventErr
}

func event(t stripe.EventType, raw string) stripe.Event {
	return stripe.Event{ID: "evt_1", Type: t, Data: &stripe.EventData{Raw: json.RawMessage(raw)}}
}
