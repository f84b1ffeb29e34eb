package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"biolink/internal/apperr"
	"biolink/internal/auth"
	"biolink/internal/model"
	"biolink/internal/pipeline"
	"biolink/internal/render"
	"biolink/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const linkID = "5b6c7d8e-9f0a-4b1c-8d2e-3f4a5b6c7d8e"

func serve(t *testing.T, register func(chi.Router), req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func withOwner(req *http.Request) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: "user-1"}))
}

type stubLinks struct {
	service.LinkService
	updated  *service.UpdateLinkInput
	identity auth.Identity
	clickErr error
}

func (s *stubLinks) Update(_ context.Context, id auth.Identity, in *service.UpdateLinkInput) pipeline.Result {
	s.identity, s.updated = id, in
	return pipeline.Result{Success: "Link updated."}
}

func (s *stubLinks) Create(context.Context, auth.Identity, *service.CreateLinkInput) pipeline.Result {
	return pipeline.Fail(apperr.New(apperr.Forbidden, service.MsgThumbnails))
}

func (s *stubLinks) RecordClick(context.Context, string) error { return s.clickErr }

func TestUpdateLinkTakesIDFromPath(t *testing.T) {
	links := &stubLinks{}
	req := withOwner(httptest.NewRequest(http.MethodPatch, "/api/links/"+linkID, strings.NewReader(`{"title":"New"}`)))

	rec := serve(t, NewLinkHandler(links).RegisterRoutes, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":"Link updated."}`, rec.Body.String())
	assert.Equal(t, linkID, links.updated.ID)
	assert.Equal(t, "New", *links.updated.Title)
	assert.Equal(t, "user-1", links.identity.UserID)
}

func TestFailedResultUsesKindStatus(t *testing.T) {
	req := withOwner(httptest.NewRequest(http.MethodPost, "/api/links", strings.NewReader(`{"title":"a","url":"b"}`)))
	rec := serve(t, NewLinkHandler(&stubLinks{}).RegisterRoutes, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"`+service.MsgThumbnails+`"}`, rec.Body.String())
}

func TestMalformedBody(t *testing.T) {
	for _, body := range []string{`{"title":`, `{"unknown_field":1}`} {
		req := withOwner(httptest.NewRequest(http.MethodPatch, "/api/links/"+linkID, strings.NewReader(body)))
		rec := serve(t, NewLinkHandler(&stubLinks{}).RegisterRoutes, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(t, `{"error":"`+msgBadBody+`"}`, rec.Body.String())
	}
}

func TestClick(t *testing.T) {
	links := &stubLinks{}
	rec := serve(t, NewLinkHandler(links).RegisterPublicRoutes, httptest.NewRequest(http.MethodPost, "/api/links/"+linkID+"/click", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	links.clickErr = errors.New("db down")
	rec = serve(t, NewLinkHandler(links).RegisterPublicRoutes, httptest.NewRequest(http.MethodPost, "/api/links/"+linkID+"/click", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	links.clickErr = apperr.New(apperr.NotFound, "Link not found.")
	rec = serve(t, NewLinkHandler(links).RegisterPublicRoutes, httptest.NewRequest(http.MethodPost, "/api/links/"+linkID+"/click", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type stubSubscribers struct {
	service.SubscriberService
	capture pipeline.Result
	export  pipeline.Result
}

func (s *stubSubscribers) Capture(context.Context, *service.LeadCaptureInput) pipeline.Result {
	return s.capture
}

func (s *stubSubscribers) ExportCSV(context.Context, auth.Identity) pipeline.Result {
	return s.export
}

func TestLeadCaptureResponse(t *testing.T) {
	subs := &stubSubscribers{capture: pipeline.Result{Success: "ok", Data: service.Lead{URL: "https://gated.example"}}}
	body := `{"profile_id":"p","link_id":"l","email":"a@example.com"}`

	rec := serve(t, NewSubscriberHandler(subs).RegisterPublicRoutes, httptest.NewRequest(http.MethodPost, "/api/lead-capture", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"url":"https://gated.example"}`, rec.Body.String())

	subs.capture = pipeline.Fail(apperr.New(apperr.NotFound, "Link not found."))
	rec = serve(t, NewSubscriberHandler(subs).RegisterPublicRoutes, httptest.NewRequest(http.MethodPost, "/api/lead-capture", strings.NewReader(body)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Link not found."}`, rec.Body.String())
}

func TestExportDownload(t *testing.T) {
	subs := &stubSubscribers{export: pipeline.Result{Data: service.CSVExport{Filename: "subscribers.csv", Body: []byte("email,name,created_at\n")}}}

	rec := serve(t, NewSubscriberHandler(subs).RegisterRoutes, withOwner(httptest.NewRequest(http.MethodGet, "/api/subscribers/export", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="subscribers.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "email,name,created_at\n", rec.Body.String())

	subs.export = pipeline.Fail(apperr.New(apperr.NotFound, service.MsgNothingToExport))
	rec = serve(t, NewSubscriberHandler(subs).RegisterRoutes, withOwner(httptest.NewRequest(http.MethodGet, "/api/subscribers/export", nil)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"`+service.MsgNothingToExport+`"}`, rec.Body.String())
}

type stubBilling struct {
	service.BillingService
	err       error
	signature string
	payload   string
}

func (s *stubBilling) HandleWebhook(_ context.Context, payload []byte, signature string) error {
	s.payload, s.signature = string(payload), signature
	return s.err
}

func TestWebhookStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"ok", nil, http.StatusOK, `{"received":true}`},
		{"bad signature", apperr.New(apperr.ValidationFailed, "Invalid webhook signature."), http.StatusBadRequest, `{"error":"Invalid signature."}`},
		{"handler failure", errors.New("db down"), http.StatusInternalServerError, `{"error":"Webhook handler failed."}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			billing := &stubBilling{err: tc.err}
			req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(`{"id":"evt_1"}`))
			req.Header.Set("Stripe-Signature", "t=1,v1=abc")

			rec := serve(t, NewBillingHandler(billing, zerolog.Nop()).RegisterPublicRoutes, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, tc.body, rec.Body.String())
			assert.Equal(t, "t=1,v1=abc", billing.signature)
			assert.Equal(t, `{"id":"evt_1"}`, billing.payload)
		})
	}
}

type pageStore struct {
	profile  *model.Profile
	settings *model.PageSettings
}

func (s *pageStore) GetByUsername(context.Context, string) (*model.Profile, error) {
	if s.profile == nil {
		return nil, apperr.New(apperr.NotFound, "Profile not found.")
	}
	return s.profile, nil
}

func (s *pageStore) GetByVerifiedDomain(ctx context.Context, d string) (*model.Profile, error) {
	return s.GetByUsername(ctx, d)
}

func (s *pageStore) ListActive(context.Context, string) ([]model.Link, error) {
	return []model.Link{{ID: linkID, Title: "Blog", URL: "https://blog.example", IsActive: true}}, nil
}

func (s *pageStore) Get(context.Context, string) (*model.PageSettings, error) { return s.settings, nil }

func (s *pageStore) GetFlags(context.Context, string) (*model.FeatureFlags, error) { return nil, nil }

type emptyList struct{}

func (emptyList) List(context.Context, string) ([]model.LinkSection, error) { return nil, nil }

type emptySocials struct{}

func (emptySocials) List(context.Context, string) ([]model.SocialLink, error) { return nil, nil }

func pages(store *pageStore) *PageHandler {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	a := render.NewAssembler(render.Sources{
		Profiles: store,
		Links:    store,
		Settings: store,
		Flags:    store,
		Sections: emptyList{},
		Socials:  emptySocials{},
	}, "https://biolink.example", zerolog.Nop(), render.WithClock(func() time.Time { return now }))
	return NewPageHandler(a, "https://biolink.example/", zerolog.Nop())
}

func TestPublicPage(t *testing.T) {
	store := &pageStore{profile: &model.Profile{ID: "user-1", Username: "foo", DisplayName: "Foo"}}

	rec := serve(t, pages(store).RegisterRoutes, httptest.NewRequest(http.MethodGet, "/foo", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Blog")

	rec = serve(t, pages(store).RegisterRoutes, httptest.NewRequest(http.MethodGet, "/foo?format=json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var page render.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, "foo", page.Username)
	require.Len(t, page.Unsectioned, 1)
}

func TestPublicPageRedirect(t *testing.T) {
	until := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	s := model.DefaultSettings("user-1")
	s.RedirectURL = "https://launch.example"
	s.RedirectUntil = &until
	store := &pageStore{profile: &model.Profile{ID: "user-1", Username: "foo"}, settings: &s}

	rec := serve(t, pages(store).RegisterRoutes, httptest.NewRequest(http.MethodGet, "/foo", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "https://launch.example", rec.Header().Get("Location"))
}

func TestPublicPageNotFound(t *testing.T) {
	rec := serve(t, pages(&pageStore{}).RegisterRoutes, httptest.NewRequest(http.MethodGet, "/nobody", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="https://biolink.example"`)

	rec = serve(t, pages(&pageStore{}).RegisterRoutes, httptest.NewRequest(http.MethodGet, "/d/links.example.com?format=json", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"`+msgPageNotFound+`"}`, rec.Body.String())
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	rec := serve(t, NewHealthHandler(pinger{}).RegisterRoutes, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, NewHealthHandler(pinger{err: errors.New("down")}).RegisterRoutes, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
