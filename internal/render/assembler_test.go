package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"biolink/internal/apperr"
	"biolink/internal/model"
	"biolink/internal/plan"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	profile  *model.Profile
	links    []model.Link
	settings *model.PageSettings
	flags    *model.FeatureFlags
	sections []model.LinkSection
	socials  []model.SocialLink
	linksErr error
	fetches  atomic.Int32
}

func (f *fakeStore) GetByUsername(_ context.Context, username string) (*model.Profile, error) {
	if f.profile == nil || !strings.EqualFold(f.profile.Username, username) {
		return nil, apperr.New(apperr.NotFound, "Profile not found.")
	}
	return f.profile, nil
}

func (f *fakeStore) GetByVerifiedDomain(_ context.Context, domain string) (*model.Profile, error) {
	if f.profile == nil || domain != "links.example.com" {
		return nil, apperr.New(apperr.NotFound, "Profile not found.")
	}
	return f.profile, nil
}

func (f *fakeStore) ListActive(context.Context, string) ([]model.Link, error) {
	f.fetches.Add(1)
	return f.links, f.linksErr
}

func (f *fakeStore) Get(context.Context, string) (*model.PageSettings, error) {
	return f.settings, nil
}

func (f *fakeStore) GetFlags(context.Context, string) (*model.FeatureFlags, error) {
	return f.flags, nil
}

type sectionSource struct{ s *fakeStore }

func (x sectionSource) List(context.Context, string) ([]model.LinkSection, error) {
	return x.s.sections, nil
}

type socialSource struct{ s *fakeStore }

func (x socialSource) List(context.Context, string) ([]model.SocialLink, error) {
	return x.s.socials, nil
}

type memCache struct {
	data map[string][]byte
}

func (c *memCache) Get(_ context.Context, id string, dst any) (bool, error) {
	raw, ok := c.data[id]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memCache) Set(_ context.Context, id string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[id] = raw
	return nil
}

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newAssembler(s *fakeStore, opts ...Option) *Assembler {
	src := Sources{
		Profiles: s,
		Links:    s,
		Settings: s,
		Flags:    s,
		Sections: sectionSource{s},
		Socials:  socialSource{s},
	}
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	return NewAssembler(src, "https://biolink.example", zerolog.Nop(), opts...)
}

func strPtr(s string) *string { return &s }

func baseStore() *fakeStore {
	return &fakeStore{
		profile: &model.Profile{ID: "u1", Username: "Foo", DisplayName: "Foo Bar"},
		links: []model.Link{
			{ID: "l0", Title: "Home", URL: "https://a.example", Position: 0},
			{ID: "l1", Title: "Song", URL: "https://b.example", Position: 1, SectionID: strPtr("s2")},
			{ID: "l2", Title: "Blog", URL: "https://c.example", Position: 2, SectionID: strPtr("s1")},
		},
		sections: []model.LinkSection{
			{ID: "s1", Title: "Writing", Position: 0},
			{ID: "s2", Title: "Music", Position: 1},
			{ID: "s3", Title: "Empty", Position: 2},
		},
		socials: []model.SocialLink{{ID: "x1", Platform: "github", URL: "https://github.com/foo"}},
	}
}

func TestUnknownUsernameIsNotFound(t *testing.T) {
	out, err := newAssembler(baseStore()).ByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	assert.True(t, out.NotFound)
}

func TestUsernameLookupIgnoresCase(t *testing.T) {
	out, err := newAssembler(baseStore()).ByUsername(context.Background(), "foo")
	require.NoError(t, err)
	require.NotNil(t, out.Page)
	assert.Equal(t, "Foo Bar", out.Page.DisplayName)
}

func TestDomainLookup(t *testing.T) {
	a := newAssembler(baseStore())
	out, err := a.ByDomain(context.Background(), "links.example.com")
	require.NoError(t, err)
	require.NotNil(t, out.Page)

	out, err = a.ByDomain(context.Background(), "unverified.example.com")
	require.NoError(t, err)
	assert.True(t, out.NotFound)
}

func TestDefaultsWhenRowsAbsent(t *testing.T) {
	out, err := newAssembler(baseStore()).ByUsername(context.Background(), "foo")
	require.NoError(t, err)

	p := out.Page
	assert.Equal(t, model.BackgroundSolid, p.Theme.BackgroundType)
	assert.Equal(t, model.DefaultFontFamily, p.Theme.FontFamily)
	assert.True(t, p.ShowBranding)
	assert.Nil(t, p.Subscribe)
	// Free plans have no sections, so every link is unsectioned.
	assert.Len(t, p.Unsectioned, 3)
	assert.Empty(t, p.Sections)
	// Free plans include social icons and the default settings show them.
	assert.Len(t, p.Socials, 1)
}

func TestPartitionKeepsSectionOrderAndDropsEmpty(t *testing.T) {
	s := baseStore()
	s.flags = ptr(plan.For(plan.Starter, "u1"))

	out, err := newAssembler(s).ByUsername(context.Background(), "foo")
	require.NoError(t, err)

	p := out.Page
	require.Len(t, p.Unsectioned, 1)
	assert.Equal(t, "l0", p.Unsectioned[0].ID)
	require.Len(t, p.Sections, 2)
	assert.Equal(t, "Writing", p.Sections[0].Title)
	assert.Equal(t, "l2", p.Sections[0].Links[0].ID)
	assert.Equal(t, "Music", p.Sections[1].Title)
	assert.Equal(t, "l1", p.Sections[1].Links[0].ID)
}

func TestRedirectRule(t *testing.T) {
	settings := model.DefaultSettings("u1")
	settings.RedirectURL = "https://launch.example"

	future := now.Add(time.Hour)
	settings.RedirectUntil = &future
	s := baseStore()
	s.settings = &settings

	out, err := newAssembler(s).ByUsername(context.Background(), "foo")
	require.NoError(t, err)
	assert.Equal(t, "https://launch.example", out.RedirectURL)
	assert.Nil(t, out.Page)

	past := now.Add(-time.Minute)
	settings.RedirectUntil = &past
	out, err = newAssembler(s).ByUsername(context.Background(), "foo")
	require.NoError(t, err)
	assert.Empty(t, out.RedirectURL)
	assert.NotNil(t, out.Page)
}

func TestRedirectIsReevaluatedOnCachedBundle(t *testing.T) {
	settings := model.DefaultSettings("u1")
	settings.RedirectURL = "https://launch.example"
	until := now.Add(time.Minute)
	settings.RedirectUntil = &until
	s := baseStore()
	s.settings = &settings

	clock := now
	cache := &memCache{data: map[string][]byte{}}
	a := newAssembler(s, WithCache(cache), WithClock(func() time.Time { return clock }))

	out, err := a.ByUsername(context.Background(), "foo")
	require.NoError(t, err)
	assert.NotEmpty(t, out.RedirectURL)

	clock = now.Add(2 * time.Minute)
	out, err = a.ByUsername(context.Background(), "foo")
	require.NoError(t, err)
	assert.Empty(t, out.RedirectURL)
	assert.EqualValues(t, 1, s.fetches.Load())
}

func TestFeaturesNeedFlagAndToggle(t *testing.T) {
	settings := model.DefaultSettings("u1")
	settings.ShowSocialIcons = false
	settings.HeaderVideoURL = "https://cdn.example/v.mp4"
	settings.ShowSubscriberForm = true
	settings.HideBranding = true

	s := baseStore()
	s.settings = &settings
	s.flags = ptr(plan.For(plan.Pro, "u1"))

	out, err := newAssembler(s).ByUsername(context.Background(), "foo")
	require.NoError(t, err)
	p := out.Page
	assert.Empty(t, p.Socials)
	assert.Equal(t, "https://cdn.example/v.mp4", p.HeaderVideoURL)
	require.NotNil(t, p.Subscribe)
	assert.Equal(t, "u1", p.Subscribe.ProfileID)
	assert.False(t, p.ShowBranding)

	// Same toggles on a plan without the capabilities.
	s.flags = ptr(plan.For(plan.Free, "u1"))
	out, err = newAssembler(s).ByUsername(context.Background(), "foo")
	require.NoError(t, err)
	p = out.Page
	assert.Empty(t, p.HeaderVideoURL)
	assert.Nil(t, p.Subscribe)
	assert.True(t, p.ShowBranding)
}

func TestPaidThemeFallsBackAfterDowngrade(t *testing.T) {
	settings := model.DefaultSettings("u1")
	settings.BackgroundType = model.BackgroundGradient
	settings.GradientFrom = "#ff0000"
	settings.GradientTo = "#0000ff"
	settings.FontFamily = "poppins"

	s := baseStore()
	s.settings = &settings
	s.flags = ptr(plan.For(plan.Free, "u1"))

	out, err := newAssembler(s).ByUsername(context.Background(), "foo")
	require.NoError(t, err)
	assert.Equal(t, model.BackgroundSolid, out.Page.Theme.BackgroundType)
	assert.Equal(t, model.DefaultFontFamily, out.Page.Theme.FontFamily)

	s.flags = ptr(plan.For(plan.Starter, "u1"))
	out, err = newAssembler(s).ByUsername(context.Background(), "foo")
	require.NoError(t, err)
	assert.Equal(t, model.BackgroundGradient, out.Page.Theme.BackgroundType)
	assert.Equal(t, "poppins", out.Page.Theme.FontFamily)
}

func TestFetchErrorPropagates(t *testing.T) {
	s := baseStore()
	s.linksErr = errors.New("db down")
	_, err := newAssembler(s).ByUsername(context.Background(), "foo")
	assert.Error(t, err)
}

func TestWritePage(t *testing.T) {
	settings := model.DefaultSettings("u1")
	settings.BackgroundType = model.BackgroundGradient
	settings.GradientFrom = "#ff0000"
	settings.GradientTo = "#0000ff"
	settings.ShowSubscriberForm = true
	settings.HideBranding = true

	s := baseStore()
	s.settings = &settings
	s.flags = ptr(plan.For(plan.Pro, "u1"))
	s.links[0].RequiresEmail = true

	out, err := newAssembler(s).ByUsername(context.Background(), "foo")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WritePage(&buf, out.Page))
	html := buf.String()
	assert.Contains(t, html, "<title>Foo Bar</title>")
	assert.Contains(t, html, "linear-gradient(135deg, #ff0000, #0000ff)")
	assert.Contains(t, html, `data-lead data-link-id="l0"`)
	assert.Contains(t, html, "<h2>Writing</h2>")
	assert.Contains(t, html, "data-subscribe")
	assert.NotContains(t, html, "Made with biolink")
}

func TestWriteNotFound(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNotFound(&buf, "https://biolink.example"))
	assert.Contains(t, buf.String(), "This page doesn't exist")
	assert.Contains(t, buf.String(), `href="https://biolink.example"`)
}

func ptr[T any](v T) *T { return &v }
