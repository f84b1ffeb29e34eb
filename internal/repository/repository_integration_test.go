package repository

import (
	"context"
	"os"
	"strings"
	"testing"

	"biolink/internal/apperr"
	"biolink/internal/migrations"
	"biolink/internal/model"
	"biolink/internal/plan"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	runner, err := migrations.New(dsn)
	require.NoError(t, err)
	require.NoError(t, runner.Up())
	require.NoError(t, runner.Close())

	pool, err := NewPool(context.Background(), dsn, PoolOptions{Development: true})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func onboard(t *testing.T, pool *pgxpool.Pool, username string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := NewProfileRepo(pool).Onboard(context.Background(),
		model.Profile{ID: id, Username: username},
		model.DefaultSettings(id),
		plan.Default(id),
		string(plan.Free),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = NewProfileRepo(pool).Delete(context.Background(), id) })
	return id
}

func uniqueName(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString()[:8], "-", "")
}

func positions(links []model.Link) []int {
	out := make([]int, len(links))
	for i, l := range links {
		out[i] = l.Position
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func TestLinkPositionsStayDense(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	userID := onboard(t, pool, uniqueName("dense"))
	links := NewLinkRepo(pool)

	var ids []string
	for _, title := range []string{"a", "b", "c", "d"} {
		l, err := links.Create(ctx, userID, LinkFields{Title: ptr(title), URL: ptr("https://example.com/" + title)})
		require.NoError(t, err)
		ids = append(ids, l.ID)
	}

	all, err := links.List(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, positions(all))
	assert.True(t, all[0].IsActive)

	require.NoError(t, links.Delete(ctx, userID, ids[1]))
	all, err = links.List(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, positions(all))

	require.NoError(t, links.Reorder(ctx, userID, []string{ids[3], ids[2], ids[0]}))
	all, err = links.List(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{ids[3], ids[2], ids[0]}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, []int{0, 1, 2}, positions(all))

	next, err := links.Create(ctx, userID, LinkFields{Title: ptr("e"), URL: ptr("https://example.com/e")})
	require.NoError(t, err)
	assert.Equal(t, 3, next.Position)
}

func TestOwnershipPredicate(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	owner := onboard(t, pool, uniqueName("owner"))
	intruder := onboard(t, pool, uniqueName("intruder"))
	links := NewLinkRepo(pool)

	l, err := links.Create(ctx, owner, LinkFields{Title: ptr("mine"), URL: ptr("https://example.com")})
	require.NoError(t, err)

	_, err = links.Update(ctx, intruder, l.ID, LinkFields{Title: ptr("stolen")})
	assert.True(t, apperr.Is(err, apperr.NotFound))
	assert.True(t, apperr.Is(links.Delete(ctx, intruder, l.ID), apperr.NotFound))
	assert.True(t, apperr.Is(links.Reorder(ctx, intruder, []string{l.ID}), apperr.ValidationFailed))

	got, err := links.Get(ctx, owner, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Title)
}

func TestUsernameIsCaseInsensitive(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	name := uniqueName("Foo")
	onboard(t, pool, name)
	profiles := NewProfileRepo(pool)

	taken, err := profiles.UsernameTaken(ctx, strings.ToLower(name), "")
	require.NoError(t, err)
	assert.True(t, taken)

	p, err := profiles.GetByUsername(ctx, strings.ToUpper(name))
	require.NoError(t, err)
	assert.Equal(t, name, p.Username)

	_, err = profiles.Onboard(ctx, model.Profile{ID: uuid.NewString(), Username: strings.ToLower(name)},
		model.DefaultSettings(""), plan.Default(""), string(plan.Free))
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestSubscriberDuplicates(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	profileID := onboard(t, pool, uniqueName("subs"))
	subs := NewSubscriberRepo(pool)

	_, err := subs.Create(ctx, profileID, "Fan@example.com", "Fan")
	require.NoError(t, err)

	_, err = subs.Create(ctx, profileID, "fan@example.com", "")
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.Conflict, e.Kind)
	assert.Equal(t, MsgAlreadySubscribed, e.Message)

	require.NoError(t, subs.CreateIgnoringDuplicate(ctx, profileID, "FAN@example.com", ""))
	list, err := subs.List(ctx, profileID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSectionDeleteDetachesLinks(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	userID := onboard(t, pool, uniqueName("sect"))
	sections := NewSectionRepo(pool)
	links := NewLinkRepo(pool)

	s, err := sections.Create(ctx, userID, "Music")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Position)

	l, err := links.Create(ctx, userID, LinkFields{Title: ptr("song"), URL: ptr("https://example.com"), SectionID: &s.ID})
	require.NoError(t, err)
	require.NotNil(t, l.SectionID)

	require.NoError(t, sections.Delete(ctx, userID, s.ID))
	l, err = links.Get(ctx, userID, l.ID)
	require.NoError(t, err)
	assert.Nil(t, l.SectionID)
}

func TestFlagsReplaceOverwritesEveryColumn(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	userID := onboard(t, pool, uniqueName("flags"))
	flags := NewFlagsRepo(pool)

	require.NoError(t, flags.Replace(ctx, plan.For(plan.Pro, userID)))
	require.NoError(t, flags.Replace(ctx, plan.For(plan.Starter, userID)))

	got, err := flags.GetFlags(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, plan.For(plan.Starter, userID), *got)

	missing, err := flags.GetFlags(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDomainGlobalUniqueness(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	a := onboard(t, pool, uniqueName("doma"))
	b := onboard(t, pool, uniqueName("domb"))
	domains := NewDomainRepo(pool)
	host := uniqueName("links") + ".example.com"

	_, err := domains.Create(ctx, a, host, "tok")
	require.NoError(t, err)
	_, err = domains.Create(ctx, b, strings.ToUpper(host), "tok2")
	assert.True(t, apperr.Is(err, apperr.Conflict))
}
