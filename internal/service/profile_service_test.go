package service

import (
	"context"
	"net/http"
	"testing"

	"biolink/internal/apperr"
	"biolink/internal/model"
	"biolink/internal/plan"
	"biolink/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteOnboardingCreatesFreeProfile(t *testing.T) {
	p, _, inv := newPipe()
	var gotSettings model.PageSettings
	var gotFlags model.FeatureFlags
	var gotPlan string
	profiles := &fakeProfiles{
		onboard: func(pr model.Profile, s model.PageSettings, f model.FeatureFlags, planType string) (*model.Profile, error) {
			gotSettings, gotFlags, gotPlan = s, f, planType
			return &pr, nil
		},
	}
	svc := NewProfileService(profiles, p, zerolog.Nop())

	res := svc.CompleteOnboarding(context.Background(), owner, &OnboardingInput{Username: "  Foo_Bar "})
	require.True(t, res.OK(), res.Error)

	created := res.Data.(*model.Profile)
	assert.Equal(t, "foo_bar", created.Username)
	assert.Equal(t, "foo_bar", created.DisplayName)
	assert.Equal(t, userID, created.ID)
	assert.Equal(t, model.DefaultSettings(userID), gotSettings)
	assert.Equal(t, plan.For(plan.Free, userID), gotFlags)
	assert.Equal(t, "free", gotPlan)
	assert.Equal(t, []string{userID}, inv.users)
}

func TestUsernameChecksIgnoreCase(t *testing.T) {
	p, _, _ := newPipe()
	profiles := &fakeProfiles{owners: map[string]string{"foo": otherUser}}
	svc := NewProfileService(profiles, p, zerolog.Nop())

	res := svc.CheckUsername(context.Background(), owner, &UsernameInput{Username: "FOO"})
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, UsernameAvailability{Username: "foo", Available: false}, res.Data)

	res = svc.CompleteOnboarding(context.Background(), owner, &OnboardingInput{Username: "Foo"})
	assert.Equal(t, repository.MsgUsernameTaken, res.Error)
	assert.Equal(t, http.StatusConflict, res.Status())
}

func TestCheckUsernameReportsOwnNameUnavailable(t *testing.T) {
	p, _, _ := newPipe()
	profiles := &fakeProfiles{owners: map[string]string{"foo": userID}}
	svc := NewProfileService(profiles, p, zerolog.Nop())

	res := svc.CheckUsername(context.Background(), owner, &UsernameInput{Username: "Foo"})
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, UsernameAvailability{Username: "foo", Available: false, Own: true}, res.Data)

	res = svc.CheckUsername(context.Background(), owner, &UsernameInput{Username: "bar"})
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, UsernameAvailability{Username: "bar", Available: true}, res.Data)
}

func TestCheckUsernameRejectsInvalidNames(t *testing.T) {
	p, _, _ := newPipe()
	svc := NewProfileService(&fakeProfiles{}, p, zerolog.Nop())

	res := svc.CheckUsername(context.Background(), owner, &UsernameInput{Username: "a b"})
	assert.Equal(t, apperr.ValidationFailed, res.Kind)
}

func TestUpdateProfileNormalizesAvatar(t *testing.T) {
	p, _, _ := newPipe()
	var got repository.ProfileUpdate
	profiles := &fakeProfiles{
		update: func(id string, in repository.ProfileUpdate) (*model.Profile, error) {
			got = in
			return &model.Profile{ID: id}, nil
		},
	}
	svc := NewProfileService(profiles, p, zerolog.Nop())

	res := svc.UpdateProfile(context.Background(), owner, &ProfileInput{AvatarURL: strp("cdn.example.com/me.png"), Bio: strp("hi")})
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, "https://cdn.example.com/me.png", *got.AvatarURL)
	assert.Nil(t, got.Username)
}

func TestDeleteAccount(t *testing.T) {
	p, _, _ := newPipe()
	profiles := &fakeProfiles{}
	svc := NewProfileService(profiles, p, zerolog.Nop())

	res := svc.DeleteAccount(context.Background(), owner)
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, []string{userID}, profiles.deleted)
}

func TestGetFlagsDefaultsToFree(t *testing.T) {
	p, flags, _ := newPipe()
	svc := NewProfileService(&fakeProfiles{}, p, zerolog.Nop())

	res := svc.GetFlags(context.Background(), owner)
	require.True(t, res.OK())
	assert.Equal(t, plan.For(plan.Free, userID), res.Data)

	flags.use(plan.Pro)
	res = svc.GetFlags(context.Background(), owner)
	assert.Equal(t, 1000, res.Data.(model.FeatureFlags).MaxLinks)
}
