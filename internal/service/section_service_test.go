package service

import (
	"context"
	"testing"

	"biolink/internal/apperr"
	"biolink/internal/model"
	"biolink/internal/plan"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionsRequireStarter(t *testing.T) {
	p, flags, inv := newPipe()
	sections := &fakeSections{}
	svc := NewSectionService(sections, p, zerolog.Nop())

	res := svc.Create(context.Background(), owner, &SectionInput{Title: "Shop"})
	assert.Equal(t, MsgSections, res.Error)
	assert.Equal(t, apperr.Forbidden, res.Kind)
	assert.Empty(t, sections.created)

	res = svc.Reorder(context.Background(), owner, &ReorderInput{IDs: []string{sectionID}})
	assert.Equal(t, MsgSections, res.Error)
	assert.Empty(t, sections.reordered)

	flags.use(plan.Starter)
	res = svc.Create(context.Background(), owner, &SectionInput{Title: "  Shop  "})
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, "Shop", res.Data.(*model.LinkSection).Title)
	assert.Equal(t, []string{userID}, inv.users)
}

func TestUpdateSectionValidatesTitle(t *testing.T) {
	p, flags, _ := newPipe()
	flags.use(plan.Pro)
	sections := &fakeSections{}
	svc := NewSectionService(sections, p, zerolog.Nop())

	res := svc.Update(context.Background(), owner, &SectionInput{ID: sectionID, Title: "   "})
	assert.Equal(t, apperr.ValidationFailed, res.Kind)
	assert.Empty(t, sections.created)

	res = svc.Update(context.Background(), owner, &SectionInput{ID: sectionID, Title: "Music"})
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, []string{"Music"}, sections.created)
}

func TestDeleteSectionAfterDowngrade(t *testing.T) {
	p, _, inv := newPipe()
	sections := &fakeSections{}
	svc := NewSectionService(sections, p, zerolog.Nop())

	res := svc.Delete(context.Background(), owner, &IDInput{ID: sectionID})
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, []string{sectionID}, sections.deleted)
	assert.Equal(t, []string{userID}, inv.users)
}
