package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
)

func TestAliasResolver_Defaults(t *testing.T) {
	r := NewAliasResolver(newMockEngine(), newMockRegistry(), "")

	assert.Equal(t, domain.DefaultGlobalAlias, r.GlobalAlias())
	assert.Equal(t, "search-alias-blog-post", r.CollectionAlias("api::blog.post"))
}

func TestAliasResolver_SwapActions_OldIndexExists(t *testing.T) {
	ctx := context.Background()
	engine := newMockEngine()
	require.NoError(t, engine.CreateIndex(ctx, "x_001"))
	r := NewAliasResolver(engine, newMockRegistry(), "")

	actions, err := r.SwapActions(ctx, "alias", "x_001", "x_002")

	require.NoError(t, err)
	assert.Equal(t, []driven.AliasAction{
		driven.RemoveAlias("x_001", "alias"),
		driven.AddAlias("x_002", "alias"),
	}, actions)
}

func TestAliasResolver_SwapActions_OldIndexMissing(t *testing.T) {
	r := NewAliasResolver(newMockEngine(), newMockRegistry(), "")

	actions, err := r.SwapActions(context.Background(), "alias", "x_001", "x_002")

	require.NoError(t, err)
	assert.Equal(t, []driven.AliasAction{driven.AddAlias("x_002", "alias")}, actions)
}

func TestAliasResolver_UpdateGlobalAlias(t *testing.T) {
	ctx := context.Background()
	engine := newMockEngine()
	reg := newMockRegistry()
	require.NoError(t, engine.CreateIndex(ctx, "a_002"))
	require.NoError(t, engine.CreateIndex(ctx, "b_001"))
	require.NoError(t, engine.CreateIndex(ctx, "stale_001"))
	require.NoError(t, engine.UpdateAliases(ctx, []driven.AliasAction{driven.AddAlias("stale_001", "search-all")}))
	reg.records["a"] = domain.NewCollectionIndexRecord("a", "a_002", fixedNow)
	reg.records["b"] = domain.NewCollectionIndexRecord("b", "b_001", fixedNow)
	reg.records["gone"] = domain.NewCollectionIndexRecord("gone", "gone_004", fixedNow)
	r := NewAliasResolver(engine, reg, "search-all")

	warning := r.UpdateGlobalAlias(ctx)

	assert.Nil(t, warning)
	assert.Equal(t, []string{"a_002", "b_001"}, engine.aliasTargets("search-all"))
}

func TestAliasResolver_UpdateGlobalAlias_NoIndices(t *testing.T) {
	engine := newMockEngine()
	reg := newMockRegistry()
	reg.records["gone"] = domain.NewCollectionIndexRecord("gone", "gone_004", fixedNow)
	r := NewAliasResolver(engine, reg, "")

	warning := r.UpdateGlobalAlias(context.Background())

	require.NotNil(t, warning)
	assert.Empty(t, engine.callsWithPrefix("aliases"))
}

func TestAliasResolver_UpdateGlobalAlias_EngineFailureIsWarning(t *testing.T) {
	ctx := context.Background()
	engine := newMockEngine()
	reg := newMockRegistry()
	require.NoError(t, engine.CreateIndex(ctx, "a_001"))
	reg.records["a"] = domain.NewCollectionIndexRecord("a", "a_001", fixedNow)
	engine.errs["UpdateAliases"] = errors.New("boom")
	r := NewAliasResolver(engine, reg, "")

	warning := r.UpdateGlobalAlias(ctx)

	require.NotNil(t, warning)
	assert.Contains(t, warning.String(), "boom")
}

func TestAliasResolver_SearchTarget(t *testing.T) {
	ctx := context.Background()
	engine := newMockEngine()
	r := NewAliasResolver(engine, newMockRegistry(), "search-all")

	target, err := r.SearchTarget(ctx, "api::blog.post", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "search-alias-blog-post", target)

	target, err = r.SearchTarget(ctx, "", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", target)

	require.NoError(t, engine.CreateIndex(ctx, "a_001"))
	require.NoError(t, engine.UpdateAliases(ctx, []driven.AliasAction{driven.AddAlias("a_001", "search-all")}))
	target, err = r.SearchTarget(ctx, "", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "search-all", target)
}
