package privileges

import (
	"context"
	"errors"
	"testing"

	commonConfig "github.com/Xushengqwer/go-common/config"
	"github.com/Xushengqwer/go-common/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/forum_search/config"
	"github.com/Xushengqwer/forum_search/internal/models"
)

// stubBackend 按固定表回答能力查询。
type stubBackend struct {
	grants map[Capability]bool
	err    error
}

func (b *stubBackend) CanPerform(_ context.Context, capability Capability, _ string) (bool, error) {
	if b.err != nil {
		return false, b.err
	}
	return b.grants[capability], nil
}

func newTestLogger(t *testing.T) *core.ZapLogger {
	t.Helper()
	logger, err := core.NewZapLogger(commonConfig.ZapConfig{Level: "error", Encoding: "json"})
	require.NoError(t, err)
	return logger
}

func TestResolveMapsCapabilities(t *testing.T) {
	backend := &stubBackend{grants: map[Capability]bool{
		CapabilitySearchUsers:   false,
		CapabilitySearchContent: true,
		CapabilitySearchTags:    true,
	}}
	r := NewResolver(backend, newTestLogger(t))

	set, err := r.Resolve(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, set.CanSearchUsers)
	assert.True(t, set.CanSearchContent)
	assert.True(t, set.CanSearchTags)
}

func TestResolveBackendFailure(t *testing.T) {
	backendErr := errors.New("权限服务不可用")
	r := NewResolver(&stubBackend{err: backendErr}, newTestLogger(t))

	_, err := r.Resolve(context.Background(), "user-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, backendErr)
}

func TestAuthorizeStaticScopeRules(t *testing.T) {
	r := NewResolver(&stubBackend{}, newTestLogger(t))
	set := PrivilegeSet{CanSearchContent: true}

	cases := []struct {
		searchIn models.SearchIn
		allowed  bool
	}{
		{models.SearchInTitles, true},
		{models.SearchInTitlesPosts, true},
		{models.SearchInPosts, true},
		{models.SearchInBookmarks, true},
		{models.SearchInCategories, true}, // 分类浏览不要求能力
		{models.SearchInUsers, false},
		{models.SearchInTags, false},
	}
	for _, c := range cases {
		req := models.SearchRequest{UID: "user-1", SearchIn: c.searchIn}
		assert.Equal(t, c.allowed, r.Authorize(context.Background(), req, set),
			"searchIn=%s", c.searchIn)
	}
}

func TestAuthorizeFilterOverridesDecision(t *testing.T) {
	r := NewResolver(&stubBackend{}, newTestLogger(t))

	// 无任何能力时 tags 范围默认拒绝，钩子将其放行。
	r.RegisterFilter(func(_ context.Context, dctx DecisionContext) bool {
		if dctx.Request.SearchIn == models.SearchInTags && dctx.UID == "moderator" {
			return true
		}
		return dctx.Allowed
	})

	req := models.SearchRequest{UID: "moderator", SearchIn: models.SearchInTags}
	assert.True(t, r.Authorize(context.Background(), req, PrivilegeSet{}))

	req.UID = "user-1"
	assert.False(t, r.Authorize(context.Background(), req, PrivilegeSet{}))
}

func TestAuthorizeFiltersRunInRegistrationOrder(t *testing.T) {
	r := NewResolver(&stubBackend{}, newTestLogger(t))

	r.RegisterFilter(func(_ context.Context, _ DecisionContext) bool { return true })
	r.RegisterFilter(func(_ context.Context, dctx DecisionContext) bool {
		// 后注册的钩子看到前一个钩子的输出。
		assert.True(t, dctx.Allowed)
		return false
	})

	req := models.SearchRequest{UID: "user-1", SearchIn: models.SearchInTitlesPosts}
	assert.False(t, r.Authorize(context.Background(), req, PrivilegeSet{CanSearchContent: true}))
}

func TestConfigBackendPrecedence(t *testing.T) {
	backend := NewConfigBackend(config.PrivilegesConfig{
		SearchUsers: config.CapabilityGrantConfig{
			Default:    true,
			DeniedUIDs: []string{"banned"},
		},
		SearchTags: config.CapabilityGrantConfig{
			Default:     false,
			AllowedUIDs: []string{"curator"},
			DeniedUIDs:  []string{"curator"}, // 拒绝名单压过允许名单
		},
	})
	ctx := context.Background()

	allowed, err := backend.CanPerform(ctx, CapabilitySearchUsers, "anyone")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = backend.CanPerform(ctx, CapabilitySearchUsers, "banned")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = backend.CanPerform(ctx, CapabilitySearchTags, "curator")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = backend.CanPerform(ctx, CapabilitySearchContent, "anyone")
	require.NoError(t, err)
	assert.False(t, allowed)
}
