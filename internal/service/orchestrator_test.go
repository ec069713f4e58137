package service

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	commonConfig "github.com/Xushengqwer/go-common/config"
	"github.com/Xushengqwer/go-common/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/forum_search/config"
	"github.com/Xushengqwer/forum_search/internal/models"
	"github.com/Xushengqwer/forum_search/internal/privileges"
	"github.com/Xushengqwer/forum_search/internal/query"
)

// fakeEngine 返回固定结果并记录收到的请求。
type fakeEngine struct {
	mu       sync.Mutex
	result   models.SearchEngineResult
	requests []models.SearchRequest
}

func (e *fakeEngine) IndexPost(context.Context, models.EsPostDocument) error { return nil }
func (e *fakeEngine) DeletePost(context.Context, uint64) error               { return nil }

func (e *fakeEngine) SearchPosts(_ context.Context, req models.SearchRequest) (*models.SearchEngineResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requests = append(e.requests, req)
	result := e.result
	return &result, nil
}

func (e *fakeEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.requests)
}

// fakeRecorder 记录统计调用。
type fakeRecorder struct {
	mu    sync.Mutex
	terms []string
}

func (r *fakeRecorder) Record(_ string, rawTerm string, _ models.SearchIn, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.terms = append(r.terms, rawTerm)
}

func (r *fakeRecorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.terms...)
}

// staticBackend 对所有能力查询返回同一个固定结果。
type staticBackend bool

func (b staticBackend) CanPerform(context.Context, privileges.Capability, string) (bool, error) {
	return bool(b), nil
}

func newTestLogger(t *testing.T) *core.ZapLogger {
	t.Helper()
	logger, err := core.NewZapLogger(commonConfig.ZapConfig{Level: "error", Encoding: "json"})
	require.NoError(t, err)
	return logger
}

func newTestService(t *testing.T, backend privileges.AuthorizationBackend, engine *fakeEngine, recorder *fakeRecorder) *SearchService {
	t.Helper()
	logger := newTestLogger(t)
	normalizer := query.NewNormalizer(config.SearchConfig{
		DefaultSearchIn:     "titlesposts",
		DefaultSortBy:       "relevance",
		DefaultItemsPerPage: 20,
		MaxItemsPerPage:     100,
	})
	resolver := privileges.NewResolver(backend, logger)
	render := NewRenderAssembler(nil, nil, nil, logger)
	return NewSearchService(normalizer, resolver, engine, nil, recorder, render, logger)
}

func TestSearchAssemblesResponse(t *testing.T) {
	engine := &fakeEngine{result: models.SearchEngineResult{
		Hits:      []models.EsPostDocument{{ID: 1, Title: "hello"}},
		Total:     45,
		PageCount: 3,
		Took:      12,
	}}
	recorder := &fakeRecorder{}
	svc := newTestService(t, staticBackend(true), engine, recorder)

	raw := url.Values{"term": {`<script>alert(1)</script>`}, "page": {"2"}}
	resp, err := svc.Search(context.Background(), "user-1", raw, false)
	require.NoError(t, err)

	assert.Len(t, resp.Matches, 1)
	assert.Equal(t, 2, resp.Pagination.CurrentPage)
	assert.Equal(t, 3, resp.Pagination.PageCount)
	assert.EqualValues(t, 45, resp.Pagination.TotalItems)
	assert.True(t, resp.MultiplePages)
	assert.EqualValues(t, 12, resp.TimeTakenMs)

	// 回显字段携带转义后的搜索词，原始词保持原样。
	assert.Equal(t, `&lt;script&gt;alert(1)&lt;/script&gt;`, resp.SearchQuery)
	assert.Equal(t, `<script>alert(1)</script>`, resp.Term)

	// 统计记录与请求处理并行，最终一定会发生。
	require.Eventually(t, func() bool {
		return len(recorder.recorded()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSearchDenialShortCircuits(t *testing.T) {
	engine := &fakeEngine{}
	recorder := &fakeRecorder{}
	svc := newTestService(t, staticBackend(false), engine, recorder)

	_, err := svc.Search(context.Background(), "user-1", url.Values{"term": {"secret"}}, false)
	require.ErrorIs(t, err, ErrAccessDenied)

	// 拒绝请求既不触达搜索引擎，也不进入统计。
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, engine.callCount())
	assert.Empty(t, recorder.recorded())
}

func TestSearchWithRenderDataFallsBackToEcho(t *testing.T) {
	engine := &fakeEngine{result: models.SearchEngineResult{PageCount: 1}}
	svc := newTestService(t, staticBackend(true), engine, &fakeRecorder{})

	raw := url.Values{
		"term":       {"golang"},
		"by":         {"alice"},
		"hasTags":    {"kafka"},
		"categories": {"5", "all"},
	}
	data, err := svc.SearchWithRenderData(context.Background(), "user-1", raw, false)
	require.NoError(t, err)

	// 目录依赖缺失时降级为回显过滤值；哨兵分类 "all" 被跳过。
	assert.Equal(t, []models.SelectedUser{{Username: "alice"}}, data.SelectedUsers)
	assert.Equal(t, []models.SelectedTag{{Value: "kafka"}}, data.SelectedTags)
	assert.Equal(t, []models.SelectedCategory{{ID: "5", Name: "5"}}, data.SelectedCategories)
	assert.NotEmpty(t, data.Breadcrumbs)
	assert.Equal(t, models.SearchInTitlesPosts, data.SearchIn)
}

func TestSearchSinglePage(t *testing.T) {
	engine := &fakeEngine{result: models.SearchEngineResult{
		Total:     5,
		PageCount: 1,
	}}
	svc := newTestService(t, staticBackend(true), engine, &fakeRecorder{})

	resp, err := svc.Search(context.Background(), "user-1", url.Values{"term": {"go"}}, false)
	require.NoError(t, err)
	assert.False(t, resp.MultiplePages)
	assert.Equal(t, 1, resp.Pagination.PageCount)
}
