package kafka

import (
	"context"
	"sync"
	"testing"

	commonConfig "github.com/Xushengqwer/go-common/config"
	"github.com/Xushengqwer/go-common/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/forum_search/internal/models"
)

// fakePostRepo 记录索引与删除调用。
type fakePostRepo struct {
	mu      sync.Mutex
	indexed []models.EsPostDocument
	deleted []uint64
}

func (r *fakePostRepo) IndexPost(_ context.Context, doc models.EsPostDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexed = append(r.indexed, doc)
	return nil
}

func (r *fakePostRepo) DeletePost(_ context.Context, postID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, postID)
	return nil
}

func (r *fakePostRepo) SearchPosts(context.Context, models.SearchRequest) (*models.SearchEngineResult, error) {
	return &models.SearchEngineResult{}, nil
}

func newTestLogger(t *testing.T) *core.ZapLogger {
	t.Helper()
	logger, err := core.NewZapLogger(commonConfig.ZapConfig{Level: "error", Encoding: "json"})
	require.NoError(t, err)
	return logger
}

func TestHandlePostUpsertEvent(t *testing.T) {
	repo := &fakePostRepo{}
	svc := NewEventService(repo, newTestLogger(t))

	payload := []byte(`{
		"id": 501, "topic_id": 101, "is_main_post": true,
		"title": "搜索设计讨论", "content": "正文内容",
		"author_id": "user-1", "author_username": "alice",
		"category_id": "5", "category_name": "后端技术",
		"tags": ["search"], "status": 1, "replies_count": 2
	}`)
	require.NoError(t, svc.HandlePostUpsertEvent(context.Background(), payload))

	require.Len(t, repo.indexed, 1)
	doc := repo.indexed[0]
	assert.EqualValues(t, 501, doc.ID)
	assert.Equal(t, "搜索设计讨论", doc.Title)
	assert.Equal(t, []string{"search"}, doc.Tags)
}

func TestHandlePostUpsertEventValidation(t *testing.T) {
	repo := &fakePostRepo{}
	svc := NewEventService(repo, newTestLogger(t))
	ctx := context.Background()

	err := svc.HandlePostUpsertEvent(ctx, []byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidEventFormat)

	err = svc.HandlePostUpsertEvent(ctx, []byte(`{"id":0,"author_id":"u"}`))
	assert.ErrorIs(t, err, ErrInvalidPostID)

	err = svc.HandlePostUpsertEvent(ctx, []byte(`{"id":7}`))
	assert.ErrorIs(t, err, ErrMissingAuthorID)

	err = svc.HandlePostUpsertEvent(ctx, []byte(`{"id":7,"author_id":"u","is_main_post":true}`))
	assert.ErrorIs(t, err, ErrEmptyTitle)

	// 回复帖允许没有标题。
	err = svc.HandlePostUpsertEvent(ctx, []byte(`{"id":7,"author_id":"u","content":"回复"}`))
	assert.NoError(t, err)

	assert.Len(t, repo.indexed, 1)
}

func TestHandlePostDeleteEvent(t *testing.T) {
	repo := &fakePostRepo{}
	svc := NewEventService(repo, newTestLogger(t))
	ctx := context.Background()

	require.NoError(t, svc.HandlePostDeleteEvent(ctx, []byte(`{"operation":"delete","post_id":503}`)))
	assert.Equal(t, []uint64{503}, repo.deleted)

	err := svc.HandlePostDeleteEvent(ctx, []byte(`{"operation":"update","post_id":503}`))
	assert.ErrorIs(t, err, ErrInvalidEventFormat)

	err = svc.HandlePostDeleteEvent(ctx, []byte(`{"operation":"delete","post_id":0}`))
	assert.ErrorIs(t, err, ErrInvalidPostID)
}

func TestIsPermanentError(t *testing.T) {
	assert.True(t, isPermanentError(ErrInvalidEventFormat))
	assert.True(t, isPermanentError(ErrInvalidPostID))
	assert.False(t, isPermanentError(context.DeadlineExceeded))
}
