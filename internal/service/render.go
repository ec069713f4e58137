package service

import (
	"context"
	"fmt"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	"github.com/Xushengqwer/forum_search/internal/models"
)

// UserDirectory 按用户名批量解析用户信息，供"按作者过滤"标签使用。
type UserDirectory interface {
	UsersByUsernames(ctx context.Context, usernames []string) ([]models.SelectedUser, error)
}

// TagDirectory 解析标签过滤项，并附带各标签的帖子计数。
type TagDirectory interface {
	TagCounts(ctx context.Context, tags []string) ([]models.SelectedTag, error)
}

// CategoryDirectory 按分类 ID 批量解析分类名称。
type CategoryDirectory interface {
	CategoriesByIDs(ctx context.Context, ids []string) ([]models.SelectedCategory, error)
}

// RenderAssembler 把规范化请求与搜索响应组装成模板渲染数据。
// 任何目录查询失败都只降级为回显原始过滤值，不影响搜索结果本身。
type RenderAssembler struct {
	users      UserDirectory
	tags       TagDirectory
	categories CategoryDirectory
	logger     *core.ZapLogger
}

// NewRenderAssembler 创建渲染数据组装器。三个目录依赖都允许为 nil，
// 为 nil 的维度直接回显请求中的原始值。
func NewRenderAssembler(users UserDirectory, tags TagDirectory, categories CategoryDirectory, logger *core.ZapLogger) *RenderAssembler {
	if logger == nil {
		panic("创建 RenderAssembler 失败：Logger 实例不能为 nil")
	}
	return &RenderAssembler{
		users:      users,
		tags:       tags,
		categories: categories,
		logger:     logger,
	}
}

// Assemble 组装完整的渲染数据。
func (a *RenderAssembler) Assemble(ctx context.Context, req models.SearchRequest, resp models.SearchResponse) *models.SearchRenderData {
	data := &models.SearchRenderData{
		SearchResponse: resp,
		SearchIn:       req.SearchIn,
		SortBy:         req.SortBy,
		SortDirection:  req.SortDirection,
	}

	data.SelectedUsers = a.resolveUsers(ctx, req.PostedBy)
	data.SelectedTags = a.resolveTags(ctx, req.HasTags)
	data.SelectedCategories = a.resolveCategories(ctx, req.CategoryIDs)
	data.Breadcrumbs = buildBreadcrumbs(resp.SearchQuery)

	return data
}

func (a *RenderAssembler) resolveUsers(ctx context.Context, usernames []string) []models.SelectedUser {
	if len(usernames) == 0 {
		return []models.SelectedUser{}
	}
	if a.users != nil {
		resolved, err := a.users.UsersByUsernames(ctx, usernames)
		if err == nil {
			return resolved
		}
		a.logger.Warn("解析作者过滤项失败，降级为回显用户名", zap.Error(err))
	}
	fallback := make([]models.SelectedUser, 0, len(usernames))
	for _, name := range usernames {
		fallback = append(fallback, models.SelectedUser{Username: name})
	}
	return fallback
}

func (a *RenderAssembler) resolveTags(ctx context.Context, tags []string) []models.SelectedTag {
	if len(tags) == 0 {
		return []models.SelectedTag{}
	}
	if a.tags != nil {
		resolved, err := a.tags.TagCounts(ctx, tags)
		if err == nil {
			return resolved
		}
		a.logger.Warn("解析标签过滤项失败，降级为回显标签值", zap.Error(err))
	}
	fallback := make([]models.SelectedTag, 0, len(tags))
	for _, tag := range tags {
		fallback = append(fallback, models.SelectedTag{Value: tag})
	}
	return fallback
}

func (a *RenderAssembler) resolveCategories(ctx context.Context, ids []string) []models.SelectedCategory {
	// 哨兵值不是真实分类，渲染层直接跳过。
	real := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "all" || id == "watched" {
			continue
		}
		real = append(real, id)
	}
	if len(real) == 0 {
		return []models.SelectedCategory{}
	}
	if a.categories != nil {
		resolved, err := a.categories.CategoriesByIDs(ctx, real)
		if err == nil {
			return resolved
		}
		a.logger.Warn("解析分类过滤项失败，降级为回显分类 ID", zap.Error(err))
	}
	fallback := make([]models.SelectedCategory, 0, len(real))
	for _, id := range real {
		fallback = append(fallback, models.SelectedCategory{ID: id, Name: id})
	}
	return fallback
}

// buildBreadcrumbs 为搜索结果页生成面包屑。
// searchQuery 已在上游完成 HTML 转义，可直接用于展示文案。
func buildBreadcrumbs(searchQuery string) []models.Breadcrumb {
	crumbs := []models.Breadcrumb{
		{Text: "搜索", URL: "/search"},
	}
	if searchQuery != "" {
		crumbs = append(crumbs, models.Breadcrumb{
			Text: fmt.Sprintf("搜索结果：%s", searchQuery),
		})
	}
	return crumbs
}
