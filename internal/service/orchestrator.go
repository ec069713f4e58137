package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	"github.com/Xushengqwer/forum_search/constants"
	"github.com/Xushengqwer/forum_search/internal/analytics"
	"github.com/Xushengqwer/forum_search/internal/models"
	"github.com/Xushengqwer/forum_search/internal/privileges"
	"github.com/Xushengqwer/forum_search/internal/query"
	"github.com/Xushengqwer/forum_search/internal/repositories"
)

// ErrAccessDenied 表示当前用户无权在请求的范围内执行搜索。
// 处理器层据此返回 403，而不是把内部错误细节暴露给调用方。
var ErrAccessDenied = errors.New("没有权限在该范围内执行搜索")

// QueryRecorder 抽象了搜索行为的统计记录入口。
// 实现必须是非阻塞的，记录失败不允许影响搜索主流程。
type QueryRecorder interface {
	Record(uid string, rawTerm string, searchIn models.SearchIn, inComposer bool)
}

// SearchService 是搜索流程的编排器：
// 规范化请求 -> 解析权限 -> 鉴权 -> 并行执行引擎查询与统计记录 -> 组装响应。
type SearchService struct {
	normalizer *query.Normalizer
	resolver   *privileges.Resolver
	engine     repositories.PostRepository
	counters   repositories.CounterRepository
	recorder   QueryRecorder
	render     *RenderAssembler
	logger     *core.ZapLogger
}

// NewSearchService 创建搜索编排服务。recorder 和 render 允许为 nil，
// 分别表示关闭搜索统计与只提供 searchOnly 模式。
func NewSearchService(
	normalizer *query.Normalizer,
	resolver *privileges.Resolver,
	engine repositories.PostRepository,
	counters repositories.CounterRepository,
	recorder QueryRecorder,
	render *RenderAssembler,
	logger *core.ZapLogger,
) *SearchService {
	if logger == nil {
		panic("创建 SearchService 失败：Logger 实例不能为 nil")
	}
	if normalizer == nil || resolver == nil || engine == nil {
		logger.Fatal("创建 SearchService 失败：normalizer、resolver 与 engine 均不能为 nil。")
	}
	return &SearchService{
		normalizer: normalizer,
		resolver:   resolver,
		engine:     engine,
		counters:   counters,
		recorder:   recorder,
		render:     render,
		logger:     logger,
	}
}

// Search 执行一次完整的搜索流程并返回响应数据。
// 鉴权失败返回 ErrAccessDenied，此时引擎查询与统计记录都不会发生。
func (s *SearchService) Search(ctx context.Context, uid string, raw url.Values, inComposer bool) (*models.SearchResponse, error) {
	req := s.normalizer.Normalize(uid, raw)

	set, err := s.resolver.Resolve(ctx, uid)
	if err != nil {
		s.logger.Error("解析用户搜索权限失败", zap.String("uid", uid), zap.Error(err))
		return nil, fmt.Errorf("解析用户 (UID: %s) 搜索权限失败: %w", uid, err)
	}
	if !s.resolver.Authorize(ctx, req, set) {
		s.logger.Warn("搜索请求被拒绝：权限不足",
			zap.String("uid", uid),
			zap.String("search_in", string(req.SearchIn)),
		)
		return nil, ErrAccessDenied
	}

	// 统计记录与引擎查询并行。Record 自身只做缓冲，
	// 其后续的计数提交完全脱离本次请求的生命周期。
	if s.recorder != nil {
		go s.recorder.Record(uid, req.Term, req.SearchIn, inComposer)
	}

	result, err := s.engine.SearchPosts(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("执行搜索引擎查询失败: %w", err)
	}

	return s.assembleResponse(req, result), nil
}

// SearchWithRenderData 在 Search 的基础上补全模板渲染所需的
// 筛选器标签与面包屑数据，供非 searchOnly 模式使用。
func (s *SearchService) SearchWithRenderData(ctx context.Context, uid string, raw url.Values, inComposer bool) (*models.SearchRenderData, error) {
	req := s.normalizer.Normalize(uid, raw)

	resp, err := s.Search(ctx, uid, raw, inComposer)
	if err != nil {
		return nil, err
	}

	if s.render == nil {
		return &models.SearchRenderData{SearchResponse: *resp}, nil
	}
	data := s.render.Assemble(ctx, req, *resp)
	return data, nil
}

// TopSearchTerms 返回热门搜索词榜单。day 为零值时查询全量榜，
// 否则查询对应自然日（UTC）的分桶榜。
func (s *SearchService) TopSearchTerms(ctx context.Context, day time.Time, limit int) ([]models.TopSearchTerm, error) {
	if s.counters == nil {
		return nil, errors.New("热门搜索词功能未启用")
	}
	set := constants.AllTimeCounterSet
	if !day.IsZero() {
		set = analytics.DayCounterSet(day)
	}
	terms, err := s.counters.TopMembers(ctx, set, limit)
	if err != nil {
		return nil, fmt.Errorf("查询热门搜索词 (set: %s) 失败: %w", set, err)
	}
	return terms, nil
}

// assembleResponse 把引擎结果组装为对外响应。
// search_query 字段是搜索词的 HTML 转义回显，模板可直接插值。
func (s *SearchService) assembleResponse(req models.SearchRequest, result *models.SearchEngineResult) *models.SearchResponse {
	return &models.SearchResponse{
		Matches: result.Hits,
		Pagination: models.Pagination{
			CurrentPage:  req.Page,
			PageCount:    result.PageCount,
			ItemsPerPage: req.ItemsPerPage,
			TotalItems:   result.Total,
		},
		MultiplePages: result.PageCount > 1,
		SearchQuery:   html.EscapeString(req.Term),
		Term:          req.Term,
		TimeTakenMs:   result.Took,
	}
}
