package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Xushengqwer/gateway/pkg/response"
	"github.com/Xushengqwer/go-common/core"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xushengqwer/forum_search/internal/service"
)

// guestUID 是未登录用户的统一标识。统计与权限判定把所有游客视为同一主体。
const guestUID = "0"

// SearchHandler 负责处理搜索相关的 HTTP 请求。
type SearchHandler struct {
	searchService *service.SearchService
	logger        *core.ZapLogger
}

// NewSearchHandler 创建 SearchHandler 实例。
func NewSearchHandler(searchService *service.SearchService, logger *core.ZapLogger) *SearchHandler {
	if logger == nil {
		panic("创建 SearchHandler 失败：Logger 实例不能为 nil")
	}
	if searchService == nil {
		logger.Fatal("创建 SearchHandler 失败：SearchService 实例不能为 nil。")
	}
	return &SearchHandler{
		searchService: searchService,
		logger:        logger,
	}
}

// RegisterRoutes 在给定的路由组下注册搜索服务的路由。
func (h *SearchHandler) RegisterRoutes(group *gin.RouterGroup) {
	searchGroup := group.Group("/search")
	{
		searchGroup.GET("/search", h.Search)
		searchGroup.GET("/hot-terms", h.HotTerms)
		searchGroup.GET("/_health", h.HealthCheck)
	}
}

// HealthCheck 处理存活检查请求。
// @Summary      服务健康检查
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "服务存活"
// @Router       /api/v1/search/_health [get]
func (h *SearchHandler) HealthCheck(c *gin.Context) {
	response.RespondSuccess(c, gin.H{"status": "ok"}, "服务存活")
}

// requestUID 从请求头解析用户标识，缺失时按游客处理。
// 网关层负责认证并注入 X-User-ID，本服务只消费该头。
func requestUID(c *gin.Context) string {
	uid := c.GetHeader("X-User-ID")
	if uid == "" {
		return guestUID
	}
	return uid
}

// Search 处理搜索请求。
// @Summary      执行论坛搜索
// @Description  按搜索词与过滤条件搜索论坛帖子。searchOnly=true 时仅返回命中结果与分页，否则附带筛选器标签与面包屑等渲染数据。
// @Tags         Search
// @Accept       json
// @Produce      json
// @Param        term           query  string  false  "搜索词"
// @Param        in             query  string  false  "搜索范围 (titles/titlesposts/posts/users/tags/categories/bookmarks)"  default(titlesposts)
// @Param        matchWords     query  string  false  "关键词组合方式 (all/any)"  default(all)
// @Param        by             query  []string false "按作者用户名过滤"  collectionFormat(multi)
// @Param        categories     query  []string false "按分类 ID 过滤"  collectionFormat(multi)
// @Param        searchChildren query  bool    false  "是否包含子分类"
// @Param        hasTags        query  []string false "按标签过滤"  collectionFormat(multi)
// @Param        repliesCount   query  int     false  "回复数阈值"
// @Param        repliesFilter  query  string  false  "回复数过滤方向 (atleast/atmost)"
// @Param        timeRange      query  string  false  "时间范围（秒）"
// @Param        timeFilter     query  string  false  "时间过滤方向 (newer/older)"
// @Param        sortBy         query  string  false  "排序字段 (relevance/timestamp/replies)"
// @Param        sortDirection  query  string  false  "排序方向 (asc/desc)"
// @Param        page           query  int     false  "页码"  default(1)
// @Param        itemsPerPage   query  int     false  "每页条数"  default(20)
// @Param        searchOnly     query  bool    false  "仅返回搜索结果，不组装渲染数据"
// @Param        composer       query  bool    false  "请求是否来自发帖编辑器（此类请求不计入搜索统计）"
// @Param        X-User-ID      header string  false  "用户 ID（网关注入，缺省按游客处理）"
// @Success      200  {object}  models.SwaggerSearchResponse  "搜索成功"
// @Failure      400  {object}  models.SwaggerErrorResponse   "请求参数无效"
// @Failure      403  {object}  models.SwaggerErrorResponse   "没有权限在该范围内搜索"
// @Failure      500  {object}  models.SwaggerErrorResponse   "搜索服务内部错误"
// @Router       /api/v1/search/search [get]
func (h *SearchHandler) Search(c *gin.Context) {
	uid := requestUID(c)
	rawQuery := c.Request.URL.Query()
	searchOnly := rawQuery.Get("searchOnly") == "true" || rawQuery.Get("searchOnly") == "1"
	inComposer := rawQuery.Get("composer") == "true" || rawQuery.Get("composer") == "1"

	if searchOnly {
		result, err := h.searchService.Search(c.Request.Context(), uid, rawQuery, inComposer)
		if err != nil {
			h.respondSearchError(c, uid, err)
			return
		}
		response.RespondSuccess(c, result, "搜索成功")
		return
	}

	result, err := h.searchService.SearchWithRenderData(c.Request.Context(), uid, rawQuery, inComposer)
	if err != nil {
		h.respondSearchError(c, uid, err)
		return
	}
	response.RespondSuccess(c, result, "搜索成功")
}

// respondSearchError 把服务层错误映射为对外的 HTTP 响应。
func (h *SearchHandler) respondSearchError(c *gin.Context, uid string, err error) {
	if errors.Is(err, service.ErrAccessDenied) {
		response.RespondError(c, http.StatusForbidden, response.ErrCodeClientInvalidInput, "没有权限在该范围内执行搜索")
		return
	}
	h.logger.Error("搜索请求处理失败", zap.String("uid", uid), zap.Error(err))
	response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "搜索服务发生内部错误")
}

// HotTerms 处理热门搜索词查询请求。
// @Summary      查询热门搜索词
// @Description  返回计数最高的搜索词榜单。不带 day 参数时查询全量榜，带 day（格式 2006-01-02，UTC）时查询对应自然日的榜单。
// @Tags         Search
// @Produce      json
// @Param        limit  query  int     false  "返回的搜索词数量"  default(10)
// @Param        day    query  string  false  "查询哪一天的榜单（UTC 日期，格式 2006-01-02）"
// @Success      200  {object}  models.SwaggerTopTermsResponse  "查询成功"
// @Failure      400  {object}  models.SwaggerErrorResponse     "请求参数无效"
// @Failure      500  {object}  models.SwaggerErrorResponse     "查询失败"
// @Router       /api/v1/search/hot-terms [get]
func (h *SearchHandler) HotTerms(c *gin.Context) {
	limit := 10
	if rawLimit := c.Query("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed <= 0 || parsed > 100 {
			response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "limit 参数必须是 1 到 100 之间的整数")
			return
		}
		limit = parsed
	}

	var day time.Time
	if rawDay := c.Query("day"); rawDay != "" {
		parsed, err := time.ParseInLocation("2006-01-02", rawDay, time.UTC)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "day 参数格式无效，期望 2006-01-02")
			return
		}
		day = parsed
	}

	terms, err := h.searchService.TopSearchTerms(c.Request.Context(), day, limit)
	if err != nil {
		h.logger.Error("查询热门搜索词失败", zap.Error(err))
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "查询热门搜索词失败")
		return
	}
	response.RespondSuccess(c, terms, "查询成功")
}
