package repositories

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Xushengqwer/forum_search/internal/models"
)

// scopeFields 把搜索范围映射到参与全文匹配的文档字段。
// 标题字段加权高于正文，保证标题命中的帖子排序靠前。
func scopeFields(searchIn models.SearchIn) []string {
	switch searchIn {
	case models.SearchInTitles:
		return []string{"title^3"}
	case models.SearchInPosts:
		return []string{"content"}
	case models.SearchInUsers:
		return []string{"author_username"}
	case models.SearchInTags:
		return []string{"tags"}
	case models.SearchInCategories:
		return []string{"category_name"}
	default:
		// titlesposts 与 bookmarks 都在标题和正文上匹配
		return []string{"title^3", "content"}
	}
}

// sortField 把外部排序键映射到索引字段。未识别的键回退到按更新时间排序。
func sortField(sortBy string) string {
	switch sortBy {
	case "relevance":
		return "_score"
	case "timestamp":
		return "updated_at"
	case "replies":
		return "replies_count"
	default:
		return "updated_at"
	}
}

// buildSearchQuery 根据规范化后的搜索请求构建 Elasticsearch Query DSL。
// 返回可直接作为搜索请求体的 JSON 字节。
func buildSearchQuery(req models.SearchRequest) ([]byte, error) {
	boolQuery := make(map[string]interface{})

	// 1. 全文匹配部分。matchWords 决定多词之间是"与"还是"或"。
	if req.Term != "" {
		operator := "or"
		if req.MatchWords == models.MatchAllWords {
			operator = "and"
		}
		boolQuery["must"] = []map[string]interface{}{
			{
				"multi_match": map[string]interface{}{
					"query":    req.Term,
					"fields":   scopeFields(req.SearchIn),
					"operator": operator,
				},
			},
		}
	} else {
		boolQuery["must"] = []map[string]interface{}{
			{"match_all": map[string]interface{}{}},
		}
	}

	// 2. 过滤部分。所有条件进 filter 子句，不参与打分。
	var filters []map[string]interface{}

	// 仅标题范围限定在主楼帖子上，避免回复把同一主题刷屏。
	if req.SearchIn == models.SearchInTitles {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"is_main_post": true},
		})
	}

	// 收藏范围只返回当前用户收藏过的帖子。
	if req.SearchIn == models.SearchInBookmarks && req.UID != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"bookmarked_by": req.UID},
		})
	}

	if len(req.PostedBy) > 0 {
		filters = append(filters, map[string]interface{}{
			"terms": map[string]interface{}{"author_username.keyword": req.PostedBy},
		})
	}

	// 版块过滤。"all" 和 "watched" 是前端的占位值，不构成约束。
	var categoryIDs []string
	for _, cid := range req.CategoryIDs {
		if cid == "all" || cid == "watched" {
			continue
		}
		categoryIDs = append(categoryIDs, cid)
	}
	if len(categoryIDs) > 0 {
		filters = append(filters, map[string]interface{}{
			"terms": map[string]interface{}{"category_id": categoryIDs},
		})
	}

	if len(req.HasTags) > 0 {
		filters = append(filters, map[string]interface{}{
			"terms": map[string]interface{}{"tags": req.HasTags},
		})
	}

	// 回复数过滤。atmost 为上限，其余（含默认 atleast）为下限。
	if req.RepliesCount > 0 {
		bound := "gte"
		if req.RepliesFilter == "atmost" {
			bound = "lte"
		}
		filters = append(filters, map[string]interface{}{
			"range": map[string]interface{}{
				"replies_count": map[string]interface{}{bound: req.RepliesCount},
			},
		})
	}

	// 时间范围过滤。timeRange 是以秒计的回溯窗口，
	// newer 表示窗口内更新过的帖子，older 表示窗口之前的帖子。
	if req.TimeRange != "" {
		seconds, err := strconv.ParseInt(req.TimeRange, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("无效的时间范围参数 %q: %w", req.TimeRange, err)
		}
		if seconds > 0 {
			cutoff := time.Now().UTC().Add(-time.Duration(seconds) * time.Second)
			bound := "gte"
			if req.TimeFilter == "older" {
				bound = "lte"
			}
			filters = append(filters, map[string]interface{}{
				"range": map[string]interface{}{
					"updated_at": map[string]interface{}{bound: cutoff.Format(time.RFC3339)},
				},
			})
		}
	}

	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}

	// 3. 排序。主排序键之外追加文档 ID 作为稳定的决胜字段，
	// 保证同分文档在翻页时顺序一致。
	direction := "desc"
	if req.SortDirection == "asc" {
		direction = "asc"
	}
	sortClauses := []map[string]interface{}{
		{sortField(req.SortBy): map[string]interface{}{"order": direction}},
		{"id": map[string]interface{}{"order": "desc"}},
	}

	// 4. 分页。
	itemsPerPage := req.ItemsPerPage
	if itemsPerPage <= 0 {
		itemsPerPage = 20
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}
	from := (page - 1) * itemsPerPage

	query := map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort":  sortClauses,
		"from":  from,
		"size":  itemsPerPage,
		"highlight": map[string]interface{}{
			"pre_tags":  []string{"<strong>"},
			"post_tags": []string{"</strong>"},
			"fields": map[string]interface{}{
				"title":   map[string]interface{}{},
				"content": map[string]interface{}{"fragment_size": 150, "number_of_fragments": 3},
			},
		},
	}

	return json.Marshal(query)
}
