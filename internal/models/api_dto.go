package models

import "net/url"

// SearchIn 表示一次搜索请求的目标范围。
type SearchIn string

const (
	SearchInTitles      SearchIn = "titles"
	SearchInTitlesPosts SearchIn = "titlesposts"
	SearchInPosts       SearchIn = "posts"
	SearchInUsers       SearchIn = "users"
	SearchInTags        SearchIn = "tags"
	SearchInCategories  SearchIn = "categories"
	SearchInBookmarks   SearchIn = "bookmarks"
)

// IsValid 判断 SearchIn 是否为已知范围。
func (s SearchIn) IsValid() bool {
	switch s {
	case SearchInTitles, SearchInTitlesPosts, SearchInPosts,
		SearchInUsers, SearchInTags, SearchInCategories, SearchInBookmarks:
		return true
	}
	return false
}

// IsContentScope 判断该范围是否属于内容搜索（标题/帖子/书签），
// 内容搜索统一受 search:content 能力约束。
func (s SearchIn) IsContentScope() bool {
	switch s {
	case SearchInTitles, SearchInTitlesPosts, SearchInPosts, SearchInBookmarks:
		return true
	}
	return false
}

// MatchWords 表示多个关键词之间的组合方式。
type MatchWords string

const (
	MatchAllWords MatchWords = "all" // 所有词都必须命中
	MatchAnyWords MatchWords = "any" // 任意一个词命中即可
)

// SearchRequest 是查询规范化之后的标准搜索请求。
// 其中所有面向展示插值的用户输入字段在规范化阶段已完成 HTML 转义，
// 下游可以安全地将它们拼入可翻译的界面文案。
type SearchRequest struct {
	Term           string     `json:"term"`           // 原始搜索词（未转义，供引擎使用）
	SearchIn       SearchIn   `json:"searchIn"`       // 搜索范围
	MatchWords     MatchWords `json:"matchWords"`     // 关键词组合方式
	PostedBy       []string   `json:"postedBy"`       // 按作者用户名过滤（已转义）
	CategoryIDs    []string   `json:"categoryIds"`    // 分类过滤，可能包含哨兵值 "all" / "watched"（已转义）
	SearchChildren bool       `json:"searchChildren"` // 是否包含子分类
	HasTags        []string   `json:"hasTags"`        // 标签过滤（已转义）
	RepliesCount   int        `json:"repliesCount"`   // 回复数阈值，>= 0
	RepliesFilter  string     `json:"repliesFilter"`  // "atleast" / "atmost" / ""（已转义）
	TimeRange      string     `json:"timeRange"`      // 时间范围（秒数字符串，已转义）
	TimeFilter     string     `json:"timeFilter"`     // "newer" / "older" / ""（已转义）
	SortBy         string     `json:"sortBy"`         // 排序字段（已转义）
	SortDirection  string     `json:"sortDirection"`  // "asc" / "desc" / ""（已转义）
	Page           int        `json:"page"`           // 页码，恒 >= 1
	ItemsPerPage   int        `json:"itemsPerPage"`   // 每页条数，恒 > 0

	UID      string     `json:"uid"` // 发起请求的用户标识
	RawQuery url.Values `json:"-"`   // 原始请求参数，供授权扩展钩子与渲染层使用
}

// Pagination 描述搜索结果的分页信息。
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`  // 当前页码
	PageCount    int   `json:"pageCount"`    // 总页数，至少为 1
	ItemsPerPage int   `json:"itemsPerPage"` // 每页条数
	TotalItems   int64 `json:"totalItems"`   // 总命中数
}

// SearchResponse 是搜索接口（searchOnly 模式）的响应数据结构。
type SearchResponse struct {
	Matches       []EsPostDocument `json:"matches"`                 // 命中的帖子列表
	Pagination    Pagination       `json:"pagination"`              // 分页信息
	MultiplePages bool             `json:"multiplePages"`           // 是否存在多页
	SearchQuery   string           `json:"search_query"`            // 搜索词的 HTML 转义回显，供模板直接插值
	Term          string           `json:"term"`                    // 原始搜索词
	TimeTakenMs   int64            `json:"time_taken_ms,omitempty"` // 引擎查询耗时
}

// SelectedUser 表示渲染层解析后的"按作者过滤"用户信息。
type SelectedUser struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
}

// SelectedTag 表示渲染层解析后的标签过滤项。
type SelectedTag struct {
	Value string `json:"value"`
	Count int64  `json:"count,omitempty"`
}

// SelectedCategory 表示渲染层解析后的分类过滤项。
type SelectedCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Breadcrumb 是渲染数据中的面包屑项。
type Breadcrumb struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// SearchRenderData 是非 searchOnly 模式下返回给模板层的完整渲染数据。
// 它在 SearchResponse 的基础上追加了筛选器标签与面包屑等 UI 相关内容。
type SearchRenderData struct {
	SearchResponse

	Breadcrumbs        []Breadcrumb       `json:"breadcrumbs"`
	SelectedUsers      []SelectedUser     `json:"selectedUsers"`
	SelectedTags       []SelectedTag      `json:"selectedTags"`
	SelectedCategories []SelectedCategory `json:"selectedCategories"`
	SearchIn           SearchIn           `json:"searchIn"`
	SortBy             string             `json:"sortBy"`
	SortDirection      string             `json:"sortDirection"`
}
