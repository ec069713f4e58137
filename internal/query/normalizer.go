// Package query 负责把形态松散的原始请求参数（缺失/标量/数组、字符串化的
// 布尔与整数）规范化为标准的 models.SearchRequest。
// 所有强制转换规则集中在这里，下游不再做任何临时纠偏。
package query

import (
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/Xushengqwer/forum_search/config"
	"github.com/Xushengqwer/forum_search/internal/models"
)

// Normalizer 持有规范化所需的配置默认值。
// Normalize 是 (原始参数, 配置默认值, 用户ID) 的纯函数，不做任何 I/O。
type Normalizer struct {
	cfg config.SearchConfig
}

// NewNormalizer 创建 Normalizer 实例。
func NewNormalizer(cfg config.SearchConfig) *Normalizer {
	return &Normalizer{cfg: cfg}
}

// Normalize 把原始查询参数转换为标准搜索请求。
// 关键约定：所有后续会被插值进可翻译界面文案的用户输入
// （作者名、分类 ID、标签值、排序字段、时间范围等）在此处完成 HTML 转义。
// 这是一条防注入契约，而不是显示层的美化。
func (n *Normalizer) Normalize(uid string, raw url.Values) models.SearchRequest {
	req := models.SearchRequest{
		Term:     raw.Get("term"),
		UID:      uid,
		RawQuery: cloneValues(raw),
	}

	req.SearchIn = n.normalizeSearchIn(raw.Get("in"))
	req.MatchWords = normalizeMatchWords(raw.Get("matchWords"))

	// 标量或数组字段：单个标量成为单元素序列，缺失成为空序列。
	req.PostedBy = escapeAll(valuesOf(raw, "by"))
	req.CategoryIDs = escapeAll(valuesOf(raw, "categories"))
	req.HasTags = escapeAll(valuesOf(raw, "hasTags"))

	req.SearchChildren = parseBool(raw.Get("searchChildren"))

	req.RepliesCount = parseNonNegativeInt(raw.Get("repliesCount"))
	req.RepliesFilter = normalizeEnum(raw.Get("repliesFilter"), "atleast", "atmost")
	req.TimeRange = html.EscapeString(raw.Get("timeRange"))
	req.TimeFilter = normalizeEnum(raw.Get("timeFilter"), "newer", "older")

	req.SortBy = html.EscapeString(raw.Get("sortBy"))
	if req.SortBy == "" {
		req.SortBy = n.cfg.DefaultSortBy
	}
	if req.SortBy == "" {
		req.SortBy = "relevance"
	}
	req.SortDirection = normalizeEnum(raw.Get("sortDirection"), "asc", "desc")

	req.Page = parsePage(raw.Get("page"))
	req.ItemsPerPage = n.cfg.ItemsPerPageOrDefault(parseNonNegativeInt(raw.Get("itemsPerPage")))

	return req
}

// normalizeSearchIn 解析搜索范围：请求值非法或缺失时回退到配置默认值，
// 配置也缺失时回退到 "titlesposts"。
func (n *Normalizer) normalizeSearchIn(value string) models.SearchIn {
	in := models.SearchIn(strings.TrimSpace(value))
	if in.IsValid() {
		return in
	}
	if def := models.SearchIn(n.cfg.DefaultSearchIn); def.IsValid() {
		return def
	}
	return models.SearchInTitlesPosts
}

func normalizeMatchWords(value string) models.MatchWords {
	if models.MatchWords(value) == models.MatchAnyWords {
		return models.MatchAnyWords
	}
	return models.MatchAllWords
}

// valuesOf 提取标量或数组形态的参数为有序序列。
// url.Values 天然以 []string 承载重复键；空字符串条目被丢弃。
func valuesOf(raw url.Values, key string) []string {
	out := make([]string, 0, len(raw[key]))
	for _, v := range raw[key] {
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func escapeAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = html.EscapeString(v)
	}
	return out
}

// normalizeEnum 把受限枚举字段收敛到允许值之内，非法输入归空。
// 收敛本身也杜绝了这些字段被用于注入。
func normalizeEnum(value string, allowed ...string) string {
	for _, a := range allowed {
		if value == a {
			return a
		}
	}
	return ""
}

func parseBool(value string) bool {
	return value == "true" || value == "1"
}

// parsePage 将页码钳制到最小值 1，非数字输入也归 1。
func parsePage(value string) int {
	page, err := strconv.Atoi(value)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func parseNonNegativeInt(value string) int {
	v, err := strconv.Atoi(value)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func cloneValues(raw url.Values) url.Values {
	out := make(url.Values, len(raw))
	for k, vs := range raw {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
