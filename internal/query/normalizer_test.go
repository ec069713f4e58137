package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Xushengqwer/forum_search/config"
	"github.com/Xushengqwer/forum_search/internal/models"
)

func defaultTestConfig() config.SearchConfig {
	return config.SearchConfig{
		DefaultSearchIn:     "titlesposts",
		DefaultSortBy:       "relevance",
		DefaultItemsPerPage: 20,
		MaxItemsPerPage:     100,
	}
}

func TestNormalizeDefaults(t *testing.T) {
	n := NewNormalizer(defaultTestConfig())
	req := n.Normalize("42", url.Values{})

	assert.Equal(t, "42", req.UID)
	assert.Equal(t, models.SearchInTitlesPosts, req.SearchIn)
	assert.Equal(t, models.MatchAllWords, req.MatchWords)
	assert.Equal(t, "relevance", req.SortBy)
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, 20, req.ItemsPerPage)
	assert.Empty(t, req.PostedBy)
	assert.Empty(t, req.CategoryIDs)
	assert.Empty(t, req.HasTags)
}

func TestNormalizeScalarBecomesSingletonList(t *testing.T) {
	n := NewNormalizer(defaultTestConfig())
	raw := url.Values{
		"categories": {"5"},
		"by":         {"alice"},
	}
	req := n.Normalize("1", raw)

	assert.Equal(t, []string{"5"}, req.CategoryIDs)
	assert.Equal(t, []string{"alice"}, req.PostedBy)
}

func TestNormalizeRepeatedKeysKeepOrder(t *testing.T) {
	n := NewNormalizer(defaultTestConfig())
	raw := url.Values{
		"hasTags": {"kafka", "", "elasticsearch"},
	}
	req := n.Normalize("1", raw)

	// 空条目被丢弃，其余保持请求中的顺序。
	assert.Equal(t, []string{"kafka", "elasticsearch"}, req.HasTags)
}

func TestNormalizeEscapesDisplayBoundFields(t *testing.T) {
	n := NewNormalizer(defaultTestConfig())
	raw := url.Values{
		"by":         {`<b>bob</b>`},
		"categories": {`"5"`},
	}
	req := n.Normalize("1", raw)

	assert.Equal(t, []string{"&lt;b&gt;bob&lt;/b&gt;"}, req.PostedBy)
	assert.Equal(t, []string{"&#34;5&#34;"}, req.CategoryIDs)
}

func TestNormalizePageClamping(t *testing.T) {
	n := NewNormalizer(defaultTestConfig())

	cases := map[string]int{
		"":    1,
		"abc": 1,
		"0":   1,
		"-3":  1,
		"7":   7,
	}
	for input, expected := range cases {
		req := n.Normalize("1", url.Values{"page": {input}})
		assert.Equal(t, expected, req.Page, "page=%q", input)
	}
}

func TestNormalizeItemsPerPageBounds(t *testing.T) {
	n := NewNormalizer(defaultTestConfig())

	req := n.Normalize("1", url.Values{"itemsPerPage": {"0"}})
	assert.Equal(t, 20, req.ItemsPerPage)

	req = n.Normalize("1", url.Values{"itemsPerPage": {"500"}})
	assert.Equal(t, 100, req.ItemsPerPage)

	req = n.Normalize("1", url.Values{"itemsPerPage": {"50"}})
	assert.Equal(t, 50, req.ItemsPerPage)
}

func TestNormalizeEnumNarrowing(t *testing.T) {
	n := NewNormalizer(defaultTestConfig())
	raw := url.Values{
		"in":            {"nonsense"},
		"matchWords":    {"bogus"},
		"repliesFilter": {"exactly"},
		"timeFilter":    {"newer"},
		"sortDirection": {"sideways"},
	}
	req := n.Normalize("1", raw)

	// 非法范围回退到配置默认值，受限枚举的非法值归空。
	assert.Equal(t, models.SearchInTitlesPosts, req.SearchIn)
	assert.Equal(t, models.MatchAllWords, req.MatchWords)
	assert.Equal(t, "", req.RepliesFilter)
	assert.Equal(t, "newer", req.TimeFilter)
	assert.Equal(t, "", req.SortDirection)
}

func TestNormalizeBooleanCoercion(t *testing.T) {
	n := NewNormalizer(defaultTestConfig())

	assert.True(t, n.Normalize("1", url.Values{"searchChildren": {"true"}}).SearchChildren)
	assert.True(t, n.Normalize("1", url.Values{"searchChildren": {"1"}}).SearchChildren)
	assert.False(t, n.Normalize("1", url.Values{"searchChildren": {"yes"}}).SearchChildren)
	assert.False(t, n.Normalize("1", url.Values{}).SearchChildren)
}

func TestNormalizeKeepsRawQuerySnapshot(t *testing.T) {
	n := NewNormalizer(defaultTestConfig())
	raw := url.Values{"term": {"go"}}
	req := n.Normalize("1", raw)

	// 快照与原始参数解耦，调用方后续修改不会影响已规范化的请求。
	raw.Set("term", "changed")
	assert.Equal(t, "go", req.RawQuery.Get("term"))
}
