package repositories

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/forum_search/internal/models"
)

func decodeQuery(t *testing.T, req models.SearchRequest) map[string]interface{} {
	t.Helper()
	raw, err := buildSearchQuery(req)
	require.NoError(t, err)
	var query map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &query))
	return query
}

func boolClause(t *testing.T, query map[string]interface{}) map[string]interface{} {
	t.Helper()
	boolQuery, ok := query["query"].(map[string]interface{})["bool"].(map[string]interface{})
	require.True(t, ok)
	return boolQuery
}

func multiMatch(t *testing.T, query map[string]interface{}) map[string]interface{} {
	t.Helper()
	must := boolClause(t, query)["must"].([]interface{})
	require.NotEmpty(t, must)
	mm, ok := must[0].(map[string]interface{})["multi_match"].(map[string]interface{})
	require.True(t, ok)
	return mm
}

func TestBuildSearchQueryScopeFields(t *testing.T) {
	cases := []struct {
		searchIn models.SearchIn
		fields   []interface{}
	}{
		{models.SearchInTitles, []interface{}{"title^3"}},
		{models.SearchInPosts, []interface{}{"content"}},
		{models.SearchInTitlesPosts, []interface{}{"title^3", "content"}},
		{models.SearchInUsers, []interface{}{"author_username"}},
		{models.SearchInTags, []interface{}{"tags"}},
		{models.SearchInCategories, []interface{}{"category_name"}},
		{models.SearchInBookmarks, []interface{}{"title^3", "content"}},
	}
	for _, c := range cases {
		query := decodeQuery(t, models.SearchRequest{
			Term: "go", SearchIn: c.searchIn, Page: 1, ItemsPerPage: 20,
		})
		assert.Equal(t, c.fields, multiMatch(t, query)["fields"], "searchIn=%s", c.searchIn)
	}
}

func TestBuildSearchQueryMatchWordsOperator(t *testing.T) {
	query := decodeQuery(t, models.SearchRequest{
		Term: "go kafka", SearchIn: models.SearchInTitlesPosts,
		MatchWords: models.MatchAllWords, Page: 1, ItemsPerPage: 20,
	})
	assert.Equal(t, "and", multiMatch(t, query)["operator"])

	query = decodeQuery(t, models.SearchRequest{
		Term: "go kafka", SearchIn: models.SearchInTitlesPosts,
		MatchWords: models.MatchAnyWords, Page: 1, ItemsPerPage: 20,
	})
	assert.Equal(t, "or", multiMatch(t, query)["operator"])
}

func TestBuildSearchQueryEmptyTermMatchesAll(t *testing.T) {
	query := decodeQuery(t, models.SearchRequest{
		SearchIn: models.SearchInTitlesPosts, Page: 1, ItemsPerPage: 20,
	})
	must := boolClause(t, query)["must"].([]interface{})
	_, ok := must[0].(map[string]interface{})["match_all"]
	assert.True(t, ok)
}

func TestBuildSearchQueryFilters(t *testing.T) {
	query := decodeQuery(t, models.SearchRequest{
		Term:          "go",
		SearchIn:      models.SearchInTitles,
		PostedBy:      []string{"alice"},
		CategoryIDs:   []string{"all", "5", "watched"},
		HasTags:       []string{"kafka"},
		RepliesCount:  3,
		RepliesFilter: "atmost",
		Page:          1,
		ItemsPerPage:  20,
	})
	filters := boolClause(t, query)["filter"].([]interface{})

	flattened := make([]string, 0, len(filters))
	for _, f := range filters {
		raw, err := json.Marshal(f)
		require.NoError(t, err)
		flattened = append(flattened, string(raw))
	}
	joined := ""
	for _, f := range flattened {
		joined += f
	}

	// 标题范围限定首贴；哨兵分类值不进过滤器；回复数 atmost 用上限。
	assert.Contains(t, joined, `"is_main_post":true`)
	assert.Contains(t, joined, `"author_username.keyword":["alice"]`)
	assert.Contains(t, joined, `"category_id":["5"]`)
	assert.NotContains(t, joined, "watched")
	assert.Contains(t, joined, `"tags":["kafka"]`)
	assert.Contains(t, joined, `"replies_count":{"lte":3}`)
}

func TestBuildSearchQueryBookmarksFilterByUID(t *testing.T) {
	query := decodeQuery(t, models.SearchRequest{
		Term: "go", SearchIn: models.SearchInBookmarks, UID: "user-7",
		Page: 1, ItemsPerPage: 20,
	})
	raw, err := json.Marshal(boolClause(t, query)["filter"])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"bookmarked_by":"user-7"`)
}

func TestBuildSearchQueryInvalidTimeRange(t *testing.T) {
	_, err := buildSearchQuery(models.SearchRequest{
		Term: "go", SearchIn: models.SearchInTitlesPosts,
		TimeRange: "not-a-number", Page: 1, ItemsPerPage: 20,
	})
	assert.Error(t, err)
}

func TestBuildSearchQueryPagination(t *testing.T) {
	query := decodeQuery(t, models.SearchRequest{
		Term: "go", SearchIn: models.SearchInTitlesPosts,
		Page: 3, ItemsPerPage: 25,
	})
	assert.EqualValues(t, 50, query["from"])
	assert.EqualValues(t, 25, query["size"])
}

func TestBuildSearchQuerySortWithStableTieBreak(t *testing.T) {
	query := decodeQuery(t, models.SearchRequest{
		Term: "go", SearchIn: models.SearchInTitlesPosts,
		SortBy: "replies", SortDirection: "asc",
		Page: 1, ItemsPerPage: 20,
	})
	sortClauses := query["sort"].([]interface{})
	require.Len(t, sortClauses, 2)

	first, err := json.Marshal(sortClauses[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"replies_count":{"order":"asc"}}`, string(first))

	second, err := json.Marshal(sortClauses[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":{"order":"desc"}}`, string(second))
}
