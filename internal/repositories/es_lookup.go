package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/Xushengqwer/forum_search/internal/models"
)

// ESLookupRepository 基于帖子索引本身解析渲染层需要的目录信息：
// 用户名到用户、分类 ID 到分类名、标签到帖子计数。
// 帖子文档中已经冗余了这些字段，不需要额外的数据源。
type ESLookupRepository struct {
	client    *elasticsearch.Client
	indexName string
	logger    *core.ZapLogger
}

// NewESLookupRepository 创建目录查询仓库实例。
func NewESLookupRepository(client *elasticsearch.Client, indexName string, logger *core.ZapLogger) *ESLookupRepository {
	if logger == nil {
		panic("创建 ESLookupRepository 失败：Logger 实例不能为 nil")
	}
	if client == nil {
		logger.Fatal("创建 ESLookupRepository 失败：Elasticsearch 客户端实例不能为 nil。")
	}
	return &ESLookupRepository{
		client:    client,
		indexName: indexName,
		logger:    logger,
	}
}

// runSearch 执行一次目录查询并把响应解码到 out。
func (repo *ESLookupRepository) runSearch(ctx context.Context, queryBody map[string]interface{}, out interface{}) error {
	payload, err := json.Marshal(queryBody)
	if err != nil {
		return fmt.Errorf("序列化目录查询失败: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{repo.indexName},
		Body:  bytes.NewReader(payload),
	}
	res, err := req.Do(ctx, repo.client)
	if err != nil {
		return fmt.Errorf("Elasticsearch 目录查询请求失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("Elasticsearch 目录查询失败，状态码: %s", res.Status())
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("解码目录查询响应失败: %w", err)
	}
	return nil
}

// UsersByUsernames 从帖子文档中解析用户名对应的用户标识。
// 同一用户名可能出现在多个帖子里，按用户名去重后返回。
func (repo *ESLookupRepository) UsersByUsernames(ctx context.Context, usernames []string) ([]models.SelectedUser, error) {
	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []map[string]interface{}{
					{"terms": map[string]interface{}{"author_username.keyword": usernames}},
				},
			},
		},
		"collapse": map[string]interface{}{"field": "author_id"},
		"_source":  []string{"author_id", "author_username"},
		"size":     len(usernames),
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source struct {
					AuthorID       string `json:"author_id"`
					AuthorUsername string `json:"author_username"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := repo.runSearch(ctx, queryBody, &esResponse); err != nil {
		repo.logger.Warn("按用户名解析用户失败", zap.Strings("usernames", usernames), zap.Error(err))
		return nil, err
	}

	users := make([]models.SelectedUser, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		users = append(users, models.SelectedUser{
			UID:      hit.Source.AuthorID,
			Username: hit.Source.AuthorUsername,
		})
	}
	return users, nil
}

// CategoriesByIDs 从帖子文档中解析分类 ID 对应的分类名。
func (repo *ESLookupRepository) CategoriesByIDs(ctx context.Context, ids []string) ([]models.SelectedCategory, error) {
	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []map[string]interface{}{
					{"terms": map[string]interface{}{"category_id": ids}},
				},
			},
		},
		"collapse": map[string]interface{}{"field": "category_id"},
		"_source":  []string{"category_id", "category_name"},
		"size":     len(ids),
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source struct {
					CategoryID   string `json:"category_id"`
					CategoryName string `json:"category_name"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := repo.runSearch(ctx, queryBody, &esResponse); err != nil {
		repo.logger.Warn("按 ID 解析分类失败", zap.Strings("category_ids", ids), zap.Error(err))
		return nil, err
	}

	categories := make([]models.SelectedCategory, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		categories = append(categories, models.SelectedCategory{
			ID:   hit.Source.CategoryID,
			Name: hit.Source.CategoryName,
		})
	}
	return categories, nil
}

// TagCounts 通过 terms 聚合统计每个标签下的帖子数量。
// 请求中出现但索引里没有任何帖子的标签计数为 0。
func (repo *ESLookupRepository) TagCounts(ctx context.Context, tags []string) ([]models.SelectedTag, error) {
	queryBody := map[string]interface{}{
		"size": 0,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []map[string]interface{}{
					{"terms": map[string]interface{}{"tags": tags}},
				},
			},
		},
		"aggs": map[string]interface{}{
			"tag_counts": map[string]interface{}{
				"terms": map[string]interface{}{
					"field":   "tags",
					"include": tags,
					"size":    len(tags),
				},
			},
		},
	}

	var esResponse struct {
		Aggregations struct {
			TagCounts struct {
				Buckets []struct {
					Key      string `json:"key"`
					DocCount int64  `json:"doc_count"`
				} `json:"buckets"`
			} `json:"tag_counts"`
		} `json:"aggregations"`
	}
	if err := repo.runSearch(ctx, queryBody, &esResponse); err != nil {
		repo.logger.Warn("统计标签帖子数失败", zap.Strings("tags", tags), zap.Error(err))
		return nil, err
	}

	counts := make(map[string]int64, len(esResponse.Aggregations.TagCounts.Buckets))
	for _, bucket := range esResponse.Aggregations.TagCounts.Buckets {
		counts[bucket.Key] = bucket.DocCount
	}

	selected := make([]models.SelectedTag, 0, len(tags))
	for _, tag := range tags {
		selected = append(selected, models.SelectedTag{Value: tag, Count: counts[tag]})
	}
	return selected, nil
}
