package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/Xushengqwer/forum_search/internal/models"
)

// CounterRepository 维护按集合分组的搜索词累加计数。
// 每个 (set, member) 组合对应一个计数文档，集合名用于区分
// 全量榜和按天分桶的榜单。
type CounterRepository interface {
	// IncrementMember 将指定集合中某成员的计数原子地增加 amount，
	// 文档不存在时以 amount 为初始值创建。
	IncrementMember(ctx context.Context, set string, amount int64, member string) error

	// TopMembers 返回指定集合中计数最高的前 limit 个成员。
	TopMembers(ctx context.Context, set string, limit int) ([]models.TopSearchTerm, error)
}

// esCounterRepository 是 CounterRepository 基于 Elasticsearch 的实现。
// 使用 painless 脚本在服务端完成并发安全的累加。
type esCounterRepository struct {
	client    *elasticsearch.Client
	indexName string
	logger    *core.ZapLogger
}

// NewESCounterRepository 创建计数仓库实例。
func NewESCounterRepository(client *elasticsearch.Client, indexName string, logger *core.ZapLogger) CounterRepository {
	if logger == nil {
		panic("创建 esCounterRepository 失败：Logger 实例不能为 nil")
	}
	if client == nil {
		logger.Fatal("创建 esCounterRepository 失败：Elasticsearch 客户端实例不能为 nil。")
	}
	if indexName == "" {
		logger.Fatal("创建 esCounterRepository 失败：计数索引名称不能为空。")
	}
	logger.Info("Elasticsearch CounterRepository 初始化成功", zap.String("index_name", indexName))
	return &esCounterRepository{
		client:    client,
		indexName: indexName,
		logger:    logger,
	}
}

// counterDocID 生成计数文档的确定性 ID，保证同一集合内
// 同一成员的所有增量都落到同一文档上。
func counterDocID(set, member string) string {
	return set + ":" + member
}

// IncrementMember 通过脚本化 upsert 累加成员计数。
// 脚本在 Elasticsearch 服务端执行，多个并发增量不会互相覆盖。
func (repo *esCounterRepository) IncrementMember(ctx context.Context, set string, amount int64, member string) error {
	now := time.Now().UTC()
	updateBody := map[string]interface{}{
		"script": map[string]interface{}{
			"source": "ctx._source.count += params.amount; ctx._source.last_incremented = params.now;",
			"lang":   "painless",
			"params": map[string]interface{}{
				"amount": amount,
				"now":    now.Format(time.RFC3339),
			},
		},
		"upsert": models.SearchTermCounterES{
			Set:             set,
			Term:            member,
			Count:           amount,
			LastIncremented: now,
		},
	}

	payload, err := json.Marshal(updateBody)
	if err != nil {
		return fmt.Errorf("序列化计数更新请求 (set: %s, member: %s) 失败: %w", set, member, err)
	}

	req := esapi.UpdateRequest{
		Index:      repo.indexName,
		DocumentID: counterDocID(set, member),
		Body:       bytes.NewReader(payload),
		// 版本冲突时由 Elasticsearch 自动重试，避免并发增量丢失
		RetryOnConflict: intPtr(3),
	}

	res, err := req.Do(ctx, repo.client)
	if err != nil {
		repo.logger.Error("执行计数更新请求时发生连接或客户端错误",
			zap.String("set", set), zap.String("member", member), zap.Error(err))
		return fmt.Errorf("Elasticsearch 计数更新请求 (set: %s, member: %s) 失败: %w", set, member, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var errBody strings.Builder
		if res.Body != nil {
			_, _ = io.Copy(&errBody, res.Body)
		}
		repo.logger.Error("Elasticsearch 计数更新失败",
			zap.String("set", set),
			zap.String("member", member),
			zap.String("es_status", res.Status()),
			zap.String("es_error_response_body", errBody.String()),
		)
		return fmt.Errorf("Elasticsearch 计数更新 (set: %s, member: %s) 失败，状态码: %s", set, member, res.Status())
	}

	repo.logger.Debug("搜索词计数已累加",
		zap.String("set", set),
		zap.String("member", member),
		zap.Int64("amount", amount),
	)
	return nil
}

// TopMembers 查询指定集合中计数最高的成员，供热门搜索词接口使用。
func (repo *esCounterRepository) TopMembers(ctx context.Context, set string, limit int) ([]models.TopSearchTerm, error) {
	if limit <= 0 {
		limit = 10
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"set": set}},
				},
			},
		},
		"sort": []map[string]interface{}{
			{"count": map[string]interface{}{"order": "desc"}},
		},
		"size": limit,
	}

	payload, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("序列化热门搜索词查询失败: %w", err)
	}

	searchReq := esapi.SearchRequest{
		Index: []string{repo.indexName},
		Body:  bytes.NewReader(payload),
	}

	res, err := searchReq.Do(ctx, repo.client)
	if err != nil {
		repo.logger.Error("执行热门搜索词查询时发生连接或客户端错误",
			zap.String("set", set), zap.Error(err))
		return nil, fmt.Errorf("Elasticsearch 热门搜索词查询 (set: %s) 失败: %w", set, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var errBody strings.Builder
		if res.Body != nil {
			_, _ = io.Copy(&errBody, res.Body)
		}
		repo.logger.Error("Elasticsearch 热门搜索词查询失败",
			zap.String("set", set),
			zap.String("es_status", res.Status()),
			zap.String("es_error_response_body", errBody.String()),
		)
		return nil, fmt.Errorf("Elasticsearch 热门搜索词查询 (set: %s) 失败，状态码: %s", set, res.Status())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source models.SearchTermCounterES `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("解码热门搜索词响应失败: %w", err)
	}

	terms := make([]models.TopSearchTerm, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		terms = append(terms, models.TopSearchTerm{
			Term:  hit.Source.Term,
			Count: hit.Source.Count,
		})
	}

	repo.logger.Debug("热门搜索词查询完成",
		zap.String("set", set),
		zap.Int("returned", len(terms)),
	)
	return terms, nil
}

func intPtr(v int) *int { return &v }
