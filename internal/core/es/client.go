package es

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	appConfig "github.com/Xushengqwer/forum_search/config"
)

// postsIndexMappingTemplate 是帖子索引的映射定义。
// author_username 同时保留 text 与 keyword 两种形态，
// 前者参与用户范围的全文搜索，后者用于作者过滤与折叠去重。
const postsIndexMappingTemplate = `{
  "settings": {
    "number_of_shards": %d,
    "number_of_replicas": %d
  },
  "mappings": {
    "properties": {
      "id":              { "type": "unsigned_long" },
      "topic_id":        { "type": "unsigned_long" },
      "is_main_post":    { "type": "boolean" },
      "title":           { "type": "text" },
      "content":         { "type": "text" },
      "author_id":       { "type": "keyword" },
      "author_username": {
        "type": "text",
        "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } }
      },
      "category_id":     { "type": "keyword" },
      "category_name":   {
        "type": "text",
        "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } }
      },
      "tags":            { "type": "keyword" },
      "status":          { "type": "integer" },
      "replies_count":   { "type": "long" },
      "bookmarked_by":   { "type": "keyword" },
      "updated_at":      { "type": "date" }
    }
  }
}`

// countersIndexMappingTemplate 是搜索词计数索引的映射定义。
// 文档 ID 为 "<set>:<term>"，set 字段用于区分全量榜与按天分桶的榜单。
const countersIndexMappingTemplate = `{
  "settings": {
    "number_of_shards": %d,
    "number_of_replicas": %d
  },
  "mappings": {
    "properties": {
      "set":              { "type": "keyword" },
      "term":             { "type": "keyword" },
      "count":            { "type": "long" },
      "last_incremented": { "type": "date" }
    }
  }
}`

// NewESClient 创建 Elasticsearch 客户端，验证连通性，
// 并确保帖子索引与计数索引存在。
// transport 允许注入带链路追踪的 HTTP Transport，为 nil 时使用默认值。
func NewESClient(cfg *appConfig.ESConfig, logger *core.ZapLogger, transport http.RoundTripper) (*elasticsearch.Client, error) {
	if cfg == nil || len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("Elasticsearch 配置缺失或地址列表为空")
	}

	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: transport,
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		logger.Error("创建 Elasticsearch 客户端失败", zap.Error(err))
		return nil, fmt.Errorf("创建 Elasticsearch 客户端失败: %w", err)
	}

	// 连通性检查，失败则视为启动失败。
	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := client.Ping(client.Ping.WithContext(pingCtx))
	if err != nil {
		logger.Error("Ping Elasticsearch 失败", zap.Strings("addresses", cfg.Addresses), zap.Error(err))
		return nil, fmt.Errorf("ping Elasticsearch 失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		logger.Error("Elasticsearch Ping 返回错误状态", zap.String("status", res.Status()))
		return nil, fmt.Errorf("Elasticsearch ping 返回错误状态: %s", res.Status())
	}
	logger.Info("成功连接到 Elasticsearch", zap.Strings("addresses", cfg.Addresses))

	// 索引初始化。映射演进需要另行迁移，这里只负责首次创建。
	indexes := []struct {
		spec     appConfig.IndexSpecificConfig
		template string
	}{
		{cfg.PostsIndex, postsIndexMappingTemplate},
		{cfg.CountersIndex, countersIndexMappingTemplate},
	}
	for _, idx := range indexes {
		if err := createIndexIfNotExists(client, idx.spec, idx.template, logger); err != nil {
			return nil, err
		}
	}

	return client, nil
}

// createIndexIfNotExists 检查索引是否存在，不存在时按模板创建。
func createIndexIfNotExists(client *elasticsearch.Client, spec appConfig.IndexSpecificConfig, mappingTemplate string, logger *core.ZapLogger) error {
	if spec.Name == "" {
		return fmt.Errorf("索引名称配置为空")
	}

	existsRes, err := client.Indices.Exists([]string{spec.Name})
	if err != nil {
		logger.Error("检查索引是否存在失败", zap.String("index", spec.Name), zap.Error(err))
		return fmt.Errorf("检查索引 '%s' 是否存在失败: %w", spec.Name, err)
	}
	defer existsRes.Body.Close()

	if existsRes.StatusCode == 200 {
		logger.Info("索引已存在，跳过创建", zap.String("index", spec.Name))
		return nil
	}
	if existsRes.StatusCode != 404 {
		logger.Error("检查索引存在状态时收到意外响应",
			zap.String("index", spec.Name), zap.String("status", existsRes.Status()))
		return fmt.Errorf("检查索引 '%s' 时收到意外状态: %s", spec.Name, existsRes.Status())
	}

	shards := spec.NumberOfShards
	if shards <= 0 {
		shards = 1
	}
	replicas := spec.NumberOfReplicas
	if replicas < 0 {
		replicas = 0
	}
	mapping := fmt.Sprintf(mappingTemplate, shards, replicas)

	createReq := esapi.IndicesCreateRequest{
		Index: spec.Name,
		Body:  strings.NewReader(mapping),
	}
	createRes, err := createReq.Do(context.Background(), client)
	if err != nil {
		logger.Error("创建索引请求失败", zap.String("index", spec.Name), zap.Error(err))
		return fmt.Errorf("创建索引 '%s' 请求失败: %w", spec.Name, err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		logger.Error("创建索引失败",
			zap.String("index", spec.Name), zap.String("status", createRes.Status()))
		return fmt.Errorf("创建索引 '%s' 失败，状态码: %s", spec.Name, createRes.Status())
	}

	logger.Info("索引创建成功",
		zap.String("index", spec.Name),
		zap.Int("shards", shards),
		zap.Int("replicas", replicas),
	)
	return nil
}
