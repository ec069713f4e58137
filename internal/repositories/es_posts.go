package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/Xushengqwer/forum_search/internal/models"
)

// PostRepository 定义了帖子文档在 Elasticsearch 中的持久化与检索操作接口。
// 搜索编排器通过 SearchPosts 把它当作外部搜索引擎使用；
// Kafka 事件服务通过 IndexPost / DeletePost 维护索引内容。
type PostRepository interface {
	// IndexPost 索引（创建或更新）一个帖子文档，以帖子 ID 作为文档 ID 实现幂等。
	IndexPost(ctx context.Context, doc models.EsPostDocument) error

	// DeletePost 按帖子 ID 删除文档；文档不存在视为幂等成功。
	DeletePost(ctx context.Context, postID uint64) error

	// SearchPosts 按规范化后的搜索请求执行查询。
	SearchPosts(ctx context.Context, req models.SearchRequest) (*models.SearchEngineResult, error)
}

// esPostRepository 是 PostRepository 针对 Elasticsearch 的具体实现。
type esPostRepository struct {
	client    *elasticsearch.Client
	indexName string
	logger    *core.ZapLogger
}

// NewESPostRepository 创建帖子仓库实例。关键依赖缺失时快速失败，
// 避免服务以不完整状态启动。
func NewESPostRepository(client *elasticsearch.Client, indexName string, logger *core.ZapLogger) PostRepository {
	if logger == nil {
		panic("创建 esPostRepository 失败：Logger 实例不能为 nil")
	}
	if client == nil {
		logger.Fatal("创建 esPostRepository 失败：Elasticsearch 客户端实例不能为 nil。")
	}
	if indexName == "" {
		logger.Fatal("创建 esPostRepository 失败：帖子索引名称不能为空。")
	}
	logger.Info("Elasticsearch PostRepository 初始化成功", zap.String("index_name", indexName))
	return &esPostRepository{
		client:    client,
		indexName: indexName,
		logger:    logger,
	}
}

// logAndWrapESError 读取错误响应体、记录结构化日志并返回统一格式的错误。
func (repo *esPostRepository) logAndWrapESError(res *esapi.Response, operationDesc string, contextIdentifier interface{}) error {
	var errBody strings.Builder
	if res.Body != nil {
		_, _ = io.Copy(&errBody, res.Body)
	}

	logFields := []zap.Field{
		zap.Any("context_identifier", contextIdentifier),
		zap.String("es_status", res.Status()),
	}
	if body := errBody.String(); body != "" {
		logFields = append(logFields, zap.String("es_error_response_body", body))
	}
	repo.logger.Error(fmt.Sprintf("Elasticsearch 操作 '%s' 失败", operationDesc), logFields...)

	if body := errBody.String(); body != "" {
		return fmt.Errorf("Elasticsearch 操作 '%s' 失败，状态码: %s，响应: %s", operationDesc, res.Status(), body)
	}
	return fmt.Errorf("Elasticsearch 操作 '%s' 失败，状态码: %s", operationDesc, res.Status())
}

// IndexPost 索引（创建或更新）帖子文档。每次写入都刷新 UpdatedAt，
// 供时间范围过滤与按更新时间排序使用。
func (repo *esPostRepository) IndexPost(ctx context.Context, doc models.EsPostDocument) error {
	doc.UpdatedAt = time.Now().UTC()
	doc.Highlights = nil // 高亮只存在于搜索响应中，不写入索引
	docID := strconv.FormatUint(doc.ID, 10)

	payload, err := json.Marshal(doc)
	if err != nil {
		repo.logger.Error("序列化帖子文档失败", zap.Uint64("post_id", doc.ID), zap.Error(err))
		return fmt.Errorf("序列化帖子文档 (ID: %d) 失败: %w", doc.ID, err)
	}

	req := esapi.IndexRequest{
		Index:      repo.indexName,
		DocumentID: docID,
		Body:       bytes.NewReader(payload),
		Refresh:    "false", // 高吞吐事件消费场景下使用异步刷新
	}

	res, err := req.Do(ctx, repo.client)
	if err != nil {
		repo.logger.Error("执行 Elasticsearch 索引请求时发生连接或客户端错误",
			zap.Uint64("post_id", doc.ID), zap.Error(err))
		return fmt.Errorf("Elasticsearch 索引请求 (ID: %d) 失败: %w", doc.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return repo.logAndWrapESError(res, "索引帖子文档", docID)
	}

	repo.logger.Debug("帖子文档索引/更新请求已发送",
		zap.Uint64("post_id", doc.ID),
		zap.String("es_status", res.Status()),
	)
	return nil
}

// DeletePost 按帖子 ID 删除文档。404 视为幂等成功：
// "文档不存在"这一目标状态已经达成，重复删除不报错。
func (repo *esPostRepository) DeletePost(ctx context.Context, postID uint64) error {
	docID := strconv.FormatUint(postID, 10)

	req := esapi.DeleteRequest{
		Index:      repo.indexName,
		DocumentID: docID,
		Refresh:    "false",
	}

	res, err := req.Do(ctx, repo.client)
	if err != nil {
		repo.logger.Error("执行 Elasticsearch 删除请求时发生连接或客户端错误",
			zap.Uint64("post_id", postID), zap.Error(err))
		return fmt.Errorf("Elasticsearch 删除请求 (ID: %d) 失败: %w", postID, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		repo.logger.Warn("待删除的帖子文档不存在，视为操作成功",
			zap.Uint64("post_id", postID))
		return nil
	}
	if res.IsError() {
		return repo.logAndWrapESError(res, "删除帖子文档", docID)
	}

	repo.logger.Info("帖子文档删除请求已发送",
		zap.Uint64("post_id", postID),
		zap.String("es_status", res.Status()),
	)
	return nil
}

// SearchPosts 按规范化请求在帖子索引上执行查询并解析高亮结果。
func (repo *esPostRepository) SearchPosts(ctx context.Context, req models.SearchRequest) (*models.SearchEngineResult, error) {
	repo.logger.Info("开始执行帖子搜索",
		zap.String("term", req.Term),
		zap.String("search_in", string(req.SearchIn)),
		zap.Int("page", req.Page),
		zap.Int("items_per_page", req.ItemsPerPage),
		zap.String("sort_by", req.SortBy),
	)

	queryJSON, err := buildSearchQuery(req)
	if err != nil {
		repo.logger.Error("构建搜索查询 DSL 失败", zap.Any("request", req), zap.Error(err))
		return nil, fmt.Errorf("构建搜索查询失败: %w", err)
	}
	repo.logger.Debug("构建的搜索查询 DSL", zap.ByteString("dsl_query", queryJSON))

	searchReq := esapi.SearchRequest{
		Index:          []string{repo.indexName},
		Body:           bytes.NewReader(queryJSON),
		TrackTotalHits: true,
	}

	res, err := searchReq.Do(ctx, repo.client)
	if err != nil {
		repo.logger.Error("执行 Elasticsearch 搜索请求时发生连接或客户端错误",
			zap.String("term", req.Term), zap.Error(err))
		return nil, fmt.Errorf("Elasticsearch 搜索请求失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, repo.logAndWrapESError(res, "搜索帖子文档", req.Term)
	}

	var esResponse struct {
		Took int `json:"took"`
		Hits struct {
			Total struct {
				Value    int64  `json:"value"`
				Relation string `json:"relation"`
			} `json:"total"`
			Hits []struct {
				Source    models.EsPostDocument `json:"_source"`
				Highlight map[string][]string   `json:"highlight,omitempty"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		repo.logger.Error("解码 Elasticsearch 搜索响应体失败", zap.String("term", req.Term), zap.Error(err))
		return nil, fmt.Errorf("解码 Elasticsearch 搜索响应失败: %w", err)
	}

	result := &models.SearchEngineResult{
		Hits:  make([]models.EsPostDocument, 0, len(esResponse.Hits.Hits)),
		Total: esResponse.Hits.Total.Value,
		Took:  int64(esResponse.Took),
	}
	for _, hit := range esResponse.Hits.Hits {
		doc := hit.Source
		if len(hit.Highlight) > 0 {
			doc.Highlights = hit.Highlight
		}
		result.Hits = append(result.Hits, doc)
	}

	// 按请求的每页条数折算总页数，空结果也至少有 1 页。
	result.PageCount = int((result.Total + int64(req.ItemsPerPage) - 1) / int64(req.ItemsPerPage))
	if result.PageCount < 1 {
		result.PageCount = 1
	}

	repo.logger.Info("帖子搜索完成",
		zap.Int64("total_hits", result.Total),
		zap.Int("returned_hits", len(result.Hits)),
		zap.Int("page_count", result.PageCount),
		zap.Int64("took_ms", result.Took),
	)
	return result, nil
}
