package models

import (
	"time"

	"github.com/Xushengqwer/go-common/models/enums"
)

// EsPostDocument 表示存储在 Elasticsearch 中的论坛帖子文档结构。
type EsPostDocument struct {
	ID             uint64       `json:"id"`              // 帖子唯一标识符。使用 uint64 以兼容 ES 的 unsigned_long 类型。
	TopicID        uint64       `json:"topic_id"`        // 帖子所属主题的标识符。
	IsMainPost     bool         `json:"is_main_post"`    // 是否为主题首贴（标题搜索只命中首贴）。
	Title          string       `json:"title"`           // 主题标题（仅首贴携带）。
	Content        string       `json:"content"`         // 帖子正文。
	AuthorID       string       `json:"author_id"`       // 作者的用户 ID。
	AuthorUsername string       `json:"author_username"` // 作者的用户名。
	CategoryID     string       `json:"category_id"`     // 所属分类 ID。
	CategoryName   string       `json:"category_name"`   // 所属分类名称（冗余存储，供分类范围搜索与渲染）。
	Tags           []string     `json:"tags"`            // 主题标签。
	Status         enums.Status `json:"status" swaggertype:"primitive,integer" example:"1"` // 帖子审核状态。
	RepliesCount   int64        `json:"replies_count"`   // 所属主题的回复数，供回复数过滤。
	BookmarkedBy   []string     `json:"bookmarked_by"`   // 收藏了该帖的用户 ID 列表，供书签范围搜索。
	UpdatedAt      time.Time    `json:"updated_at"`      // 文档在 Elasticsearch 中最后更新的时间戳。

	// Highlights 不入索引，仅在搜索响应中携带高亮片段。
	Highlights map[string][]string `json:"highlights,omitempty"`
}

// SearchEngineResult 是帖子仓库执行搜索后的原始结果，
// 上层编排器在此基础上计算分页元数据。
type SearchEngineResult struct {
	Hits      []EsPostDocument `json:"hits"`      // 命中的帖子列表
	Total     int64            `json:"total"`     // 总命中数
	PageCount int              `json:"pageCount"` // 按请求的每页条数折算出的总页数
	Took      int64            `json:"took_ms"`   // 查询耗时（毫秒）
}
