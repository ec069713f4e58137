package models

import (
	"github.com/Xushengqwer/go-common/models/enums"
)

// KafkaPostUpsertEvent 镜像了论坛内容服务发送的帖子创建/更新事件的结构。
type KafkaPostUpsertEvent struct {
	ID             uint64       `json:"id"`              // 帖子的唯一标识符。
	TopicID        uint64       `json:"topic_id"`        // 所属主题标识符。
	IsMainPost     bool         `json:"is_main_post"`    // 是否为主题首贴。
	Title          string       `json:"title"`           // 主题标题（仅首贴携带）。
	Content        string       `json:"content"`         // 帖子正文。
	AuthorID       string       `json:"author_id"`       // 作者的用户 ID。
	AuthorUsername string       `json:"author_username"` // 作者的用户名。
	CategoryID     string       `json:"category_id"`     // 所属分类 ID。
	CategoryName   string       `json:"category_name"`   // 所属分类名称。
	Tags           []string     `json:"tags"`            // 主题标签。
	Status         enums.Status `json:"status"`          // 帖子审核状态。
	RepliesCount   int64        `json:"replies_count"`   // 所属主题的回复数。
	BookmarkedBy   []string     `json:"bookmarked_by"`   // 收藏用户 ID 列表。
}

// KafkaPostDeleteEvent 镜像了论坛内容服务发送的帖子删除事件的结构。
type KafkaPostDeleteEvent struct {
	Operation string `json:"operation"` // 操作类型，期望值为 "delete"。
	PostID    uint64 `json:"post_id"`   // 需要删除的帖子的唯一标识符。
}
