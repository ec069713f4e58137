package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	"github.com/Xushengqwer/forum_search/internal/models"
	"github.com/Xushengqwer/forum_search/internal/repositories"
)

// 事件数据校验失败属于永久性错误，重试不可能成功，
// 处理器据此直接送入死信队列而不是反复重试。
var (
	ErrInvalidEventFormat = errors.New("无效的事件消息格式")
	ErrInvalidPostID      = errors.New("事件中的帖子 ID 无效")
	ErrEmptyTitle         = errors.New("首贴事件缺少标题")
	ErrMissingAuthorID    = errors.New("事件缺少作者 ID")
)

// EventService 消费论坛内容服务发出的帖子事件并维护搜索索引。
type EventService struct {
	postRepo repositories.PostRepository
	logger   *core.ZapLogger
}

// NewEventService 创建事件处理服务。
func NewEventService(postRepo repositories.PostRepository, logger *core.ZapLogger) *EventService {
	if logger == nil {
		panic("创建 EventService 失败：Logger 实例不能为 nil")
	}
	if postRepo == nil {
		logger.Fatal("创建 EventService 失败：PostRepository 实例不能为 nil。")
	}
	return &EventService{
		postRepo: postRepo,
		logger:   logger,
	}
}

// HandlePostUpsertEvent 处理帖子创建/更新事件：反序列化、校验并写入索引。
func (s *EventService) HandlePostUpsertEvent(ctx context.Context, messageValue []byte) error {
	var event models.KafkaPostUpsertEvent
	if err := json.Unmarshal(messageValue, &event); err != nil {
		s.logger.Error("反序列化帖子写入事件失败",
			zap.ByteString("message_value", messageValue), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrInvalidEventFormat, err)
	}

	if event.ID == 0 {
		return fmt.Errorf("%w: id=%d", ErrInvalidPostID, event.ID)
	}
	if event.AuthorID == "" {
		return fmt.Errorf("%w: post_id=%d", ErrMissingAuthorID, event.ID)
	}
	if event.IsMainPost && event.Title == "" {
		return fmt.Errorf("%w: post_id=%d", ErrEmptyTitle, event.ID)
	}

	doc := models.EsPostDocument{
		ID:             event.ID,
		TopicID:        event.TopicID,
		IsMainPost:     event.IsMainPost,
		Title:          event.Title,
		Content:        event.Content,
		AuthorID:       event.AuthorID,
		AuthorUsername: event.AuthorUsername,
		CategoryID:     event.CategoryID,
		CategoryName:   event.CategoryName,
		Tags:           event.Tags,
		Status:         event.Status,
		RepliesCount:   event.RepliesCount,
		BookmarkedBy:   event.BookmarkedBy,
	}

	if err := s.postRepo.IndexPost(ctx, doc); err != nil {
		s.logger.Error("写入帖子文档到索引失败",
			zap.Uint64("post_id", event.ID), zap.Error(err))
		return fmt.Errorf("索引帖子 (ID: %d) 失败: %w", event.ID, err)
	}

	s.logger.Info("帖子写入事件处理成功", zap.Uint64("post_id", event.ID))
	return nil
}

// HandlePostDeleteEvent 处理帖子删除事件。删除不存在的帖子视为成功。
func (s *EventService) HandlePostDeleteEvent(ctx context.Context, messageValue []byte) error {
	var event models.KafkaPostDeleteEvent
	if err := json.Unmarshal(messageValue, &event); err != nil {
		s.logger.Error("反序列化帖子删除事件失败",
			zap.ByteString("message_value", messageValue), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrInvalidEventFormat, err)
	}

	if event.Operation != "delete" {
		return fmt.Errorf("%w: 意外的操作类型 %q", ErrInvalidEventFormat, event.Operation)
	}
	if event.PostID == 0 {
		return fmt.Errorf("%w: post_id=%d", ErrInvalidPostID, event.PostID)
	}

	if err := s.postRepo.DeletePost(ctx, event.PostID); err != nil {
		s.logger.Error("从索引删除帖子文档失败",
			zap.Uint64("post_id", event.PostID), zap.Error(err))
		return fmt.Errorf("删除帖子 (ID: %d) 失败: %w", event.PostID, err)
	}

	s.logger.Info("帖子删除事件处理成功", zap.Uint64("post_id", event.PostID))
	return nil
}
