package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	appConfig "github.com/Xushengqwer/forum_search/config"
)

// StartConsumerGroup 启动帖子事件消费者组并阻塞等待首次分区分配完成。
// 消费循环在后台 goroutine 中运行，ctx 取消后自行退出并关闭客户端。
func StartConsumerGroup(
	ctx context.Context,
	cfg *appConfig.KafkaConfig,
	eventService *EventService,
	dlqProducer sarama.SyncProducer,
	logger *core.ZapLogger,
) error {
	saramaConfig, err := ConfigureSarama(cfg, logger)
	if err != nil {
		return err
	}

	handler, err := newConsumerGroupHandler(cfg, eventService, dlqProducer, logger)
	if err != nil {
		return err
	}

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		logger.Error("创建 Kafka 消费者组失败",
			zap.Strings("brokers", cfg.Brokers),
			zap.String("group_id", cfg.GroupID),
			zap.Error(err),
		)
		return fmt.Errorf("创建 Kafka 消费者组 '%s' 失败: %w", cfg.GroupID, err)
	}

	// 消费者组内部错误单独记录，不中断消费循环。
	go func() {
		for err := range group.Errors() {
			logger.Error("Kafka 消费者组运行时错误", zap.Error(err))
		}
	}()

	go func() {
		defer func() {
			if err := group.Close(); err != nil {
				logger.Error("关闭 Kafka 消费者组失败", zap.Error(err))
			}
			logger.Info("Kafka 消费者组已关闭")
		}()

		for {
			// 重平衡后 Consume 会返回，需要在新一轮会话中重新进入。
			if err := group.Consume(ctx, cfg.SubscribedTopics, handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				logger.Error("Kafka 消费循环出错", zap.Error(err))
			}
			if ctx.Err() != nil {
				return
			}
			handler.ready = make(chan bool)
		}
	}()

	// 等待首次分区分配，保证服务就绪时消费链路已经建立。
	select {
	case <-handler.ready:
		logger.Info("Kafka 消费者组启动完成",
			zap.String("group_id", cfg.GroupID),
			zap.Strings("topics", cfg.SubscribedTopics),
		)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
