package kafka

import (
	"context"
	"errors"

	"github.com/IBM/sarama"
	"github.com/Xushengqwer/go-common/core"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	appConfig "github.com/Xushengqwer/forum_search/config"
)

// messageHandler 是单条消息的业务处理函数。
type messageHandler func(ctx context.Context, messageValue []byte) error

// consumerGroupHandler 实现 sarama.ConsumerGroupHandler，
// 按主题分发消息，失败时指数退避重试，重试耗尽后送 DLQ。
type consumerGroupHandler struct {
	handlers         map[string]messageHandler
	dlqProducer      sarama.SyncProducer
	dlqTopic         string
	maxRetryAttempts uint64
	logger           *core.ZapLogger
	ready            chan bool
}

// newConsumerGroupHandler 创建消费者组处理器。
// upsertTopic 和 deleteTopic 分别绑定到对应的事件处理函数。
func newConsumerGroupHandler(
	cfg *appConfig.KafkaConfig,
	eventService *EventService,
	dlqProducer sarama.SyncProducer,
	logger *core.ZapLogger,
) (*consumerGroupHandler, error) {
	if len(cfg.SubscribedTopics) != 2 {
		return nil, errors.New("kafka 配置必须恰好包含两个订阅主题：帖子写入事件与帖子删除事件")
	}
	upsertTopic, deleteTopic := cfg.SubscribedTopics[0], cfg.SubscribedTopics[1]

	return &consumerGroupHandler{
		handlers: map[string]messageHandler{
			upsertTopic: eventService.HandlePostUpsertEvent,
			deleteTopic: eventService.HandlePostDeleteEvent,
		},
		dlqProducer:      dlqProducer,
		dlqTopic:         cfg.DLQTopic,
		maxRetryAttempts: cfg.MaxRetryAttempts,
		logger:           logger,
		ready:            make(chan bool),
	}, nil
}

// Setup 在消费者会话开始、分区分配完成后调用。
func (h *consumerGroupHandler) Setup(session sarama.ConsumerGroupSession) error {
	h.logger.Info("Kafka 消费者会话建立",
		zap.String("member_id", session.MemberID()),
		zap.Int32("generation_id", session.GenerationID()),
	)
	close(h.ready)
	return nil
}

// Cleanup 在会话结束、重平衡开始前调用。
func (h *consumerGroupHandler) Cleanup(session sarama.ConsumerGroupSession) error {
	h.logger.Info("Kafka 消费者会话清理",
		zap.String("member_id", session.MemberID()),
	)
	return nil
}

// ConsumeClaim 消费分配到的分区。每条消息要么处理成功、
// 要么进入 DLQ，之后才标记位移，保证不丢失事件。
func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				h.logger.Info("消息通道已关闭，停止消费",
					zap.String("topic", claim.Topic()),
					zap.Int32("partition", claim.Partition()),
				)
				return nil
			}
			h.processMessage(session, message)

		case <-session.Context().Done():
			return nil
		}
	}
}

// processMessage 分发并处理单条消息，处理完成后标记位移。
func (h *consumerGroupHandler) processMessage(session sarama.ConsumerGroupSession, message *sarama.ConsumerMessage) {
	handler, found := h.handlers[message.Topic]
	if !found {
		h.logger.Warn("收到未注册主题的消息，直接跳过",
			zap.String("topic", message.Topic),
			zap.Int64("offset", message.Offset),
		)
		session.MarkMessage(message, "")
		return
	}

	err := h.processWithRetry(session.Context(), handler, message)
	if err != nil {
		// 重试耗尽或永久性错误，消息进入 DLQ。
		// DLQ 发送本身失败时只能记录日志，位移照常前进，
		// 否则一条毒消息会卡死整个分区。
		if dlqErr := SendToDLQ(h.dlqProducer, h.dlqTopic, message, err, h.logger); dlqErr != nil {
			h.logger.Error("消息处理失败且无法送入死信队列，消息将被丢弃",
				zap.String("topic", message.Topic),
				zap.Int64("offset", message.Offset),
				zap.Error(dlqErr),
			)
		}
	}
	session.MarkMessage(message, "")
}

// processWithRetry 带指数退避地重试瞬时错误。
// 数据校验类错误被归类为永久性错误，不进行重试。
func (h *consumerGroupHandler) processWithRetry(ctx context.Context, handler messageHandler, message *sarama.ConsumerMessage) error {
	operation := func() error {
		err := handler(ctx, message.Value)
		if err == nil {
			return nil
		}
		if isPermanentError(err) {
			h.logger.Warn("消息处理遇到永久性错误，跳过重试",
				zap.String("topic", message.Topic),
				zap.Int64("offset", message.Offset),
				zap.Error(err),
			)
			return backoff.Permanent(err)
		}
		h.logger.Warn("消息处理失败，准备重试",
			zap.String("topic", message.Topic),
			zap.Int64("offset", message.Offset),
			zap.Error(err),
		)
		return err
	}

	retryPolicy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), h.maxRetryAttempts)
	return backoff.Retry(operation, backoff.WithContext(retryPolicy, ctx))
}

// isPermanentError 判断处理错误是否不可能通过重试恢复。
func isPermanentError(err error) bool {
	return errors.Is(err, ErrInvalidEventFormat) ||
		errors.Is(err, ErrInvalidPostID) ||
		errors.Is(err, ErrEmptyTitle) ||
		errors.Is(err, ErrMissingAuthorID)
}
