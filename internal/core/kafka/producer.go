package kafka

import (
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	appConfig "github.com/Xushengqwer/forum_search/config"
)

// NewSyncProducer 创建用于死信队列的同步生产者。
func NewSyncProducer(cfg *appConfig.KafkaConfig, saramaConfig *sarama.Config, logger *core.ZapLogger) (sarama.SyncProducer, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		logger.Error("创建 Kafka 同步生产者失败",
			zap.Strings("brokers", cfg.Brokers), zap.Error(err))
		return nil, fmt.Errorf("创建 Kafka 同步生产者失败: %w", err)
	}
	logger.Info("Kafka DLQ 同步生产者创建成功", zap.Strings("brokers", cfg.Brokers))
	return producer, nil
}

// SendToDLQ 将处理失败的原始消息连同失败原因发送到死信队列。
// 原始主题与错误信息放在消息头中，便于排障工具按来源归类。
func SendToDLQ(producer sarama.SyncProducer, dlqTopic string, original *sarama.ConsumerMessage, processingErr error, logger *core.ZapLogger) error {
	if producer == nil || dlqTopic == "" {
		logger.Warn("DLQ 未配置，丢弃处理失败的消息",
			zap.String("original_topic", original.Topic),
			zap.Int64("original_offset", original.Offset),
		)
		return nil
	}

	headers := []sarama.RecordHeader{
		{Key: []byte("dlq_original_topic"), Value: []byte(original.Topic)},
		{Key: []byte("dlq_original_partition"), Value: []byte(fmt.Sprintf("%d", original.Partition))},
		{Key: []byte("dlq_original_offset"), Value: []byte(fmt.Sprintf("%d", original.Offset))},
		{Key: []byte("dlq_error_reason"), Value: []byte(processingErr.Error())},
		{Key: []byte("dlq_failed_at"), Value: []byte(time.Now().UTC().Format(time.RFC3339))},
	}

	msg := &sarama.ProducerMessage{
		Topic:   dlqTopic,
		Key:     sarama.ByteEncoder(original.Key),
		Value:   sarama.ByteEncoder(original.Value),
		Headers: headers,
	}

	partition, offset, err := producer.SendMessage(msg)
	if err != nil {
		logger.Error("发送消息到死信队列失败",
			zap.String("dlq_topic", dlqTopic),
			zap.String("original_topic", original.Topic),
			zap.Int64("original_offset", original.Offset),
			zap.Error(err),
		)
		return fmt.Errorf("发送消息到死信队列 '%s' 失败: %w", dlqTopic, err)
	}

	logger.Warn("处理失败的消息已送入死信队列",
		zap.String("dlq_topic", dlqTopic),
		zap.String("original_topic", original.Topic),
		zap.Int32("dlq_partition", partition),
		zap.Int64("dlq_offset", offset),
		zap.String("error_reason", processingErr.Error()),
	)
	return nil
}
