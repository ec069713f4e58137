package kafka

import (
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	appConfig "github.com/Xushengqwer/forum_search/config"
)

// ConfigureSarama 根据服务配置生成 Sarama 客户端配置。
// 消费者组与 DLQ 生产者共用这一份基础配置。
func ConfigureSarama(cfg *appConfig.KafkaConfig, logger *core.ZapLogger) (*sarama.Config, error) {
	saramaConfig := sarama.NewConfig()

	version, err := sarama.ParseKafkaVersion(cfg.KafkaVersion)
	if err != nil {
		logger.Error("解析 Kafka 版本失败",
			zap.String("configured_version", cfg.KafkaVersion), zap.Error(err))
		return nil, fmt.Errorf("解析 Kafka 版本 '%s' 失败: %w", cfg.KafkaVersion, err)
	}
	saramaConfig.Version = version

	// 消费者组设置。位移由处理器在消息成功处理（或入 DLQ）后手动标记。
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Group.Session.Timeout = time.Duration(cfg.ConsumerGroup.SessionTimeoutMs) * time.Millisecond

	switch strings.ToLower(cfg.ConsumerGroup.AutoOffsetReset) {
	case "earliest":
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	default:
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	// DLQ 生产者设置。同步发送，确保死信不丢。
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Timeout = cfg.Producer.RequestTimeout
	switch cfg.Producer.Acks {
	case "0":
		saramaConfig.Producer.RequiredAcks = sarama.NoResponse
	case "1":
		saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	default:
		saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	}

	logger.Info("Sarama 配置构建完成",
		zap.String("kafka_version", version.String()),
		zap.String("auto_offset_reset", cfg.ConsumerGroup.AutoOffsetReset),
		zap.String("producer_acks", cfg.Producer.Acks),
	)
	return saramaConfig, nil
}
