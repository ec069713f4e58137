package config

import "time"

// ConsumerGroupConfig 包含 Sarama 消费者组客户端的一些特定配置项。
type ConsumerGroupConfig struct {
	SessionTimeoutMs int    `mapstructure:"sessionTimeoutMs" default:"30000"` // 会话超时时间（毫秒）。
	AutoOffsetReset  string `mapstructure:"autoOffsetReset" default:"latest"` // 起始消费策略 ("latest" 或 "earliest")。
}

// ProducerConfig 包含用于发送消息到 Kafka（特指 DLQ）的生产者客户端配置。
type ProducerConfig struct {
	Acks           string        `mapstructure:"acks" default:"all"`           // 确认级别 ("all", "1", "0")。
	RequestTimeout time.Duration `mapstructure:"requestTimeout" default:"10s"` // 同步生产者发送请求的超时时间。
}

// KafkaConfig 包含帖子事件消费者及其关联的死信队列（DLQ）生产者的所有配置。
// 服务订阅两个主题：帖子写入事件（SubscribedTopics[0]）与帖子删除事件（SubscribedTopics[1]）。
type KafkaConfig struct {
	Brokers          []string            `mapstructure:"brokers"`                                                          // Kafka Broker 地址列表。
	GroupID          string              `mapstructure:"groupId"`                                                          // 消费者组 ID。
	SubscribedTopics []string            `mapstructure:"subscribedTopics" json:"subscribedTopics" yaml:"subscribedTopics"` // 订阅的主题列表。
	DLQTopic         string              `mapstructure:"dlqTopic"`                                                         // 死信队列主题名称。
	KafkaVersion     string              `mapstructure:"kafkaVersion" default:"2.8.0"`                                     // Kafka 集群版本，用于 Sarama 兼容性。
	MaxRetryAttempts uint64              `mapstructure:"maxRetryAttempts" default:"3"`                                     // 处理消息失败时的最大重试次数。
	ConsumerGroup    ConsumerGroupConfig `mapstructure:"consumerGroup"`                                                    // 消费者组详细设置。
	Producer         ProducerConfig      `mapstructure:"producer"`                                                         // DLQ 生产者设置。
}
