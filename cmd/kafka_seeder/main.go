package main

import (
	"encoding/json"
	"flag"
	"log"
	"path/filepath"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/Xushengqwer/go-common/core"
	"github.com/Xushengqwer/go-common/models/enums"
	"go.uber.org/zap"

	"github.com/Xushengqwer/forum_search/config"
	internalKafka "github.com/Xushengqwer/forum_search/internal/core/kafka"
	"github.com/Xushengqwer/forum_search/internal/models"
)

// 本工具向服务订阅的主题发送一批论坛帖子的测试事件，
// 用于本地验证 Kafka 消费链路与索引写入。
func main() {
	var configFile string
	defaultConfigPath := filepath.Join("..", "..", "config", "config.development.yaml")
	flag.StringVar(&configFile, "config", defaultConfigPath, "指定配置文件的路径 (相对于当前工作目录或绝对路径)")
	flag.Parse()

	if !filepath.IsAbs(configFile) {
		absPath, err := filepath.Abs(configFile)
		if err != nil {
			log.Fatalf("无法将配置文件路径 '%s' 转换为绝对路径: %v", configFile, err)
		}
		configFile = absPath
	}

	var cfg config.ForumSearchConfig
	if err := core.LoadConfig(configFile, &cfg); err != nil {
		log.Fatalf("致命错误: 加载配置文件 '%s' 失败: %v", configFile, err)
	}

	logger, loggerErr := core.NewZapLogger(cfg.ZapConfig)
	if loggerErr != nil {
		log.Fatalf("致命错误: 初始化 ZapLogger 失败: %v", loggerErr)
	}
	defer func() {
		if err := logger.Logger().Sync(); err != nil {
			log.Printf("警告: ZapLogger Sync 操作失败: %v\n", err)
		}
	}()

	kafkaCfg := cfg.KafkaConfig
	if len(kafkaCfg.SubscribedTopics) < 2 {
		logger.Fatal("Kafka 配置错误：subscribedTopics 至少需要包含两个主题 (帖子写入与帖子删除)。")
	}
	upsertTopic := kafkaCfg.SubscribedTopics[0]
	deleteTopic := kafkaCfg.SubscribedTopics[1]
	logger.Info("Kafka Seeder 将使用以下主题",
		zap.String("upsert_topic", upsertTopic),
		zap.String("delete_topic", deleteTopic),
	)

	saramaConfig, err := internalKafka.ConfigureSarama(&kafkaCfg, logger)
	if err != nil {
		logger.Fatal("配置 Sarama (Kafka 客户端库) 失败", zap.Error(err))
	}

	producer, err := sarama.NewSyncProducer(kafkaCfg.Brokers, saramaConfig)
	if err != nil {
		logger.Fatal("创建 Kafka 同步生产者失败", zap.Error(err))
	}
	defer func() {
		if err := producer.Close(); err != nil {
			logger.Error("关闭 Kafka 同步生产者时发生错误", zap.Error(err))
		}
	}()

	// 一个主题首贴加两条回复，再附带一条独立主题的首贴，
	// 覆盖标题搜索、正文搜索、标签与收藏过滤的各种组合。
	upsertEvents := []models.KafkaPostUpsertEvent{
		{
			ID:             501,
			TopicID:        101,
			IsMainPost:     true,
			Title:          "如何为大型论坛设计全文搜索",
			Content:        "分享一下我们在千万级帖子规模下落地 Elasticsearch 的经验。",
			AuthorID:       "user_es_01",
			AuthorUsername: "搜索架构师",
			CategoryID:     "5",
			CategoryName:   "后端技术",
			Tags:           []string{"elasticsearch", "search"},
			Status:         enums.Status(1),
			RepliesCount:   2,
			BookmarkedBy:   []string{"user_fan_09"},
		},
		{
			ID:             502,
			TopicID:        101,
			IsMainPost:     false,
			Content:        "分词器的选择对中文搜索效果影响很大，建议对比 ik 和 smartcn。",
			AuthorID:       "user_nlp_02",
			AuthorUsername: "分词爱好者",
			CategoryID:     "5",
			CategoryName:   "后端技术",
			Status:         enums.Status(1),
			RepliesCount:   2,
		},
		{
			ID:             503,
			TopicID:        101,
			IsMainPost:     false,
			Content:        "补充一点：高亮片段的长度要和前端展示宽度对齐，否则截断很难看。",
			AuthorID:       "user_fe_03",
			AuthorUsername: "前端小鱼",
			CategoryID:     "5",
			CategoryName:   "后端技术",
			Status:         enums.Status(1),
			RepliesCount:   2,
		},
		{
			ID:             504,
			TopicID:        102,
			IsMainPost:     true,
			Title:          "Kafka 消费者组重平衡踩坑记录",
			Content:        "记录一次 session timeout 配置不当导致的频繁重平衡问题。",
			AuthorID:       "user_mq_04",
			AuthorUsername: "消息队列老兵",
			CategoryID:     "7",
			CategoryName:   "中间件",
			Tags:           []string{"kafka"},
			Status:         enums.Status(1),
			RepliesCount:   0,
			BookmarkedBy:   []string{"user_fan_09", "user_fan_10"},
		},
	}

	for _, event := range upsertEvents {
		sendEvent(producer, upsertTopic, strconv.FormatUint(event.ID, 10), event, logger)
	}

	// 删除一条已存在的回复和一条从未出现过的帖子，
	// 后者用于验证删除操作的幂等性。
	deleteEvents := []models.KafkaPostDeleteEvent{
		{Operation: "delete", PostID: 503},
		{Operation: "delete", PostID: 999},
	}
	for _, event := range deleteEvents {
		sendEvent(producer, deleteTopic, strconv.FormatUint(event.PostID, 10), event, logger)
	}

	logger.Info("所有测试事件均已发送完毕。")
}

// sendEvent 序列化并同步发送单条事件。
func sendEvent(producer sarama.SyncProducer, topic string, key string, event interface{}, logger *core.ZapLogger) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("序列化测试事件失败", zap.String("key", key), zap.Error(err))
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
	}
	partition, offset, err := producer.SendMessage(msg)
	if err != nil {
		logger.Error("发送测试事件到 Kafka 失败",
			zap.String("topic", topic), zap.String("key", key), zap.Error(err))
		return
	}
	logger.Info("测试事件已发送",
		zap.String("topic", topic),
		zap.String("key", key),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	time.Sleep(100 * time.Millisecond)
}
