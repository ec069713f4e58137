package config

import "github.com/Xushengqwer/go-common/config"

// ForumSearchConfig 是论坛搜索服务的顶层配置结构，
// 由 core.LoadConfig 从 YAML 配置文件加载。
type ForumSearchConfig struct {
	Server              config.ServerConfig `mapstructure:"server" json:"server" yaml:"server"`
	ZapConfig           config.ZapConfig    `mapstructure:"zapConfig" json:"zapConfig" yaml:"zapConfig"`
	TracerConfig        config.TracerConfig `mapstructure:"tracerConfig" json:"tracerConfig" yaml:"tracerConfig"`
	KafkaConfig         KafkaConfig         `mapstructure:"kafkaConfig" json:"kafkaConfig" yaml:"kafkaConfig"`
	ElasticsearchConfig ESConfig            `mapstructure:"elasticsearchConfig" json:"elasticsearchConfig" yaml:"elasticsearchConfig"`
	SearchConfig        SearchConfig        `mapstructure:"searchConfig" json:"searchConfig" yaml:"searchConfig"`
	AnalyticsConfig     AnalyticsConfig     `mapstructure:"analyticsConfig" json:"analyticsConfig" yaml:"analyticsConfig"`
	PrivilegesConfig    PrivilegesConfig    `mapstructure:"privilegesConfig" json:"privilegesConfig" yaml:"privilegesConfig"`
}
