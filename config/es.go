package config

// IndexSpecificConfig 定义了单个 Elasticsearch 索引的特定配置，如分片和副本数。
type IndexSpecificConfig struct {
	Name             string `mapstructure:"name" json:"name" yaml:"name"`                                     // 索引的名称
	NumberOfShards   int    `mapstructure:"numberOfShards" json:"numberOfShards" yaml:"numberOfShards"`       // 该索引的主分片数量
	NumberOfReplicas int    `mapstructure:"numberOfReplicas" json:"numberOfReplicas" yaml:"numberOfReplicas"` // 该索引的每个主分片的副本数量
}

// ESConfig 定义了 Elasticsearch 的连接和索引配置。
type ESConfig struct {
	Addresses []string `mapstructure:"addresses" json:"addresses" yaml:"addresses"`
	Username  string   `mapstructure:"username" json:"username" yaml:"username"`
	Password  string   `mapstructure:"password" json:"password" yaml:"password"`

	// 论坛帖子索引的配置，搜索引擎在该索引上执行查询。
	PostsIndex IndexSpecificConfig `mapstructure:"postsIndex" json:"postsIndex" yaml:"postsIndex"`

	// 搜索词计数索引的配置。防抖器落库的全量集合与按天集合
	// 都以文档形式存放在这一个索引中（文档 ID 为 "<集合名>:<词>"）。
	CountersIndex IndexSpecificConfig `mapstructure:"countersIndex" json:"countersIndex" yaml:"countersIndex"`
}
