package config

// CapabilityGrantConfig 定义了单项搜索能力的授权规则。
// Default 决定未被点名的用户是否拥有该能力；DeniedUIDs 在默认允许时
// 列出被收回能力的用户；AllowedUIDs 在默认拒绝时列出被单独授予的用户。
type CapabilityGrantConfig struct {
	Default     bool     `mapstructure:"default" json:"default" yaml:"default"`
	AllowedUIDs []string `mapstructure:"allowedUids" json:"allowedUids" yaml:"allowedUids"`
	DeniedUIDs  []string `mapstructure:"deniedUids" json:"deniedUids" yaml:"deniedUids"`
}

// PrivilegesConfig 定义了三项搜索能力的授权后端配置。
// 这是 AuthorizationBackend 的内置实现所依赖的数据；
// 接入外部权限服务时可以整体替换该后端而不改动解析逻辑。
type PrivilegesConfig struct {
	SearchUsers   CapabilityGrantConfig `mapstructure:"searchUsers" json:"searchUsers" yaml:"searchUsers"`
	SearchContent CapabilityGrantConfig `mapstructure:"searchContent" json:"searchContent" yaml:"searchContent"`
	SearchTags    CapabilityGrantConfig `mapstructure:"searchTags" json:"searchTags" yaml:"searchTags"`
}
