package config

// SearchConfig 定义了查询规范化阶段使用的默认值与边界。
// 这些值只影响规范化结果，不影响 Elasticsearch 端的行为。
type SearchConfig struct {
	// DefaultSearchIn 是请求未指定搜索范围时使用的默认范围。
	// 为空时回退到 "titlesposts"。
	DefaultSearchIn string `mapstructure:"defaultSearchIn" json:"defaultSearchIn" yaml:"defaultSearchIn"`

	// DefaultSortBy 是请求未指定排序字段时使用的默认排序字段。
	DefaultSortBy string `mapstructure:"defaultSortBy" json:"defaultSortBy" yaml:"defaultSortBy"`

	// DefaultItemsPerPage 是每页条数缺失或非法时使用的默认值。
	DefaultItemsPerPage int `mapstructure:"defaultItemsPerPage" default:"20"`

	// MaxItemsPerPage 是每页条数的上限，防止单次请求拉取过多数据。
	MaxItemsPerPage int `mapstructure:"maxItemsPerPage" default:"100"`
}

// ItemsPerPageOrDefault 返回请求中每页条数的合法值：
// 非正数回退到默认值，超出上限时截断到上限。
func (c SearchConfig) ItemsPerPageOrDefault(requested int) int {
	def := c.DefaultItemsPerPage
	if def <= 0 {
		def = 20
	}
	max := c.MaxItemsPerPage
	if max <= 0 {
		max = 100
	}
	if requested <= 0 {
		return def
	}
	if requested > max {
		return max
	}
	return requested
}
