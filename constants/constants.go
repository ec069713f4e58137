package constants

import "time"

// 服务标识，用于链路追踪与日志。
const (
	ServiceName    = "forum-search-service"
	ServiceVersion = "1.0.0"
)

// 搜索词统计相关常量。
// 计数集合的命名约定：全量集合为 "searches:all"，
// 按天集合为 "searches:<当天UTC零点的毫秒时间戳>"。
const (
	// AllTimeCounterSet 是记录所有时间段搜索词计数的集合名称。
	AllTimeCounterSet = "searches:all"

	// DayCounterSetPrefix 是按天分桶的计数集合名称前缀。
	DayCounterSetPrefix = "searches:"

	// DefaultDebounceWindow 是查询统计防抖的默认静默窗口。
	// 用户在窗口内连续输入的多次查询只会触发一次落库。
	DefaultDebounceWindow = 5000 * time.Millisecond

	// MaxTermLength 是单个搜索词写入统计前的最大保留长度（字符数）。
	MaxTermLength = 255

	// MinTermLength 是搜索词参与统计的最小长度，长度小于等于该值的词会被忽略。
	MinTermLength = 2
)
