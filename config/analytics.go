package config

import "time"

// AnalyticsConfig 定义了搜索词统计防抖器的行为参数。
type AnalyticsConfig struct {
	// DebounceWindow 是防抖静默窗口。同一用户在窗口内的每次合格查询
	// 都会重置倒计时，只有静默满该时长后缓冲的查询才会被合并落库。
	// 为零或缺失时使用 constants.DefaultDebounceWindow (5s)。
	DebounceWindow time.Duration `mapstructure:"debounceWindow" default:"5s"`
}
