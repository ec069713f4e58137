package models

import "time"

// SearchTermCounterES 定义在 Elasticsearch 中存储搜索词计数的文档结构。
// 一条文档对应 (集合, 词) 二元组，文档 ID 为 "<集合名>:<词>"。
// Count 只增不减，由 painless 脚本原子递增。
type SearchTermCounterES struct {
	Set             string    `json:"set"`               // 计数集合名称，如 "searches:all" 或 "searches:<day>"
	Term            string    `json:"term"`              // 规范化后的搜索词
	Count           int64     `json:"count"`             // 累计计数
	LastIncremented time.Time `json:"last_incremented"` // 最近一次递增的时间（UTC）
}

// TopSearchTerm 是热门搜索词接口返回给前端的结构。
type TopSearchTerm struct {
	Term  string `json:"term"`            // 搜索词本身
	Count int64  `json:"count,omitempty"` // 累计被搜索次数
}
