// Package analytics 实现搜索词频率统计的防抖落库。
//
// 交互式搜索界面每次击键都会发起一次请求，逐次计数会把同一条
// 不断延长的查询重复统计多次。防抖器按用户缓冲原始查询串，
// 等用户停止输入满一个静默窗口后，把缓冲内互为前缀的查询折叠成
// 最长代表，再把去重后的词写入持久计数集合。
package analytics

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	"github.com/Xushengqwer/forum_search/constants"
	"github.com/Xushengqwer/forum_search/internal/models"
)

// CounterStore 定义了持久计数存储的窄接口：
// 在名为 set 的有序集合中将成员 member 的分值原子地加 amount。
type CounterStore interface {
	IncrementMember(ctx context.Context, set string, amount int64, member string) error
}

// pendingBuffer 是单个用户的待落库查询缓冲。
// 生命周期：首次合格查询时创建；窗口内的后续查询追加并重置定时器；
// 定时器触发落库时从注册表移除。缓冲只由注册表独占持有，
// 追加与落库通过注册表互斥锁串行化。
type pendingBuffer struct {
	uid     string
	queries []string
	timer   *time.Timer
}

// Debouncer 持有进程内的防抖注册表（按用户分键），
// 在服务启动时构建、注入编排器，并在停机时排空。
type Debouncer struct {
	store  CounterStore
	logger *core.ZapLogger
	window time.Duration

	mu      sync.Mutex
	buffers map[string]*pendingBuffer
	closed  bool
}

// NewDebouncer 创建防抖器。window 非正时使用默认静默窗口（5 秒）。
func NewDebouncer(store CounterStore, window time.Duration, logger *core.ZapLogger) *Debouncer {
	if logger == nil {
		panic("创建 analytics.Debouncer 失败：Logger 实例不能为 nil")
	}
	if store == nil {
		logger.Fatal("创建 analytics.Debouncer 失败：CounterStore 实例不能为 nil。")
	}
	if window <= 0 {
		window = constants.DefaultDebounceWindow
	}
	return &Debouncer{
		store:   store,
		logger:  logger,
		window:  window,
		buffers: make(map[string]*pendingBuffer),
	}
}

// Record 记录一次搜索查询，即发即忘：立即返回，不向调用方暴露错误。
//
// 合格条件（全部满足才会缓冲）：词非空；非编辑器内的即时搜索；
// 范围属于 titles/titlesposts/posts；清洗（小写、去首尾空白、截断到
// 255 字符）后长度大于 2。
// 每次合格调用都会取消并重新调度该用户的落库定时器，
// 因此窗口内重叠提交的 N 次查询只会触发一次落库。
func (d *Debouncer) Record(uid string, rawTerm string, searchIn models.SearchIn, inComposer bool) {
	if rawTerm == "" || inComposer {
		return
	}
	if !eligibleScope(searchIn) {
		return
	}
	term := CleanTerm(rawTerm)
	if utf8.RuneCountInString(term) <= constants.MinTermLength {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	buf, ok := d.buffers[uid]
	if !ok {
		buf = &pendingBuffer{uid: uid}
		d.buffers[uid] = buf
	}
	buf.queries = append(buf.queries, term)

	// 取消旧定时器并以本次调用为起点重新倒计时。
	// Stop 返回 false 说明定时器已触发，落库回调会在锁上等待并发现
	// 注册表中的缓冲已被替换，从而放弃本轮（见 flush 的归属校验）。
	if buf.timer != nil {
		buf.timer.Stop()
	}
	buf.timer = time.AfterFunc(d.window, func() {
		d.flush(uid, buf)
	})

	d.logger.Debug("搜索词已进入防抖缓冲",
		zap.String("uid", uid),
		zap.String("term", term),
		zap.Int("buffered_count", len(buf.queries)),
	)
}

// flush 在静默窗口结束时执行：先快照并从注册表移除缓冲
// （后续查询将开启全新的缓冲周期），再折叠去重并写入计数存储。
func (d *Debouncer) flush(uid string, buf *pendingBuffer) {
	d.mu.Lock()
	current, ok := d.buffers[uid]
	if !ok || current != buf {
		// 缓冲已被并发移除或替换，本轮落库作废。
		d.mu.Unlock()
		return
	}
	delete(d.buffers, uid)
	queries := buf.queries
	d.mu.Unlock()

	d.commit(queries)
}

// commit 把一批查询折叠、去重后写入全量集合与当天集合。
// 两个集合的递增相互独立并发执行：任何一笔失败只记日志，
// 既不重试也不影响另一笔（至多一次的尽力而为语义）。
func (d *Debouncer) commit(queries []string) {
	survivors := CollapsePrefixes(queries)
	if len(survivors) == 0 {
		return
	}

	daySet := DayCounterSet(time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for _, term := range survivors {
		for _, set := range []string{constants.AllTimeCounterSet, daySet} {
			wg.Add(1)
			go func(set, term string) {
				defer wg.Done()
				if err := d.store.IncrementMember(ctx, set, 1, term); err != nil {
					d.logger.Error("递增搜索词计数失败",
						zap.String("set", set),
						zap.String("term", term),
						zap.Error(err),
					)
				}
			}(set, term)
		}
	}
	wg.Wait()

	d.logger.Debug("防抖批次已落库",
		zap.Int("raw_count", len(queries)),
		zap.Int("committed_count", len(survivors)),
		zap.String("day_set", daySet),
	)
}

// Close 排空注册表：停止所有定时器并同步落库剩余缓冲。
// 关闭后的 Record 调用成为空操作。
func (d *Debouncer) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	remaining := make([][]string, 0, len(d.buffers))
	for uid, buf := range d.buffers {
		if buf.timer != nil {
			buf.timer.Stop()
		}
		remaining = append(remaining, buf.queries)
		delete(d.buffers, uid)
	}
	d.mu.Unlock()

	for _, queries := range remaining {
		d.commit(queries)
	}
	d.logger.Info("搜索词防抖器已排空并关闭", zap.Int("drained_buffers", len(remaining)))
}

// eligibleScope 判断搜索范围是否参与频率统计。
// 用户/标签/分类/书签范围的查询不计入搜索词统计。
func eligibleScope(in models.SearchIn) bool {
	switch in {
	case models.SearchInTitles, models.SearchInTitlesPosts, models.SearchInPosts:
		return true
	}
	return false
}

// CleanTerm 对搜索词做统计前的规范化：小写、去首尾空白、截断到 255 字符。
// 仅大小写或首尾空白不同的词因此拥有同一计数。
func CleanTerm(raw string) string {
	term := strings.ToLower(strings.TrimSpace(raw))
	if utf8.RuneCountInString(term) > constants.MaxTermLength {
		runes := []rune(term)
		term = string(runes[:constants.MaxTermLength])
	}
	return term
}

// CollapsePrefixes 实现前缀折叠：若批次内存在严格更长且以 T 开头的
// 词 T'，则 T 被丢弃；幸存词再做精确去重。严格长度比较保证了
// 与自身相等的词不会被当作"自己的前缀"过滤掉。
// 此阶段语义上是集合，返回顺序不承载含义。
func CollapsePrefixes(queries []string) []string {
	out := make([]string, 0, len(queries))
	seen := make(map[string]struct{}, len(queries))
	for _, q := range queries {
		if _, dup := seen[q]; dup {
			continue
		}
		isPrefix := false
		for _, other := range queries {
			if len(other) > len(q) && strings.HasPrefix(other, q) {
				isPrefix = true
				break
			}
		}
		if isPrefix {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}

// DayCounterSet 返回时间 t 所在 UTC 日历日的计数集合名称，
// 形如 "searches:<当日UTC零点的毫秒时间戳>"。
func DayCounterSet(t time.Time) string {
	midnight := t.UTC().Truncate(24 * time.Hour)
	return constants.DayCounterSetPrefix + strconv.FormatInt(midnight.UnixMilli(), 10)
}
