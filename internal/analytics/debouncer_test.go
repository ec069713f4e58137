package analytics

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	commonConfig "github.com/Xushengqwer/go-common/config"
	"github.com/Xushengqwer/go-common/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/forum_search/constants"
	"github.com/Xushengqwer/forum_search/internal/models"
)

// fakeCounterStore 在内存中累计 (set, member) 的增量，供断言使用。
type fakeCounterStore struct {
	mu     sync.Mutex
	counts map[string]int64 // key: "<set>|<member>"
	calls  int
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{counts: make(map[string]int64)}
}

func (s *fakeCounterStore) IncrementMember(_ context.Context, set string, amount int64, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[set+"|"+member] += amount
	s.calls++
	return nil
}

func (s *fakeCounterStore) count(set, member string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[set+"|"+member]
}

func (s *fakeCounterStore) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestLogger(t *testing.T) *core.ZapLogger {
	t.Helper()
	logger, err := core.NewZapLogger(commonConfig.ZapConfig{Level: "error", Encoding: "json"})
	require.NoError(t, err)
	return logger
}

func TestDebouncerBurstCollapsesToSingleCommit(t *testing.T) {
	store := newFakeCounterStore()
	d := NewDebouncer(store, 50*time.Millisecond, newTestLogger(t))
	defer d.Close()

	// 模拟逐字输入：每次击键一个请求，全部落在同一静默窗口内。
	for _, term := range []string{"sec", "secu", "secur", "securi", "security"} {
		d.Record("user-1", term, models.SearchInTitlesPosts, false)
	}

	require.Eventually(t, func() bool {
		return store.count(constants.AllTimeCounterSet, "security") == 1
	}, time.Second, 5*time.Millisecond)

	// 前缀词被折叠，只有最长代表被统计，且全量与当天两个集合各记一次。
	assert.EqualValues(t, 0, store.count(constants.AllTimeCounterSet, "sec"))
	assert.EqualValues(t, 0, store.count(constants.AllTimeCounterSet, "secur"))
	assert.EqualValues(t, 1, store.count(DayCounterSet(time.Now()), "security"))
	assert.Equal(t, 2, store.totalCalls())
}

func TestDebouncerQuietGapStartsNewCycle(t *testing.T) {
	store := newFakeCounterStore()
	d := NewDebouncer(store, 30*time.Millisecond, newTestLogger(t))
	defer d.Close()

	d.Record("user-1", "golang", models.SearchInTitles, false)
	require.Eventually(t, func() bool {
		return store.count(constants.AllTimeCounterSet, "golang") == 1
	}, time.Second, 5*time.Millisecond)

	// 窗口结束后的新查询开启全新缓冲周期，不与上一轮折叠。
	d.Record("user-1", "golang generics", models.SearchInTitles, false)
	require.Eventually(t, func() bool {
		return store.count(constants.AllTimeCounterSet, "golang generics") == 1
	}, time.Second, 5*time.Millisecond)

	assert.EqualValues(t, 1, store.count(constants.AllTimeCounterSet, "golang"))
}

func TestDebouncerUsersAreIsolated(t *testing.T) {
	store := newFakeCounterStore()
	d := NewDebouncer(store, 30*time.Millisecond, newTestLogger(t))
	defer d.Close()

	d.Record("user-1", "kafka", models.SearchInPosts, false)
	d.Record("user-2", "kafka rebalance", models.SearchInPosts, false)

	require.Eventually(t, func() bool {
		return store.count(constants.AllTimeCounterSet, "kafka") == 1 &&
			store.count(constants.AllTimeCounterSet, "kafka rebalance") == 1
	}, time.Second, 5*time.Millisecond)
}

func TestDebouncerIneligibleQueriesAreIgnored(t *testing.T) {
	store := newFakeCounterStore()
	d := NewDebouncer(store, 20*time.Millisecond, newTestLogger(t))
	defer d.Close()

	d.Record("user-1", "", models.SearchInTitlesPosts, false)           // 空词
	d.Record("user-1", "security", models.SearchInTitlesPosts, true)    // 编辑器内搜索
	d.Record("user-1", "security", models.SearchInUsers, false)         // 范围不参与统计
	d.Record("user-1", "ab", models.SearchInTitlesPosts, false)         // 清洗后过短
	d.Record("user-1", "  A  ", models.SearchInTitlesPosts, false)      // 清洗后过短

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, store.totalCalls())
}

func TestDebouncerRecordAfterCloseIsNoop(t *testing.T) {
	store := newFakeCounterStore()
	d := NewDebouncer(store, time.Hour, newTestLogger(t))

	d.Record("user-1", "unflushed term", models.SearchInTitlesPosts, false)
	d.Close()

	// Close 同步排空缓冲，不需要等窗口到期。
	assert.EqualValues(t, 1, store.count(constants.AllTimeCounterSet, "unflushed term"))

	d.Record("user-1", "after close", models.SearchInTitlesPosts, false)
	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 0, store.count(constants.AllTimeCounterSet, "after close"))
}

func TestCleanTerm(t *testing.T) {
	assert.Equal(t, "security", CleanTerm("  SeCuRiTy  "))
	assert.Equal(t, "中文 检索", CleanTerm("中文 检索"))

	long := strings.Repeat("x", 300)
	assert.Equal(t, 255, len(CleanTerm(long)))
}

func TestCollapsePrefixes(t *testing.T) {
	t.Run("前缀被最长代表吸收", func(t *testing.T) {
		got := CollapsePrefixes([]string{"cat", "cats", "cats are"})
		assert.Equal(t, []string{"cats are"}, got)
	})

	t.Run("非前缀关系的词互不影响", func(t *testing.T) {
		got := CollapsePrefixes([]string{"cat", "dog house", "dog"})
		assert.ElementsMatch(t, []string{"cat", "dog house"}, got)
	})

	t.Run("完全相同的词去重但不互相过滤", func(t *testing.T) {
		got := CollapsePrefixes([]string{"cat", "cat", "cat"})
		assert.Equal(t, []string{"cat"}, got)
	})

	t.Run("空批次", func(t *testing.T) {
		assert.Empty(t, CollapsePrefixes(nil))
	})
}

func TestDayCounterSet(t *testing.T) {
	// 同一 UTC 日历日内的任意时刻都映射到同一集合。
	morning := time.Date(2025, 3, 14, 1, 2, 3, 0, time.UTC)
	evening := time.Date(2025, 3, 14, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, DayCounterSet(morning), DayCounterSet(evening))

	midnight := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, constants.DayCounterSetPrefix+"1741910400000", DayCounterSet(midnight))

	nextDay := time.Date(2025, 3, 15, 0, 0, 1, 0, time.UTC)
	assert.NotEqual(t, DayCounterSet(morning), DayCounterSet(nextDay))
}
