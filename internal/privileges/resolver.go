// Package privileges 负责搜索范围的权限解析与最终授权判定。
package privileges

import (
	"context"
	"fmt"
	"sync"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	"github.com/Xushengqwer/forum_search/internal/models"
)

// Capability 是授权后端识别的能力标识。
type Capability string

const (
	CapabilitySearchUsers   Capability = "search:users"
	CapabilitySearchContent Capability = "search:content"
	CapabilitySearchTags    Capability = "search:tags"
)

// AuthorizationBackend 定义了权限数据来源的窄接口。
// 内置实现基于配置（见 config_backend.go），接入外部权限服务时整体替换即可。
type AuthorizationBackend interface {
	CanPerform(ctx context.Context, capability Capability, uid string) (bool, error)
}

// PrivilegeSet 是针对单次请求计算出的能力集合，计算完成后不再变更。
type PrivilegeSet struct {
	CanSearchUsers   bool
	CanSearchContent bool
	CanSearchTags    bool
}

// DecisionContext 是授权扩展钩子收到的完整请求上下文。
type DecisionContext struct {
	UID     string
	Request models.SearchRequest
	Allowed bool // 进入钩子时的暂定判定结果
}

// DecisionFilter 是可注册的授权判定覆盖钩子。
// 钩子按注册顺序同步执行，每个钩子收到当前判定并返回（可能被替换的）新判定。
type DecisionFilter func(ctx context.Context, dctx DecisionContext) bool

// Resolver 实现搜索权限的解析与授权。
type Resolver struct {
	backend AuthorizationBackend
	logger  *core.ZapLogger

	mu      sync.RWMutex
	filters []DecisionFilter
}

// NewResolver 创建 Resolver 实例。
func NewResolver(backend AuthorizationBackend, logger *core.ZapLogger) *Resolver {
	if logger == nil {
		panic("创建 privileges.Resolver 失败：Logger 实例不能为 nil")
	}
	if backend == nil {
		logger.Fatal("创建 privileges.Resolver 失败：AuthorizationBackend 实例不能为 nil。")
	}
	return &Resolver{
		backend: backend,
		logger:  logger,
	}
}

// RegisterFilter 注册一个授权判定覆盖钩子。钩子按注册顺序执行。
func (r *Resolver) RegisterFilter(filter DecisionFilter) {
	if filter == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters = append(r.filters, filter)
}

// Resolve 针对指定用户计算三项搜索能力。
// 三项检查相互独立，属于只读查询，因此并发执行。
// 任何一项后端查询失败都会使整体解析失败，调用方应拒绝请求。
func (r *Resolver) Resolve(ctx context.Context, uid string) (PrivilegeSet, error) {
	var (
		set PrivilegeSet
		wg  sync.WaitGroup
	)
	errs := make([]error, 3)

	checks := []struct {
		capability Capability
		target     *bool
		errSlot    *error
	}{
		{CapabilitySearchUsers, &set.CanSearchUsers, &errs[0]},
		{CapabilitySearchContent, &set.CanSearchContent, &errs[1]},
		{CapabilitySearchTags, &set.CanSearchTags, &errs[2]},
	}

	for _, c := range checks {
		wg.Add(1)
		go func(capability Capability, target *bool, errSlot *error) {
			defer wg.Done()
			allowed, err := r.backend.CanPerform(ctx, capability, uid)
			if err != nil {
				*errSlot = fmt.Errorf("查询能力 '%s' (uid: %s) 失败: %w", capability, uid, err)
				return
			}
			*target = allowed
		}(c.capability, c.target, c.errSlot)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			r.logger.Error("解析搜索权限失败", zap.String("uid", uid), zap.Error(err))
			return PrivilegeSet{}, err
		}
	}

	r.logger.Debug("搜索权限解析完成",
		zap.String("uid", uid),
		zap.Bool("can_search_users", set.CanSearchUsers),
		zap.Bool("can_search_content", set.CanSearchContent),
		zap.Bool("can_search_tags", set.CanSearchTags),
	)
	return set, nil
}

// Authorize 应用静态范围规则并经过扩展钩子链得出最终授权结果。
// 静态规则：users 范围要求 search:users；tags 范围要求 search:tags；
// categories 范围始终允许；titles/titlesposts/posts/bookmarks 要求 search:content。
func (r *Resolver) Authorize(ctx context.Context, req models.SearchRequest, set PrivilegeSet) bool {
	allowed := r.staticDecision(req.SearchIn, set)

	r.mu.RLock()
	filters := r.filters
	r.mu.RUnlock()

	for _, filter := range filters {
		allowed = filter(ctx, DecisionContext{
			UID:     req.UID,
			Request: req,
			Allowed: allowed,
		})
	}

	if !allowed {
		r.logger.Warn("搜索请求未通过授权",
			zap.String("uid", req.UID),
			zap.String("search_in", string(req.SearchIn)),
		)
	}
	return allowed
}

func (r *Resolver) staticDecision(in models.SearchIn, set PrivilegeSet) bool {
	switch {
	case in == models.SearchInUsers:
		return set.CanSearchUsers
	case in == models.SearchInTags:
		return set.CanSearchTags
	case in == models.SearchInCategories:
		return true
	case in.IsContentScope():
		return set.CanSearchContent
	default:
		return false
	}
}
