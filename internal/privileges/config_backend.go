package privileges

import (
	"context"

	"github.com/Xushengqwer/forum_search/config"
)

// ConfigBackend 是 AuthorizationBackend 的内置实现，
// 授权数据完全来自服务配置：每项能力有一个默认值，
// 外加按用户 ID 点名的允许/拒绝名单。
type ConfigBackend struct {
	grants map[Capability]grant
}

type grant struct {
	def     bool
	allowed map[string]struct{}
	denied  map[string]struct{}
}

// NewConfigBackend 根据配置构建授权后端。
func NewConfigBackend(cfg config.PrivilegesConfig) *ConfigBackend {
	return &ConfigBackend{
		grants: map[Capability]grant{
			CapabilitySearchUsers:   newGrant(cfg.SearchUsers),
			CapabilitySearchContent: newGrant(cfg.SearchContent),
			CapabilitySearchTags:    newGrant(cfg.SearchTags),
		},
	}
}

func newGrant(cfg config.CapabilityGrantConfig) grant {
	g := grant{
		def:     cfg.Default,
		allowed: make(map[string]struct{}, len(cfg.AllowedUIDs)),
		denied:  make(map[string]struct{}, len(cfg.DeniedUIDs)),
	}
	for _, uid := range cfg.AllowedUIDs {
		g.allowed[uid] = struct{}{}
	}
	for _, uid := range cfg.DeniedUIDs {
		g.denied[uid] = struct{}{}
	}
	return g
}

// CanPerform 实现 AuthorizationBackend。
// 点名名单优先于默认值：拒绝名单最高优先，其次是允许名单。
func (b *ConfigBackend) CanPerform(_ context.Context, capability Capability, uid string) (bool, error) {
	g, ok := b.grants[capability]
	if !ok {
		return false, nil
	}
	if _, denied := g.denied[uid]; denied {
		return false, nil
	}
	if _, allowed := g.allowed[uid]; allowed {
		return true, nil
	}
	return g.def, nil
}
