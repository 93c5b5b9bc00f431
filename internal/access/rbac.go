package access

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var defaultPolicy []byte

type Permission struct {
	Resource string   `yaml:"resource"`
	Actions  []string `yaml:"actions"`
}

type Role struct {
	Description string       `yaml:"description"`
	Permissions []Permission `yaml:"permissions"`
}

type RBACPolicy struct {
	DefaultRole string              `yaml:"default_role"`
	Roles       map[string]Role     `yaml:"roles"`
	Inheritance map[string][]string `yaml:"inheritance"`
}

// RBAC answers whether a profile role may perform an action on a resource.
type RBAC struct {
	policy *RBACPolicy
	mu     sync.RWMutex

	cacheMu     sync.Mutex
	policyCache map[string]map[string]bool // role -> "resource:action" -> allowed
}

// New loads the policy at policyFile, or the built-in policy when empty.
func New(policyFile string) (*RBAC, error) {
	r := &RBAC{policyCache: make(map[string]map[string]bool)}
	var err error
	if policyFile == "" {
		err = r.ParsePolicy(defaultPolicy)
	} else {
		err = r.LoadPolicy(policyFile)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// LoadPolicy loads RBAC policy from YAML file
func (r *RBAC) LoadPolicy(filepath string) error {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return fmt.Errorf("failed to read policy file: %w", err)
	}
	return r.ParsePolicy(data)
}

func (r *RBAC) ParsePolicy(data []byte) error {
	var policy RBACPolicy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return fmt.Errorf("failed to parse policy file: %w", err)
	}
	for role, parents := range policy.Inheritance {
		for _, parent := range parents {
			if _, ok := policy.Roles[parent]; !ok {
				return fmt.Errorf("role %q inherits unknown role %q", role, parent)
			}
		}
	}

	r.mu.Lock()
	r.policy = &policy
	r.mu.Unlock()

	r.cacheMu.Lock()
	r.policyCache = make(map[string]map[string]bool)
	r.cacheMu.Unlock()

	slog.Info("RBAC policy loaded", "component", "rbac", "roles", len(policy.Roles))
	return nil
}

// ExpandRoles returns role together with every role it inherits, sorted.
func (r *RBAC) ExpandRoles(role string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.expandRoles(role)
}

func (r *RBAC) expandRoles(role string) []string {
	if role == "" && r.policy != nil {
		role = r.policy.DefaultRole
	}
	if role == "" {
		return []string{}
	}

	all := map[string]bool{role: true}
	r.addInheritedRoles(role, all)

	result := make([]string, 0, len(all))
	for name := range all {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// addInheritedRoles recursively adds inherited roles
func (r *RBAC) addInheritedRoles(role string, roles map[string]bool) {
	if r.policy == nil || r.policy.Inheritance == nil {
		return
	}

	for _, inheritedRole := range r.policy.Inheritance[role] {
		if !roles[inheritedRole] {
			roles[inheritedRole] = true
			r.addInheritedRoles(inheritedRole, roles)
		}
	}
}

// Can checks if role can perform action on resource
func (r *RBAC) Can(role, resource, action string) bool {
	cacheKey := resource + ":" + action

	r.cacheMu.Lock()
	if allowed, found := r.policyCache[role][cacheKey]; found {
		r.cacheMu.Unlock()
		return allowed
	}
	r.cacheMu.Unlock()

	r.mu.RLock()
	if r.policy == nil {
		r.mu.RUnlock()
		slog.Warn("RBAC policy not loaded")
		return false
	}
	allowed := r.allowed(role, resource, action)
	r.mu.RUnlock()

	r.cacheMu.Lock()
	if r.policyCache[role] == nil {
		r.policyCache[role] = make(map[string]bool)
	}
	r.policyCache[role][cacheKey] = allowed
	r.cacheMu.Unlock()

	return allowed
}

func (r *RBAC) allowed(role, resource, action string) bool {
	for _, roleName := range r.expandRoles(role) {
		def, exists := r.policy.Roles[roleName]
		if !exists {
			continue
		}
		for _, perm := range def.Permissions {
			if perm.Resource != "*" && perm.Resource != resource {
				continue
			}
			for _, act := range perm.Actions {
				if act == "*" || act == action {
					return true
				}
			}
		}
	}
	return false
}
