package model

import "sort"

// Attribute keys produced by the attribute resolver.
const (
	AttrUserID           = "user_id"
	AttrUsername         = "username"
	AttrRole             = "role"
	AttrEmail            = "email"
	AttrDepartment       = "department"
	AttrTitle            = "title"
	AttrAccountType      = "account_type"
	AttrIsActive         = "is_active"
	AttrAccountExpiresAt = "account_expires_at"
	AttrEmailDomain      = "email_domain"
	AttrIsExpired        = "is_expired"
	AttrDaysUntilExpiry  = "days_until_expiry"
	AttrCurrentGroups    = "current_groups"
	AttrGroupCount       = "group_count"
)

// AttributeMap is the flat view of a user that rules are evaluated against.
// An empty map matches nothing.
type AttributeMap map[string]any

func (m AttributeMap) Get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

func (m AttributeMap) IsEmpty() bool {
	return len(m) == 0
}

// Names returns the attribute keys in sorted order.
func (m AttributeMap) Names() []string {
	names := make([]string, 0, len(m))
	for key := range m {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

// Normalize restores the concrete types of known keys after a JSON round
// trip (numbers decode as float64, lists as []any).
func (m AttributeMap) Normalize() AttributeMap {
	for key, value := range m {
		switch v := value.(type) {
		case []any:
			items := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					items = append(items, s)
				}
			}
			m[key] = items
		case float64:
			if key == AttrDaysUntilExpiry || key == AttrGroupCount {
				m[key] = int(v)
			}
		}
	}
	return m
}
