// service/defaults.go
package service

import "github.com/securenet/dyngroups/model"

type defaultRule struct {
	group       string
	attribute   string
	operator    model.Operator
	value       model.RuleValue
	priority    int
	description string
}

type defaultRuleSet struct {
	group     string
	name      string
	condition model.Condition
	rules     []defaultRule
}

// SecureNet default assignment rules, keyed by group name.
var defaultRules = []defaultRule{
	{"Administrators", model.AttrRole, model.OperatorEquals, model.StringValue("admin"), 100, "Users with the admin role"},
	{"Security Team", model.AttrDepartment, model.OperatorEquals, model.StringValue("Security"), 90, "Members of the Security department"},
	{"Security Team", model.AttrTitle, model.OperatorContains, model.StringValue("Security"), 80, "Users with a security title"},
	{"Engineering", model.AttrDepartment, model.OperatorInList, model.ListValue("Engineering", "DevOps", "Platform"), 70, "Engineering departments"},
	{"Sales", model.AttrDepartment, model.OperatorEquals, model.StringValue("Sales"), 60, "Members of the Sales department"},
	{"Executives", model.AttrTitle, model.OperatorRegexMatch, model.StringValue("(Chief|VP|Vice President|Director)"), 50, "Executive titles"},
	{"Internal Staff", model.AttrEmailDomain, model.OperatorEquals, model.StringValue("securenet.com"), 40, "Company email domain"},
	{"Expiring Accounts", model.AttrDaysUntilExpiry, model.OperatorLessThan, model.NumberValue(30), 30, "Accounts expiring within 30 days"},
	{"Expired Accounts", model.AttrIsExpired, model.OperatorEquals, model.BoolValue(true), 20, "Accounts past their expiry date"},
}

var defaultRuleSets = []defaultRuleSet{
	{
		group:     "Contractors",
		name:      "active contractors",
		condition: model.ConditionAnd,
		rules: []defaultRule{
			{"Contractors", model.AttrAccountType, model.OperatorEquals, model.StringValue("contractor"), 50, "Contractor accounts"},
			{"Contractors", model.AttrIsExpired, model.OperatorEquals, model.BoolValue(false), 40, "Account not expired"},
		},
	},
	{
		group:     "Standard Users",
		name:      "non-privileged users",
		condition: model.ConditionNot,
		rules: []defaultRule{
			{"Standard Users", model.AttrRole, model.OperatorInList, model.ListValue("admin", "security_admin"), 10, "Privileged roles"},
			{"Standard Users", model.AttrAccountType, model.OperatorEquals, model.StringValue("service"), 10, "Service accounts"},
		},
	},
}
