package gate

import "strings"

// Resource is a kind of object permissions are granted on.
type Resource string

const (
	ResourceOrder    Resource = "order"
	ResourcePayment  Resource = "payment"
	ResourceReport   Resource = "report"
	ResourceReceiver Resource = "receiver"
	ResourceSetting  Resource = "setting"
	ResourceTool     Resource = "tool"
	ResourceCatalog  Resource = "catalog"
	ResourceProfile  Resource = "profile"
)

// Action describes the kind of operation a subject wants to perform.
type Action string

const (
	ActionView   Action = "view"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"

	// Order lifecycle
	ActionUpdateLines   Action = "update_lines"
	ActionUpdateAddress Action = "update_address"
	ActionMarkPaid      Action = "mark_paid"
	ActionMarkShipped   Action = "mark_shipped"
	ActionSend          Action = "send"

	ActionImport Action = "import"
	ActionExport Action = "export"
	ActionUse    Action = "use"
)

// Permission is "resource:action" (e.g. "order:mark_paid").
type Permission string

const (
	WildcardAll                     = "*"
	PermissionSuperAdmin Permission = "*:*"
)

// NewPermission joins resource and action.
func NewPermission(resource Resource, action Action) Permission {
	return Permission(string(resource) + ":" + string(action))
}

// Parse splits a permission; malformed values yield empty parts.
func (p Permission) Parse() (Resource, Action) {
	res, act, ok := strings.Cut(string(p), ":")
	if !ok || res == "" || act == "" {
		return "", ""
	}
	return Resource(res), Action(act)
}

// Valid reports whether p has both a resource and an action.
func (p Permission) Valid() bool {
	res, _ := p.Parse()
	return res != ""
}

// Matches reports whether p grants requested. "*:*" grants everything and
// "order:*" grants every order action.
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionSuperAdmin || p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, _ := requested.Parse()
	return res != "" && res == reqRes && string(act) == WildcardAll
}
