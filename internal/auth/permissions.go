package auth

import "github.com/fuelsync/api/internal/enum"

// Action names a guarded operation. Role gating lives in this one table so
// handlers and middleware share a single answer for "can this role do that".
type Action string

const (
	ActionManageTenants      Action = "tenants:manage"
	ActionManageStations     Action = "stations:manage"
	ActionManageUsers        Action = "users:manage"
	ActionManagePumps        Action = "pumps:manage"
	ActionManagePrices       Action = "prices:manage"
	ActionManageCreditors    Action = "creditors:manage"
	ActionRecordReading      Action = "readings:record"
	ActionSubmitCashReport   Action = "cash-reports:submit"
	ActionViewReconciliation Action = "reconciliation:view"
	ActionCloseDay           Action = "reconciliation:close"
	ActionUpdateInventory    Action = "inventory:update"
	ActionManageAlerts       Action = "alerts:manage"
)

var rolePermissions = map[string]map[Action]bool{
	enum.UserRoleSuperAdmin: {
		ActionManageTenants: true,
	},
	enum.UserRoleOwner: {
		ActionManageStations:     true,
		ActionManageUsers:        true,
		ActionManagePumps:        true,
		ActionManagePrices:       true,
		ActionManageCreditors:    true,
		ActionRecordReading:      true,
		ActionSubmitCashReport:   true,
		ActionViewReconciliation: true,
		ActionCloseDay:           true,
		ActionUpdateInventory:    true,
		ActionManageAlerts:       true,
	},
	enum.UserRoleManager: {
		ActionManagePumps:        true,
		ActionManagePrices:       true,
		ActionManageCreditors:    true,
		ActionRecordReading:      true,
		ActionSubmitCashReport:   true,
		ActionViewReconciliation: true,
		ActionCloseDay:           true,
		ActionUpdateInventory:    true,
		ActionManageAlerts:       true,
	},
	enum.UserRoleAttendant: {
		ActionRecordReading:    true,
		ActionSubmitCashReport: true,
	},
}

// Allows reports whether role may perform action.
func Allows(role string, action Action) bool {
	return rolePermissions[role][action]
}
