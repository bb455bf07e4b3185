package enum

// ── State machines (CHECK constrained in DB) ──

const (
	ClosureStatusOpen   = "OPEN"
	ClosureStatusClosed = "CLOSED"
)

const (
	TenantStatusActive    = "ACTIVE"
	TenantStatusSuspended = "SUSPENDED"
	TenantStatusCancelled = "CANCELLED"
)

// ── Roles (CHECK constrained in DB) ──

const (
	UserRoleSuperAdmin = "SUPERADMIN"
	UserRoleOwner      = "OWNER"
	UserRoleManager    = "MANAGER"
	UserRoleAttendant  = "ATTENDANT"
)

// ── Payment and fuel labels (CHECK constrained in DB) ──

const (
	PaymentMethodCash   = "CASH"
	PaymentMethodCard   = "CARD"
	PaymentMethodUPI    = "UPI"
	PaymentMethodCredit = "CREDIT"
)

const (
	FuelTypePetrol  = "PETROL"
	FuelTypeDiesel  = "DIESEL"
	FuelTypePremium = "PREMIUM"
	FuelTypeCNG     = "CNG"
)

const (
	ShiftMorning   = "MORNING"
	ShiftAfternoon = "AFTERNOON"
	ShiftNight     = "NIGHT"
)

// ── Derived classifications (never persisted) ──

const (
	RiskLevelLow    = "low"
	RiskLevelMedium = "medium"
	RiskLevelHigh   = "high"
)

const (
	IssueTypeError   = "error"
	IssueTypeWarning = "warning"
	IssueTypeInfo    = "info"
)

const (
	StockStatusLow    = "low"
	StockStatusMedium = "medium"
	StockStatusGood   = "good"
)

// ── Alerts (severity CHECK constrained in DB) ──

const (
	AlertSeverityInfo     = "info"
	AlertSeverityWarning  = "warning"
	AlertSeverityCritical = "critical"
)

const (
	AlertTypeLowInventory    = "low_inventory"
	AlertTypeCreditNearLimit = "credit_near_limit"
)

// ValidPaymentMethod reports whether s is a known payment method.
func ValidPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodUPI, PaymentMethodCredit:
		return true
	}
	return false
}

// ValidFuelType reports whether s is a known fuel type.
func ValidFuelType(s string) bool {
	switch s {
	case FuelTypePetrol, FuelTypeDiesel, FuelTypePremium, FuelTypeCNG:
		return true
	}
	return false
}

// ValidShift reports whether s is a known cash-report shift.
func ValidShift(s string) bool {
	switch s {
	case ShiftMorning, ShiftAfternoon, ShiftNight:
		return true
	}
	return false
}

// ValidAlertSeverity reports whether s is a known alert severity.
func ValidAlertSeverity(s string) bool {
	switch s {
	case AlertSeverityInfo, AlertSeverityWarning, AlertSeverityCritical:
		return true
	}
	return false
}

// ValidRole reports whether s is a known user role.
func ValidRole(s string) bool {
	switch s {
	case UserRoleSuperAdmin, UserRoleOwner, UserRoleManager, UserRoleAttendant:
		return true
	}
	return false
}
