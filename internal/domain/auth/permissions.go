package auth

const (
	RoleOwner      = "Owner"
	RoleAccountant = "Accountant"
	RoleViewer     = "Viewer"
)

const (
	PermInvoicesRead    = "invoices.read"
	PermInvoicesWrite   = "invoices.write"
	PermPayrollRead     = "payroll.read"
	PermPayrollWrite    = "payroll.write"
	PermPayrollPay      = "payroll.pay"
	PermPayrollSettings = "payroll.settings"
	PermEmployeesRead   = "employees.read"
	PermEmployeesWrite  = "employees.write"
	PermBankingRead     = "banking.read"
	PermBankingWrite    = "banking.write"
	PermAuditRead       = "audit.read"
)

var DefaultPermissions = []string{
	PermInvoicesRead,
	PermInvoicesWrite,
	PermPayrollRead,
	PermPayrollWrite,
	PermPayrollPay,
	PermPayrollSettings,
	PermEmployeesRead,
	PermEmployeesWrite,
	PermBankingRead,
	PermBankingWrite,
	PermAuditRead,
}

var RolePermissions = map[string][]string{
	RoleOwner: DefaultPermissions,
	RoleAccountant: {
		PermInvoicesRead,
		PermInvoicesWrite,
		PermPayrollRead,
		PermPayrollWrite,
		PermEmployeesRead,
		PermEmployeesWrite,
		PermBankingRead,
		PermBankingWrite,
	},
	RoleViewer: {
		PermInvoicesRead,
		PermPayrollRead,
		PermEmployeesRead,
		PermBankingRead,
	},
}

func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

// StaticPermissions answers permission checks from RolePermissions.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(role, permission string) bool {
	for _, candidate := range RolePermissions[role] {
		if candidate == permission {
			return true
		}
	}
	return false
}
