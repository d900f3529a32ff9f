package auth

import "context"

const (
	RoleOwner         = "owner"
	RoleAdmin         = "admin"
	RoleManagerVentes = "manager_ventes"
	RoleVendeur       = "vendeur"
	RoleComptable     = "comptable"
)

var Roles = []string{RoleOwner, RoleAdmin, RoleManagerVentes, RoleVendeur, RoleComptable}

const (
	PermCatalogRead    = "catalog.read"
	PermCatalogWrite   = "catalog.write"
	PermCatalogDelete  = "catalog.delete"
	PermCustomersRead  = "customers.read"
	PermCustomersWrite = "customers.write"
	PermSalesRead      = "sales.read"
	PermSalesWrite     = "sales.write"
	PermExpensesRead   = "expenses.read"
	PermExpensesWrite  = "expenses.write"
	PermApprovalReview = "approval.review"
	PermMessagesRead   = "messages.read"
	PermMessagesWrite  = "messages.write"
	PermReportsRead    = "reports.read"
	PermTeamManage     = "team.manage"
	PermAuditRead      = "audit.read"
)

// RolePermissions is the fixed role/permission matrix. Deletion requests
// for owned entities still go through the approval engine; these
// permissions gate route access only.
var RolePermissions = map[string][]string{
	RoleOwner: {
		PermCatalogRead, PermCatalogWrite, PermCatalogDelete,
		PermCustomersRead, PermCustomersWrite,
		PermSalesRead, PermSalesWrite,
		PermExpensesRead, PermExpensesWrite,
		PermApprovalReview,
		PermMessagesRead, PermMessagesWrite,
		PermReportsRead, PermTeamManage, PermAuditRead,
	},
	RoleAdmin: {
		PermCatalogRead, PermCatalogWrite, PermCatalogDelete,
		PermCustomersRead, PermCustomersWrite,
		PermSalesRead, PermSalesWrite,
		PermExpensesRead, PermExpensesWrite,
		PermApprovalReview,
		PermMessagesRead, PermMessagesWrite,
		PermReportsRead, PermTeamManage, PermAuditRead,
	},
	RoleManagerVentes: {
		PermCatalogRead, PermCatalogWrite, PermCatalogDelete,
		PermCustomersRead, PermCustomersWrite,
		PermSalesRead, PermSalesWrite,
		PermMessagesRead, PermMessagesWrite,
		PermReportsRead,
	},
	RoleVendeur: {
		PermCatalogRead, PermCatalogDelete,
		PermCustomersRead, PermCustomersWrite,
		PermSalesRead, PermSalesWrite,
		PermMessagesRead, PermMessagesWrite,
	},
	RoleComptable: {
		PermCatalogRead,
		PermCustomersRead,
		PermSalesRead,
		PermExpensesRead, PermExpensesWrite,
		PermMessagesRead, PermMessagesWrite,
		PermReportsRead,
	},
}

func Can(role, permission string) bool {
	for _, perm := range RolePermissions[role] {
		if perm == permission {
			return true
		}
	}
	return false
}

// Permissions satisfies the RBAC middleware's PermissionStore over the
// in-code matrix.
type Permissions struct{}

func (Permissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	return Can(role, permission), nil
}
