// Package authz decides whether a principal may perform a catalog action.
//
// Decisions come from two sources: explicit permission claims carried by the principal, which
// are checked first, and a fixed table mapping roles to permission sets. The table is built
// once and never mutated, so an Evaluator is safe for concurrent use.
package authz

import "strings"

// Permission is a resource:action capability
type Permission string

const (
	ProductCreate  Permission = "product:create"
	ProductRead    Permission = "product:read"
	ProductUpdate  Permission = "product:update"
	ProductDelete  Permission = "product:delete"
	CategoryCreate Permission = "category:create"
	CategoryRead   Permission = "category:read"
	CategoryUpdate Permission = "category:update"
	CategoryDelete Permission = "category:delete"
	StockUpdate    Permission = "stock:update"
	ReportView     Permission = "report:view"
	ReportExport   Permission = "report:export"
)

// AllPermissions lists every permission the catalog defines
var AllPermissions = []Permission{
	ProductCreate, ProductRead, ProductUpdate, ProductDelete,
	CategoryCreate, CategoryRead, CategoryUpdate, CategoryDelete,
	StockUpdate, ReportView, ReportExport,
}

// Role is a recognised principal role
type Role string

const (
	RoleAdmin          Role = "Admin"
	RoleManager        Role = "Manager"
	RoleProductManager Role = "ProductManager"
	RoleStockManager   Role = "StockManager"
	RoleReporter       Role = "Reporter"
	RoleUser           Role = "User"
)

// Decision is the outcome of an evaluation
type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}

type permissionSet map[Permission]struct{}

func setOf(perms ...Permission) permissionSet {
	s := make(permissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// Principal is the authenticated caller
type Principal struct {
	Roles       []string
	Permissions []string
}

// Evaluator holds the immutable role table
type Evaluator struct {
	roles   map[Role]permissionSet
	byLower map[string]Role
}

// NewEvaluator builds the default role table
func NewEvaluator() *Evaluator {
	full := setOf(AllPermissions...)

	roles := map[Role]permissionSet{
		RoleAdmin:          full,
		RoleManager:        full,
		RoleProductManager: setOf(ProductCreate, ProductRead, ProductUpdate, CategoryRead),
		RoleStockManager:   setOf(ProductRead, StockUpdate, CategoryRead),
		RoleReporter:       setOf(ProductRead, CategoryRead, ReportView),
		RoleUser:           setOf(ProductRead, CategoryRead),
	}

	byLower := make(map[string]Role, len(roles))
	for r := range roles {
		byLower[strings.ToLower(string(r))] = r
	}

	return &Evaluator{roles: roles, byLower: byLower}
}

// ResolveRole maps a role claim onto a known role. Unknown or blank values fall back to User.
func (e *Evaluator) ResolveRole(raw string) Role {
	if r, ok := e.byLower[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return r
	}
	return RoleUser
}

// Evaluate decides whether a principal with the given roles and claims holds required
func (e *Evaluator) Evaluate(roles, claims []string, required Permission) Decision {
	for _, c := range claims {
		if Permission(c) == required {
			return Allow
		}
	}

	if len(roles) == 0 {
		return Deny
	}

	for _, raw := range roles {
		if _, ok := e.roles[e.ResolveRole(raw)][required]; ok {
			return Allow
		}
	}
	return Deny
}

// Allowed is Evaluate for a Principal
func (e *Evaluator) Allowed(p Principal, required Permission) bool {
	return bool(e.Evaluate(p.Roles, p.Permissions, required))
}
