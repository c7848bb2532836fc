package authz

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestEvaluateRoleTable(t *testing.T) {
	e := NewEvaluator()

	cases := []struct {
		name     string
		roles    []string
		claims   []string
		required Permission
		want     Decision
	}{
		{"stock manager cannot create products", []string{"StockManager"}, nil, ProductCreate, Deny},
		{"stock manager updates stock", []string{"StockManager"}, nil, StockUpdate, Allow},
		{"stock manager reads categories", []string{"StockManager"}, nil, CategoryRead, Allow},
		{"product manager creates products", []string{"ProductManager"}, nil, ProductCreate, Allow},
		{"product manager cannot delete products", []string{"ProductManager"}, nil, ProductDelete, Deny},
		{"product manager cannot update categories", []string{"ProductManager"}, nil, CategoryUpdate, Deny},
		{"reporter views reports", []string{"Reporter"}, nil, ReportView, Allow},
		{"reporter cannot export reports", []string{"Reporter"}, nil, ReportExport, Deny},
		{"user reads products", []string{"User"}, nil, ProductRead, Allow},
		{"user cannot update stock", []string{"User"}, nil, StockUpdate, Deny},
		{"role match is case-insensitive", []string{"stockmanager"}, nil, StockUpdate, Allow},
		{"unknown role is read-only", []string{"Intern"}, nil, ProductRead, Allow},
		{"unknown role cannot write", []string{"Intern"}, nil, ProductCreate, Deny},
		{"explicit claim grants", []string{"User"}, []string{"report:export"}, ReportExport, Allow},
		{"claim without roles grants", nil, []string{"stock:update"}, StockUpdate, Allow},
		{"no role and no claim denies", nil, nil, ProductRead, Deny},
		{"non matching claim without roles denies", nil, []string{"product:read"}, ProductCreate, Deny},
		{"any role grants", []string{"User", "Manager"}, nil, CategoryDelete, Allow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := e.Evaluate(tc.roles, tc.claims, tc.required); got != tc.want {
				t.Errorf("Evaluate(%v, %v, %s) = %s, want %s", tc.roles, tc.claims, tc.required, got, tc.want)
			}
		})
	}
}

func TestProperty_AdminAndManagerHoldEveryPermission(t *testing.T) {
	e := NewEvaluator()
	properties := gopter.NewProperties(nil)

	perms := make([]interface{}, len(AllPermissions))
	for i, p := range AllPermissions {
		perms[i] = p
	}

	properties.Property("admin and manager are allowed every defined permission", prop.ForAll(
		func(role string, perm Permission) bool {
			return e.Allowed(Principal{Roles: []string{role}}, perm)
		},
		gen.OneConstOf("Admin", "Manager", "admin", "MANAGER"),
		gen.OneConstOf(perms...),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_UnknownRolesNeverWrite(t *testing.T) {
	e := NewEvaluator()
	properties := gopter.NewProperties(nil)

	properties.Property("unrecognised roles behave like User", prop.ForAll(
		func(role string, perm Permission) bool {
			if _, known := e.byLower[strings.ToLower(role)]; known {
				return true
			}
			want := perm == ProductRead || perm == CategoryRead
			return e.Allowed(Principal{Roles: []string{role}}, perm) == want
		},
		gen.AlphaString(),
		gen.OneConstOf(ProductRead, ProductCreate, CategoryRead, CategoryDelete, StockUpdate, ReportView),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestResolveRole(t *testing.T) {
	e := NewEvaluator()
	if r := e.ResolveRole(" productmanager "); r != RoleProductManager {
		t.Errorf("ResolveRole = %s", r)
	}
	if r := e.ResolveRole(""); r != RoleUser {
		t.Errorf("ResolveRole(\"\") = %s", r)
	}
}
