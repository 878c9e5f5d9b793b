package access_test

import (
	"testing"

	"github.com/jrsteele09/go-hms-admin/access"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRole(t *testing.T) {
	require.Equal(t, "ADMIN", access.NormalizeRole("ROLE_ADMIN"))
	require.Equal(t, "ADMIN", access.NormalizeRole("role_admin"))
	require.Equal(t, "LABTECH", access.NormalizeRole("ROLE_lab-tech"))
	require.Equal(t, "DOCTOR", access.NormalizeRole(" doctor "))
	require.Equal(t, "", access.NormalizeRole("ROLE_"))
}

func TestHasRole(t *testing.T) {
	require.True(t, access.HasRole([]string{"ADMIN"}, []string{"ROLE_ADMIN"}))
	require.False(t, access.HasRole([]string{"ADMIN"}, []string{"ROLE_DOCTOR"}))
	require.True(t, access.HasRole(nil, nil))
	require.True(t, access.HasRole([]string{}, []string{"ROLE_DOCTOR"}))
	require.True(t, access.HasRole([]string{"NURSE", "ROLE_DOCTOR"}, []string{"doctor"}))
	require.False(t, access.HasRole([]string{"ADMIN"}, nil))
}

func TestHasPermission(t *testing.T) {
	require.True(t, access.HasPermission(nil, nil))
	require.True(t, access.HasPermission([]string{"beds:read", "beds:write"}, []string{"beds:write"}))
	require.False(t, access.HasPermission([]string{"beds:read"}, []string{"BEDS:READ"}))
	require.False(t, access.HasPermission([]string{"beds:read"}, nil))
}

func TestIsVisible(t *testing.T) {
	parent := access.Entry{
		Title: "Billing",
		Children: []access.Entry{
			{Title: "Invoices", Path: "/invoices", Roles: []string{"ACCOUNTANT"}},
			{Title: "Reports", Path: "/reports", Roles: []string{"ADMIN"}},
		},
	}

	require.True(t, access.IsVisible(parent, []string{"ROLE_ACCOUNTANT"}, nil))
	require.False(t, access.IsVisible(parent, []string{"ROLE_NURSE"}, nil))

	leaf := access.Entry{Title: "Dashboard", Path: "/dashboard"}
	require.True(t, access.IsVisible(leaf, nil, nil))

	gated := access.Entry{Title: "Beds", Permissions: []string{"beds:read"}}
	require.False(t, access.IsVisible(gated, []string{"ROLE_ADMIN"}, nil))
	require.True(t, access.IsVisible(gated, nil, []string{"beds:read"}))

	// a parent failing its own check hides visible children
	parent.Roles = []string{"ADMIN"}
	require.False(t, access.IsVisible(parent, []string{"ROLE_ACCOUNTANT"}, nil))
}

func TestFilterPrunesChildren(t *testing.T) {
	menu := []access.Entry{
		{Title: "Dashboard", Path: "/dashboard"},
		{
			Title: "Billing",
			Children: []access.Entry{
				{Title: "Invoices", Path: "/invoices", Roles: []string{"ACCOUNTANT"}},
				{Title: "Refunds", Path: "/refunds", Roles: []string{"ADMIN"}},
			},
		},
		{Title: "Admin", Roles: []string{"ADMIN"}},
	}

	got := access.Filter(menu, []string{"ROLE_ACCOUNTANT"}, nil)
	require.Len(t, got, 2)
	require.Equal(t, "Dashboard", got[0].Title)
	require.Equal(t, "Billing", got[1].Title)
	require.Len(t, got[1].Children, 1)
	require.Equal(t, "Invoices", got[1].Children[0].Title)

	// the input is not modified
	require.Len(t, menu[1].Children, 2)
}

func TestCanAccess(t *testing.T) {
	menu := []access.Entry{
		{
			Title: "Pathology",
			Roles: []string{"LABTECH"},
			Children: []access.Entry{
				{Title: "Reports", Path: "/pathology/reports", Permissions: []string{"reports:read"}},
			},
		},
	}

	require.True(t, access.CanAccess(menu, "/pathology/reports", []string{"ROLE_LABTECH"}, []string{"reports:read"}))
	require.False(t, access.CanAccess(menu, "/pathology/reports", []string{"ROLE_LABTECH"}, nil))
	require.False(t, access.CanAccess(menu, "/pathology/reports", []string{"ROLE_DOCTOR"}, []string{"reports:read"}))
	require.True(t, access.CanAccess(menu, "/unlisted", nil, nil))
}

func TestDefaultNavigation(t *testing.T) {
	menu := access.DefaultNavigation()
	require.NotEmpty(t, menu)
	require.Equal(t, "Dashboard", menu[0].Title)

	accountant := access.Filter(menu, []string{"ROLE_ACCOUNTANT"}, []string{"invoices:read"})
	titles := make([]string, 0, len(accountant))
	for _, e := range accountant {
		titles = append(titles, e.Title)
	}
	require.Equal(t, []string{"Dashboard", "Billing"}, titles)
}

func TestLoadNavigationRejectsBadYAML(t *testing.T) {
	_, err := access.LoadNavigation([]byte("navigation: [title: ["))
	require.Error(t, err)
}
