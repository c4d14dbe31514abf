package registry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewRejectsInvalidTables(t *testing.T) {
	cases := []struct {
		name        string
		departments []Department
		roles       []Role
	}{
		{
			"empty department id",
			[]Department{{ID: ""}},
			nil,
		},
		{
			"duplicate department",
			[]Department{{ID: "tele"}, {ID: "tele"}},
			nil,
		},
		{
			"empty role id",
			[]Department{{ID: "tele"}},
			[]Role{{ID: "", Department: "tele"}},
		},
		{
			"duplicate role",
			[]Department{{ID: "tele"}},
			[]Role{{ID: "tele-caller", Department: "tele"}, {ID: "tele-caller", Department: "tele"}},
		},
		{
			"cross-department role that is not a head",
			[]Department{{ID: "tele"}},
			[]Role{{ID: "auditor", CrossDepartment: true}},
		},
		{
			"role referencing unknown department",
			[]Department{{ID: "tele"}},
			[]Role{{ID: "field-executive", Department: "field"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.departments, tc.roles); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}

func TestDefaultRegistryIsConsistent(t *testing.T) {
	reg := Default()

	if !reg.IsCrossDepartmentHead(CrossDepartmentHeadRole) {
		t.Error("expected the designated cross-department head role")
	}
	if !reg.IsHead("tele-head") || reg.IsHead("tele-caller") {
		t.Error("head flags wrong for tele roles")
	}
	if !reg.AutoAssignsCreator("tele") {
		t.Error("tele should auto-assign the lead creator")
	}
	if reg.AutoAssignsCreator("field") {
		t.Error("field should not auto-assign the lead creator")
	}
	if reg.ExposesUnassigned("tele") {
		t.Error("no default department exposes its unassigned queue")
	}

	role, ok := reg.Role("quotation-executive")
	if !ok || role.Department != "quotation" || role.Head {
		t.Errorf("unexpected quotation-executive role: %+v (ok=%v)", role, ok)
	}
}

func TestLoadFileParsesYAML(t *testing.T) {
	content := `
departments:
  - id: inbound
    exposeUnassigned: true
    autoAssignCreator: true
  - id: delivery
roles:
  - id: inbound-head
    department: inbound
    head: true
  - id: inbound-agent
    department: inbound
  - id: director
    head: true
    crossDepartment: true
`
	path := filepath.Join(t.TempDir(), "registry.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	reg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if !reg.ExposesUnassigned("inbound") || !reg.AutoAssignsCreator("inbound") {
		t.Error("inbound department flags not parsed")
	}
	if reg.ExposesUnassigned("delivery") {
		t.Error("delivery should use the default flags")
	}
	if !reg.IsCrossDepartmentHead("director") {
		t.Error("director should be the cross-department head")
	}
	if reg.DepartmentCount() != 2 || reg.RoleCount() != 3 {
		t.Errorf("unexpected table sizes: %d departments, %d roles", reg.DepartmentCount(), reg.RoleCount())
	}
}

func TestLoadFallsBackToDefault(t *testing.T) {
	reg, err := Load("")
	if err != nil {
		t.Fatalf("Load with empty path failed: %v", err)
	}
	if !reg.IsCrossDepartmentHead(CrossDepartmentHeadRole) {
		t.Fatal("expected the built-in default registry")
	}
}

func TestLoadFileRejectsMissingFile(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
