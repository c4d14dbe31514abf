// Package registry provides the department and role registry: an explicit,
// data-driven lookup table mapping role identifiers to their department,
// head-ness, and cross-department reach. Policy decisions consult this table
// instead of pattern-matching on role names, so org changes are configuration
// edits rather than code edits.
package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Department describes one department in the pipeline and its local policy.
type Department struct {
	ID string `yaml:"id"`
	// ExposeUnassigned controls whether leads without an assignee are visible
	// to the department's individual contributors. Default is hidden; only
	// heads see the unassigned queue.
	ExposeUnassigned bool `yaml:"exposeUnassigned"`
	// AutoAssignCreator controls whether a lead created by a department
	// member starts assigned to its creator.
	AutoAssignCreator bool `yaml:"autoAssignCreator"`
}

// Role describes one role identifier known to the system.
type Role struct {
	ID         string `yaml:"id"`
	Department string `yaml:"department"`
	// Head roles act on every lead within their department regardless of
	// assignment.
	Head bool `yaml:"head"`
	// CrossDepartment marks the designated head role that sees and may
	// transition leads in any department.
	CrossDepartment bool `yaml:"crossDepartment"`
}

// Registry is an immutable lookup table over departments and roles.
type Registry struct {
	departments map[string]Department
	roles       map[string]Role
}

type registryFile struct {
	Departments []Department `yaml:"departments"`
	Roles       []Role       `yaml:"roles"`
}

// New builds a registry from explicit department and role lists.
func New(departments []Department, roles []Role) (*Registry, error) {
	reg := &Registry{
		departments: make(map[string]Department, len(departments)),
		roles:       make(map[string]Role, len(roles)),
	}

	for _, dept := range departments {
		if dept.ID == "" {
			return nil, fmt.Errorf("registry: department with empty id")
		}
		if _, exists := reg.departments[dept.ID]; exists {
			return nil, fmt.Errorf("registry: duplicate department %q", dept.ID)
		}
		reg.departments[dept.ID] = dept
	}

	for _, role := range roles {
		if role.ID == "" {
			return nil, fmt.Errorf("registry: role with empty id")
		}
		if _, exists := reg.roles[role.ID]; exists {
			return nil, fmt.Errorf("registry: duplicate role %q", role.ID)
		}
		if role.CrossDepartment && !role.Head {
			return nil, fmt.Errorf("registry: cross-department role %q must be a head role", role.ID)
		}
		if !role.CrossDepartment {
			if _, ok := reg.departments[role.Department]; !ok {
				return nil, fmt.Errorf("registry: role %q references unknown department %q", role.ID, role.Department)
			}
		}
		reg.roles[role.ID] = role
	}

	return reg, nil
}

// LoadFile reads a registry definition from a YAML file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("registry: parse %s: %w", path, err)
	}

	return New(file.Departments, file.Roles)
}

// Load returns the registry from the given file, or the built-in default
// when the path is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// Role looks up a role by identifier.
func (r *Registry) Role(id string) (Role, bool) {
	role, ok := r.roles[id]
	return role, ok
}

// Department looks up a department by identifier.
func (r *Registry) Department(id string) (Department, bool) {
	dept, ok := r.departments[id]
	return dept, ok
}

// IsHead reports whether the role is a head role (department head or the
// cross-department head).
func (r *Registry) IsHead(roleID string) bool {
	role, ok := r.roles[roleID]
	return ok && role.Head
}

// IsCrossDepartmentHead reports whether the role may act across all departments.
func (r *Registry) IsCrossDepartmentHead(roleID string) bool {
	role, ok := r.roles[roleID]
	return ok && role.CrossDepartment
}

// ExposesUnassigned reports whether the department shows unassigned leads to
// individual contributors.
func (r *Registry) ExposesUnassigned(departmentID string) bool {
	dept, ok := r.departments[departmentID]
	return ok && dept.ExposeUnassigned
}

// AutoAssignsCreator reports whether leads created in the department start
// assigned to their creator.
func (r *Registry) AutoAssignsCreator(departmentID string) bool {
	dept, ok := r.departments[departmentID]
	return ok && dept.AutoAssignCreator
}

// DepartmentCount returns the number of registered departments.
func (r *Registry) DepartmentCount() int {
	return len(r.departments)
}

// RoleCount returns the number of registered roles.
func (r *Registry) RoleCount() int {
	return len(r.roles)
}
