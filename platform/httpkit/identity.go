// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity represents the authenticated actor's identity as asserted by the
// identity provider's access token. Handlers read the actor from here and
// never from request payloads.
type Identity interface {
	// EmployeeID returns the authenticated employee's ID.
	EmployeeID() uuid.UUID
	// RoleID returns the actor's role identifier (e.g. "tele-head").
	RoleID() string
	// DepartmentID returns the actor's department identifier (e.g. "tele").
	DepartmentID() string
	// IsAuthenticated returns true if the actor is authenticated.
	IsAuthenticated() bool
}

// identity is the concrete implementation of Identity.
type identity struct {
	employeeID    uuid.UUID
	roleID        string
	departmentID  string
	authenticated bool
}

func (i *identity) EmployeeID() uuid.UUID {
	return i.employeeID
}

func (i *identity) RoleID() string {
	return i.roleID
}

func (i *identity) DepartmentID() string {
	return i.departmentID
}

func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if actor info is not present.
func GetIdentity(c *gin.Context) Identity {
	employeeID, idOK := c.Get(ContextEmployeeIDKey)
	if !idOK {
		return &identity{}
	}

	eid, ok := employeeID.(uuid.UUID)
	if !ok {
		return &identity{}
	}

	roleID := c.GetString(ContextRoleIDKey)
	departmentID := c.GetString(ContextDepartmentIDKey)

	return &identity{
		employeeID:    eid,
		roleID:        roleID,
		departmentID:  departmentID,
		authenticated: true,
	}
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the actor is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}
