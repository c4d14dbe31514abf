package registry

// CrossDepartmentHeadRole is the designated role that sees and may transition
// leads in every department.
const CrossDepartmentHeadRole = "ipqs-head"

// Default returns the built-in registry for the standard eight-department
// pipeline. Deployments override it with REGISTRY_FILE.
func Default() *Registry {
	departments := []Department{
		{ID: "tele", AutoAssignCreator: true},
		{ID: "field"},
		{ID: "associate"},
		{ID: "corporate"},
		{ID: "technical"},
		{ID: "solution"},
		{ID: "quotation"},
		{ID: "payments"},
	}

	roles := []Role{
		{ID: CrossDepartmentHeadRole, Head: true, CrossDepartment: true},

		{ID: "tele-head", Department: "tele", Head: true},
		{ID: "tele-caller", Department: "tele"},
		{ID: "field-head", Department: "field", Head: true},
		{ID: "field-executive", Department: "field"},
		{ID: "associate-head", Department: "associate", Head: true},
		{ID: "associate-executive", Department: "associate"},
		{ID: "corporate-head", Department: "corporate", Head: true},
		{ID: "corporate-executive", Department: "corporate"},
		{ID: "technical-head", Department: "technical", Head: true},
		{ID: "technical-engineer", Department: "technical"},
		{ID: "solution-head", Department: "solution", Head: true},
		{ID: "solution-engineer", Department: "solution"},
		{ID: "quotation-head", Department: "quotation", Head: true},
		{ID: "quotation-executive", Department: "quotation"},
		{ID: "payments-head", Department: "payments", Head: true},
		{ID: "payments-executive", Department: "payments"},
	}

	reg, err := New(departments, roles)
	if err != nil {
		// The built-in table is static; a failure here is a programming error.
		panic(err)
	}
	return reg
}
