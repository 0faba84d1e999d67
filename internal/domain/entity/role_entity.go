package entity

// Role is the account type chosen at registration.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleBusiness Role = "business"
)

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleBusiness
}

// ParseRole maps free-form input to a Role. Empty input defaults to customer.
func ParseRole(s string) (Role, bool) {
	if s == "" {
		return RoleCustomer, true
	}
	r := Role(s)
	return r, r.Valid()
}
