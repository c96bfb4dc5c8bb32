package gateway

// APIResponse is the envelope every gateway endpoint wraps its payload in.
type APIResponse[T any] struct {
	Status  int    `json:"status,omitempty"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    *T     `json:"data"`
}

// UserInfo is the identity of the logged-in user as reported by
// GET /api/user/info.
type UserInfo struct {
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	LoginEmail string `json:"loginEmail"`
	UserRole   string `json:"userRole"`
	UserType   string `json:"userType"`
}

// ProfileKind discriminates the variants of Profile.
type ProfileKind string

const (
	ProfileCustomer ProfileKind = "customer"
	ProfileSupplier ProfileKind = "supplier"
	ProfileEmployee ProfileKind = "employee"
)

// Profile is the business profile of the user. Exactly one of Customer,
// Supplier or Employee is set, as indicated by Kind.
type Profile struct {
	Kind     ProfileKind
	Customer *CustomerProfile
	Supplier *SupplierProfile
	Employee *EmployeeProfile
}

// DisplayName returns the person's name for whichever variant is set.
func (p *Profile) DisplayName() string {
	switch p.Kind {
	case ProfileCustomer:
		return p.Customer.CustomerName
	case ProfileSupplier:
		return p.Supplier.SupplierUserName
	case ProfileEmployee:
		if p.Employee.Name != nil {
			return *p.Employee.Name
		}
	}
	return ""
}

// CustomerProfile is the profile of a customer company contact.
type CustomerProfile struct {
	CompanyName    string `json:"companyName"`
	BaseAddress    string `json:"baseAddress"`
	DetailAddress  string `json:"detailAddress"`
	OfficePhone    string `json:"officePhone"`
	BusinessNumber string `json:"businessNumber"`
	CustomerName   string `json:"customerName"`
	PhoneNumber    string `json:"phoneNumber"`
	Email          string `json:"email"`
}

// SupplierProfile is the profile of a supplier user.
type SupplierProfile struct {
	SupplierUserName        string `json:"supplierUserName"`
	SupplierUserEmail       string `json:"supplierUserEmail"`
	SupplierUserPhoneNumber string `json:"supplierUserPhoneNumber"`
	CompanyName             string `json:"companyName"`
	BusinessNumber          string `json:"businessNumber"`
	BaseAddress             string `json:"baseAddress"`
	DetailAddress           string `json:"detailAddress"`
	OfficePhone             string `json:"officePhone"`
}

// EmployeeProfile is the profile of an internal employee. The server may
// send null for any field.
type EmployeeProfile struct {
	Name           *string `json:"name"`
	EmployeeNumber *string `json:"employeeNumber"`
	Department     *string `json:"department"`
	Position       *string `json:"position"`
	HireDate       *string `json:"hireDate"`
	ServiceYears   *string `json:"serviceYears"`
	Email          *string `json:"email"`
	PhoneNumber    *string `json:"phoneNumber"`
	Address        *string `json:"address"`
}
