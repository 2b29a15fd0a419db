package enum

// PaymentMethod is how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash  PaymentMethod = "cash"
	PaymentMethodCard  PaymentMethod = "card"
	PaymentMethodPix   PaymentMethod = "pix"
	PaymentMethodOther PaymentMethod = "other"
)

// IsValid checks the method against the known set
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodPix, PaymentMethodOther:
		return true
	}
	return false
}

// CashDirection says whether money came in or went out of the register
type CashDirection string

const (
	CashIn  CashDirection = "in"
	CashOut CashDirection = "out"
)

// StaffRole controls what a staff member may do
type StaffRole string

const (
	StaffRoleManager StaffRole = "manager"
	StaffRoleWaiter  StaffRole = "waiter"
)

func (r StaffRole) IsValid() bool {
	return r == StaffRoleManager || r == StaffRoleWaiter
}
