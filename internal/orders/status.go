package orders

import "fmt"

// Status is the fulfillment stage of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusDelivered Status = "delivered"
)

// PaymentStatus is the settlement stage, independent of Status.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

var progression = []Status{StatusPending, StatusPreparing, StatusDelivered}

// Progression returns the canonical forward order, for progress indicators.
func Progression() []Status {
	out := make([]Status, len(progression))
	copy(out, progression)
	return out
}

func (s Status) Valid() bool {
	return s.Step() >= 0
}

// Step is the zero-based position of s in Progression, or -1 when unknown.
func (s Status) Step() int {
	for i, p := range progression {
		if p == s {
			return i
		}
	}
	return -1
}

// Next returns the following stage, or false at the end of the progression.
func (s Status) Next() (Status, bool) {
	i := s.Step()
	if i < 0 || i == len(progression)-1 {
		return "", false
	}
	return progression[i+1], true
}

// CanTransition is permissive: admins may move an order to any known stage,
// backwards included, to correct mistakes.
func CanTransition(from, to Status) bool {
	return from.Valid() && to.Valid()
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", s)}
	}
	return st, nil
}

func (p PaymentStatus) Valid() bool {
	return p == PaymentUnpaid || p == PaymentPaid
}

func (p PaymentStatus) Toggle() PaymentStatus {
	if p == PaymentPaid {
		return PaymentUnpaid
	}
	return PaymentPaid
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	ps := PaymentStatus(s)
	if !ps.Valid() {
		return "", &ValidationError{Field: "payment_status", Reason: fmt.Sprintf("unknown payment status %q", s)}
	}
	return ps, nil
}
