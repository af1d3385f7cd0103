// Package checkout implements the checkout step-progress state machine:
// deriving the step a shopper lands on, gating progression on cart
// completeness, and driving the shipping fulfillment sub-flows with
// optimistic updates that roll back on failure.
package checkout

// Step is one stage of the checkout flow, in visit order.
type Step int

const (
	StepInformation Step = iota
	StepShipping
	StepReviewCart
	StepBilling
	StepPayment
)

// steps lists all steps in order.
var steps = []Step{StepInformation, StepShipping, StepReviewCart, StepBilling, StepPayment}

// String implements fmt.Stringer.
func (s Step) String() string {
	switch s {
	case StepInformation:
		return "Information"
	case StepShipping:
		return "Shipping"
	case StepReviewCart:
		return "ReviewCart"
	case StepBilling:
		return "Billing"
	case StepPayment:
		return "Payment"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is a defined checkout step.
func (s Step) Valid() bool {
	return s >= StepInformation && s <= StepPayment
}
