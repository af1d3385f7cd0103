package checkout

import "errors"

// Common errors returned by the checkout service.
var (
	// ErrCartEmpty is returned by Begin when the cart holds no items;
	// the caller redirects away from checkout.
	ErrCartEmpty = errors.New("cart is empty")

	// ErrRegistrationClosed is returned when a step controller registers
	// after the session has begun.
	ErrRegistrationClosed = errors.New("too late to register: checkout session already began")

	// ErrNotBegun is returned for operations that require a begun session.
	ErrNotBegun = errors.New("checkout session not begun")

	// ErrStepNotReachable is returned when navigating to a step that has
	// never been entered.
	ErrStepNotReachable = errors.New("step not reachable")

	// ErrStepIncomplete is returned when advancing past a step whose
	// preconditions are not met.
	ErrStepIncomplete = errors.New("current step incomplete")

	// ErrValidationFailed is returned when a registered step reports a
	// failed client-side validation during completion.
	ErrValidationFailed = errors.New("step validation failed")

	// ErrUpdateRejected is returned when the backend reports errors on
	// the aggregated cart update.
	ErrUpdateRejected = errors.New("cart update rejected")

	// ErrMissingOrderNumber is returned when a completed checkout
	// response carries no order number. The flow halts; whatever the
	// backend already committed stands.
	ErrMissingOrderNumber = errors.New("completed checkout response missing order number")
)

// ErrorKind identifies a user-visible error notification raised by the
// service. The render layer maps kinds to localized messages.
type ErrorKind string

const (
	// ErrorCartLoadFailed covers cart fetch failures at session start.
	ErrorCartLoadFailed ErrorKind = "CheckoutRenderFailed"

	// ErrorUpdateFailed covers failed or rolled-back cart updates.
	ErrorUpdateFailed ErrorKind = "CheckoutUpdateFailed"

	// ErrorCompleteFailed covers checkout completion failures.
	ErrorCompleteFailed ErrorKind = "CompleteCheckoutFailed"
)
