package checkout

import "github.com/google/uuid"

// customerInfoComplete reports whether the identity fields collected on the
// information step are all present.
func customerInfoComplete(c Customer) bool {
	return c.FirstName != "" && c.LastName != "" && c.Email != ""
}

// ShippingFulfilled reports whether the cart's shipping data is complete
// enough to move past the shipping step.
//
// Ship-to-home requires a complete postal address; authenticated shoppers
// must additionally have the address linked to a saved address-book entry.
// Pick-up requires a complete address plus a named pick-up location. A
// missing or unknown method type is never fulfilled.
func ShippingFulfilled(cart *Cart, authenticated bool) bool {
	if cart == nil || cart.ShippingMethod == nil {
		return false
	}

	switch cart.ShippingMethod.FulfillmentMethod {
	case FulfillmentShipToHome:
		if !cart.ShippingAddress.Complete() {
			return false
		}
		if authenticated {
			return cart.ShippingAddress.AddressBookID != uuid.Nil
		}
		return true

	case FulfillmentPickUp:
		return cart.ShippingAddress.Complete() && cart.PickUpLocationName != ""

	default:
		return false
	}
}

// StartStep derives the step a shopper lands on at session start from the
// cart contents.
func StartStep(cart *Cart, authenticated bool) Step {
	if cart == nil || !customerInfoComplete(cart.Customer) {
		return StepInformation
	}
	if !ShippingFulfilled(cart, authenticated) {
		return StepShipping
	}
	return StepBilling
}
