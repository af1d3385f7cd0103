package checkout

import (
	"context"

	"github.com/google/uuid"
)

// FulfillmentMethodType is the mechanism by which an order reaches the
// customer.
type FulfillmentMethodType string

const (
	// FulfillmentShipToHome delivers to a postal address.
	FulfillmentShipToHome FulfillmentMethodType = "Shipping"

	// FulfillmentPickUp is collected at a named pick-up location.
	FulfillmentPickUp FulfillmentMethodType = "PickUp"
)

// Customer carries the identity fields collected on the information step.
type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Address is a postal address attached to the cart.
type Address struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Line1       string `json:"line1"`
	Line2       string `json:"line2,omitempty"`
	City        string `json:"city"`
	RegionCode  string `json:"regionCode"`
	PostalCode  string `json:"postalCode"`
	CountryCode string `json:"countryCode"`

	// AddressBookID links the address to a saved address-book entry for
	// authenticated shoppers. The zero UUID means "not saved".
	AddressBookID uuid.UUID `json:"addressBookId"`
}

// Complete reports whether the core postal fields are filled in.
func (a Address) Complete() bool {
	return a.Line1 != "" && a.City != "" && a.RegionCode != "" && a.PostalCode != ""
}

// ShippingMethod is the fulfillment option selected on the cart.
type ShippingMethod struct {
	Name               string                `json:"name"`
	ShippingProviderID string                `json:"shippingProviderId"`
	FulfillmentMethod  FulfillmentMethodType `json:"fulfillmentMethodTypeString"`
}

// OrderSummary is the priced totals block echoed by the backend.
type OrderSummary struct {
	SubTotal string `json:"subTotal"`
	Shipping string `json:"shipping"`
	Taxes    string `json:"taxes"`
	Total    string `json:"total"`
}

// Cart is the shared checkout aggregate. It is owned by the Service and
// replaced wholesale on every successful backend round-trip.
type Cart struct {
	Customer           Customer        `json:"customer"`
	ShippingAddress    Address         `json:"shippingAddress"`
	ShippingMethod     *ShippingMethod `json:"shippingMethod,omitempty"`
	PickUpLocationID   string          `json:"pickUpLocationId,omitempty"`
	PickUpLocationName string          `json:"pickUpLocationName,omitempty"`
	ItemCount          int             `json:"itemCount"`
	OrderSummary       OrderSummary    `json:"orderSummary"`
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return c == nil || c.ItemCount == 0
}

// UpdateRequest is the merged per-step update payload sent to the backend.
// Keys are step view-model names; values are the serialized step updates.
type UpdateRequest struct {
	UpdatedCart map[string]string `json:"updatedCart"`
}

// UpdateResult is the backend response to a cart update.
type UpdateResult struct {
	Cart      *Cart `json:"cart"`
	HasErrors bool  `json:"hasErrors"`
}

// CompleteResult is the backend response to checkout completion.
type CompleteResult struct {
	OrderNumber string `json:"orderNumber"`
	NextStepURL string `json:"nextStepUrl"`
	HasErrors   bool   `json:"hasErrors"`
}

// Backend is the remote cart boundary consumed by the Service.
type Backend interface {
	GetCart(ctx context.Context) (*Cart, error)
	UpdateCart(ctx context.Context, req UpdateRequest) (*UpdateResult, error)
	CompleteCheckout(ctx context.Context, step Step) (*CompleteResult, error)
}

// StepController is one registered checkout step. Each controller exposes
// its pending cart updates and its client-side validation outcome; the
// Service aggregates both across all registered controllers on completion.
type StepController interface {
	// Name is the step's view-model name, used as the update payload key.
	Name() string

	// Validate reports whether the step's current input is valid.
	Validate(ctx context.Context) (bool, error)

	// UpdateModel returns the step's pending cart updates, keyed by
	// view-model name. A nil map means no update.
	UpdateModel(ctx context.Context) (map[string]string, error)
}
