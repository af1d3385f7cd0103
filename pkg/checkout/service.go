package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/JurgenV1993/BetterRetail/pkg/cache"
	"github.com/JurgenV1993/BetterRetail/pkg/logging"
)

// Prometheus metrics for checkout operations.
var (
	checkoutCartUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_cart_updates_total",
		Help: "Total cart updates issued by the checkout service by result",
	}, []string{"result"})

	checkoutCompletionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_completions_total",
		Help: "Total checkout completion attempts by result",
	}, []string{"result"})

	checkoutRollbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_checkout_rollbacks_total",
		Help: "Total optimistic shipping updates rolled back after a backend failure",
	})
)

// viewModelShippingMethod is the update payload key owned by the shipping
// step.
const viewModelShippingMethod = "ShippingMethod"

// Defaults applied by NewService.
const (
	DefaultDebounceDelay   = 800 * time.Millisecond
	DefaultConfirmationTTL = 30 * time.Minute
)

// Cache key kinds used by the checkout flow.
const (
	confirmationCacheKind = "order_confirmation"
	cartCacheKind         = "cart"
)

// Config holds the checkout service configuration.
type Config struct {
	// Backend is the remote cart boundary (required).
	Backend Backend

	// Confirmations optionally caches the completion result for the
	// order confirmation page.
	Confirmations *cache.Store

	// Scope is the tenant/catalog partition, used in cache keys.
	Scope string

	// Authenticated marks the session as belonging to a signed-in
	// shopper, which tightens the shipping-fulfilled predicate.
	Authenticated bool

	// Preview disables the empty-cart redirect guard.
	Preview bool

	// DebounceDelay is the trailing-edge delay applied to shipping
	// method changes (default 800ms).
	DebounceDelay time.Duration

	// ConfirmationTTL bounds the cached completion result lifetime.
	ConfirmationTTL time.Duration
}

// Service is the per-session checkout state machine. Construct one per
// checkout session and share it by reference; there is no package-level
// instance.
type Service struct {
	backend         Backend
	confirmations   *cache.Store
	scope           string
	authenticated   bool
	preview         bool
	confirmationTTL time.Duration
	logger          zerolog.Logger

	busy     busyState
	debounce *debouncer

	mu               sync.Mutex
	began            bool
	cart             *Cart
	current          Step
	entered          map[Step]bool
	errs             map[ErrorKind]bool
	addingNewAddress bool
	controllers      []StepController

	// snapshots holds the last user-entered address per fulfillment
	// method type, restored when the shopper toggles back.
	snapshots map[FulfillmentMethodType]Address
}

// NewService creates a checkout service. Configuration errors fail fast.
func NewService(cfg Config) (*Service, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultDebounceDelay
	}
	if cfg.ConfirmationTTL <= 0 {
		cfg.ConfirmationTTL = DefaultConfirmationTTL
	}

	return &Service{
		backend:         cfg.Backend,
		confirmations:   cfg.Confirmations,
		scope:           cfg.Scope,
		authenticated:   cfg.Authenticated,
		preview:         cfg.Preview,
		confirmationTTL: cfg.ConfirmationTTL,
		logger:          logging.NewLogger("checkout"),
		debounce:        newDebouncer(cfg.DebounceDelay),
		entered:         make(map[Step]bool),
		errs:            make(map[ErrorKind]bool),
		snapshots:       make(map[FulfillmentMethodType]Address),
	}, nil
}

// RegisterStep registers a step controller. Registration closes once Begin
// has run; registering a name twice replaces the earlier controller in
// place, preserving its position in the merge order.
func (s *Service) RegisterStep(ctrl StepController) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.began {
		return ErrRegistrationClosed
	}

	for i, existing := range s.controllers {
		if existing.Name() == ctrl.Name() {
			s.controllers[i] = ctrl
			return nil
		}
	}
	s.controllers = append(s.controllers, ctrl)
	return nil
}

// UnregisterStep removes a step controller by name.
func (s *Service) UnregisterStep(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.controllers {
		if existing.Name() == name {
			s.controllers = append(s.controllers[:i], s.controllers[i+1:]...)
			return
		}
	}
}

// Begin fetches the cart, applies the empty-cart guard and derives the
// start step. The start step and every step before it are marked entered.
func (s *Service) Begin(ctx context.Context) (Step, error) {
	s.busy.begin()
	defer s.busy.end()

	cart, err := s.backend.GetCart(ctx)
	if err != nil {
		s.raise(ErrorCartLoadFailed)
		s.logger.Error().Err(err).Msg("Unable to retrieve the cart for the checkout")
		return 0, fmt.Errorf("get cart: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cart.IsEmpty() && !s.preview {
		return 0, ErrCartEmpty
	}

	s.cart = cart
	start := StartStep(cart, s.authenticated)
	for _, step := range steps {
		if step <= start {
			s.entered[step] = true
		}
	}
	s.current = start
	s.began = true

	s.logger.Info().
		Str("step", start.String()).
		Bool("authenticated", s.authenticated).
		Msg("Checkout session started")

	return start, nil
}

// CurrentStep returns the step the shopper currently occupies.
func (s *Service) CurrentStep() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// HasEntered reports whether a step has ever been entered this session.
func (s *Service) HasEntered(step Step) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entered[step]
}

// NavigateTo moves to a previously entered step.
func (s *Service) NavigateTo(step Step) error {
	if !step.Valid() {
		return fmt.Errorf("invalid step %d", int(step))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.began {
		return ErrNotBegun
	}
	if !s.entered[step] {
		return fmt.Errorf("%w: %s", ErrStepNotReachable, step)
	}

	s.current = step
	return nil
}

// Advance moves to the next step, gated on the current step's
// preconditions.
func (s *Service) Advance() (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.began {
		return 0, ErrNotBegun
	}
	if s.current >= StepPayment {
		return s.current, fmt.Errorf("%w: already on the last step", ErrStepNotReachable)
	}

	switch s.current {
	case StepInformation:
		if !customerInfoComplete(s.cart.Customer) {
			return s.current, fmt.Errorf("%w: %s", ErrStepIncomplete, s.current)
		}
	case StepShipping:
		if !ShippingFulfilled(s.cart, s.authenticated) {
			return s.current, fmt.Errorf("%w: %s", ErrStepIncomplete, s.current)
		}
	}

	s.current++
	s.entered[s.current] = true

	s.logger.Debug().Str("step", s.current.String()).Msg("Advanced checkout step")

	return s.current, nil
}

// Cart returns a copy of the current cart state.
func (s *Service) Cart() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cart == nil {
		return Cart{}
	}
	cart := *s.cart
	if cart.ShippingMethod != nil {
		method := *cart.ShippingMethod
		cart.ShippingMethod = &method
	}
	return cart
}

// SetCustomer stores the information step's identity fields on the cart.
func (s *Service) SetCustomer(customer Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart != nil {
		s.cart.Customer = customer
	}
}

// SetShippingAddress stores the shipping step's address on the cart.
func (s *Service) SetShippingAddress(addr Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart != nil {
		s.cart.ShippingAddress = addr
	}
}

// SetPickUpLocation stores the selected pick-up location on the cart.
func (s *Service) SetPickUpLocation(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart != nil {
		s.cart.PickUpLocationID = id
		s.cart.PickUpLocationName = name
	}
}

// SetAddingNewAddress toggles the address-book "add new address" mode.
func (s *Service) SetAddingNewAddress(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addingNewAddress = on
}

// AddingNewAddress reports the address-book mode flag.
func (s *Service) AddingNewAddress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addingNewAddress
}

// Busy reports whether any backend operation is in flight.
func (s *Service) Busy() bool {
	return s.busy.busy()
}

// ShippingFulfilled evaluates the fulfillment predicate against the current
// cart.
func (s *Service) ShippingFulfilled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ShippingFulfilled(s.cart, s.authenticated)
}

// SelectFulfillmentMethod optimistically applies a shipping method
// selection. The cart update is debounced (trailing edge): a burst of rapid
// toggles collapses to one backend call for the most recent selection, and
// completions of superseded selections are discarded. On failure the
// previous method and address are restored verbatim.
func (s *Service) SelectFulfillmentMethod(ctx context.Context, method ShippingMethod) {
	s.mu.Lock()

	if s.cart == nil {
		s.mu.Unlock()
		return
	}

	prevMethod := s.cart.ShippingMethod
	prevAddress := s.cart.ShippingAddress
	prevPickUpID := s.cart.PickUpLocationID

	// Keep the user-entered address for the method type being left so it
	// can be restored when the shopper toggles back.
	if prevMethod != nil {
		s.snapshots[prevMethod.FulfillmentMethod] = s.cart.ShippingAddress
	}

	selected := method
	s.cart.ShippingMethod = &selected

	if prevMethod != nil && prevMethod.ShippingProviderID == method.ShippingProviderID {
		// Same provider; nothing to push to the backend.
		s.mu.Unlock()
		return
	}

	s.cart.ShippingAddress = s.clearedAddressLocked()
	s.mu.Unlock()

	s.debounce.trigger(func(gen uint64) {
		s.applyFulfillmentMethod(ctx, gen, method, prevMethod, prevAddress, prevPickUpID)
	})
}

// applyFulfillmentMethod performs the debounced cart update for a shipping
// method selection, applying the optimistic-update bookkeeping on
// completion.
func (s *Service) applyFulfillmentMethod(ctx context.Context, gen uint64, method ShippingMethod, prevMethod *ShippingMethod, prevAddress Address, prevPickUpID string) {
	s.busy.begin()
	defer s.busy.end()

	payload, err := json.Marshal(struct {
		Name               string `json:"name"`
		ShippingProviderID string `json:"shippingProviderId"`
	}{method.Name, method.ShippingProviderID})
	if err != nil {
		// Marshal of two strings cannot fail; guard anyway.
		s.logger.Error().Err(err).Msg("Failed to encode shipping method update")
		return
	}

	result, err := s.backend.UpdateCart(ctx, UpdateRequest{
		UpdatedCart: map[string]string{viewModelShippingMethod: string(payload)},
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.debounce.isCurrent(gen) {
		// Superseded by a newer selection; that call owns the cart now.
		s.logger.Debug().Str("method", method.Name).Msg("Discarding superseded shipping update")
		return
	}

	if err != nil || (result != nil && result.HasErrors) {
		checkoutCartUpdatesTotal.WithLabelValues("error").Inc()
		checkoutRollbacksTotal.Inc()
		s.cart.ShippingMethod = prevMethod
		s.cart.ShippingAddress = prevAddress
		s.cart.PickUpLocationID = prevPickUpID
		s.errs[ErrorUpdateFailed] = true
		s.logger.Warn().
			Err(err).
			Str("method", method.Name).
			Msg("Shipping update failed, previous selection restored")
		return
	}

	checkoutCartUpdatesTotal.WithLabelValues("ok").Inc()

	// The server cart replaces local state wholesale, except the address
	// the shopper entered for this method type is restored because the
	// backend does not echo unsaved address fields.
	if result.Cart != nil {
		s.cart = result.Cart
	}
	if snapshot, ok := s.snapshots[method.FulfillmentMethod]; ok {
		s.cart.ShippingAddress = snapshot
	}
	s.cart.PickUpLocationID = prevPickUpID
}

// Complete aggregates every registered step's pending updates and
// validation result, submits one merged cart update, and finishes the
// checkout. It fails without side effects on validation errors, backend
// rejection, or a completion response missing an order number.
func (s *Service) Complete(ctx context.Context) (*CompleteResult, error) {
	s.mu.Lock()
	if !s.began {
		s.mu.Unlock()
		return nil, ErrNotBegun
	}
	controllers := make([]StepController, len(s.controllers))
	copy(controllers, s.controllers)
	step := s.current
	s.mu.Unlock()

	s.busy.begin()
	defer s.busy.end()

	if err := s.validateSteps(ctx, controllers); err != nil {
		s.raise(ErrorCompleteFailed)
		checkoutCompletionsTotal.WithLabelValues("validation_failed").Inc()
		return nil, err
	}

	merged, err := s.collectUpdates(ctx, controllers)
	if err != nil {
		s.raise(ErrorCompleteFailed)
		checkoutCompletionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if len(merged) > 0 {
		result, err := s.backend.UpdateCart(ctx, UpdateRequest{UpdatedCart: merged})
		if err != nil {
			s.raise(ErrorCompleteFailed)
			checkoutCompletionsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("update cart: %w", err)
		}
		if result.HasErrors {
			s.raise(ErrorCompleteFailed)
			checkoutCompletionsTotal.WithLabelValues("rejected").Inc()
			return nil, ErrUpdateRejected
		}
		s.mu.Lock()
		if result.Cart != nil {
			s.cart = result.Cart
		}
		s.mu.Unlock()
	} else {
		s.logger.Debug().Msg("No modification required to the cart")
	}

	result, err := s.backend.CompleteCheckout(ctx, step)
	if err != nil {
		s.raise(ErrorCompleteFailed)
		checkoutCompletionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("complete checkout: %w", err)
	}
	if result.HasErrors {
		s.raise(ErrorCompleteFailed)
		checkoutCompletionsTotal.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: completion reported errors", ErrUpdateRejected)
	}
	if result.OrderNumber == "" {
		s.raise(ErrorCompleteFailed)
		checkoutCompletionsTotal.WithLabelValues("inconsistent").Inc()
		return nil, ErrMissingOrderNumber
	}

	s.cacheConfirmation(ctx, result)

	checkoutCompletionsTotal.WithLabelValues("ok").Inc()
	s.logger.Info().
		Str("order_number", result.OrderNumber).
		Str("step", step.String()).
		Msg("Checkout completed")

	return result, nil
}

// validateSteps fans out every controller's validation and joins the
// results. All registered steps must pass.
func (s *Service) validateSteps(ctx context.Context, controllers []StepController) error {
	results := make([]bool, len(controllers))

	g, ctx := errgroup.WithContext(ctx)
	for i, ctrl := range controllers {
		i, ctrl := i, ctrl
		g.Go(func() error {
			ok, err := ctrl.Validate(ctx)
			if err != nil {
				return fmt.Errorf("validate %s: %w", ctrl.Name(), err)
			}
			results[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, ok := range results {
		if !ok {
			return fmt.Errorf("%w: %s", ErrValidationFailed, controllers[i].Name())
		}
	}
	return nil
}

// collectUpdates fans out every controller's pending updates and merges
// them in registration order, so the last registered controller wins on
// duplicate keys.
func (s *Service) collectUpdates(ctx context.Context, controllers []StepController) (map[string]string, error) {
	updates := make([]map[string]string, len(controllers))

	g, ctx := errgroup.WithContext(ctx)
	for i, ctrl := range controllers {
		i, ctrl := i, ctrl
		g.Go(func() error {
			update, err := ctrl.UpdateModel(ctx)
			if err != nil {
				return fmt.Errorf("collect update %s: %w", ctrl.Name(), err)
			}
			updates[i] = update
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]string)
	for _, update := range updates {
		for key, value := range update {
			merged[key] = value
		}
	}
	return merged, nil
}

// cacheConfirmation stores the completion result for the order
// confirmation page and drops any cached cart view models for the scope,
// which are stale once the order exists. Cache failures are logged, never
// fatal.
func (s *Service) cacheConfirmation(ctx context.Context, result *CompleteResult) {
	if s.confirmations == nil {
		return
	}

	key := cache.Key{Kind: confirmationCacheKind, Scope: s.scope, ID: result.OrderNumber}
	if err := s.confirmations.Set(ctx, key, result, s.confirmationTTL); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to cache order confirmation")
	}

	if err := s.confirmations.Invalidate(ctx, cartCacheKind, s.scope); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to invalidate cached carts")
	}
}

// Confirmation retrieves a cached completion result by order number.
func (s *Service) Confirmation(ctx context.Context, orderNumber string) (*CompleteResult, error) {
	if s.confirmations == nil {
		return nil, cache.ErrCacheMiss
	}

	var result CompleteResult
	key := cache.Key{Kind: confirmationCacheKind, Scope: s.scope, ID: orderNumber}
	if err := s.confirmations.Get(ctx, key, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ErrorFlags returns a copy of the user-visible error notification flags.
func (s *Service) ErrorFlags() map[ErrorKind]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	flags := make(map[ErrorKind]bool, len(s.errs))
	for kind, on := range s.errs {
		flags[kind] = on
	}
	return flags
}

// ClearError resets a user-visible error flag once rendered.
func (s *Service) ClearError(kind ErrorKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.errs, kind)
}

func (s *Service) raise(kind ErrorKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[kind] = true
}

// Close cancels any pending debounced update. The session keeps no other
// resources.
func (s *Service) Close() {
	s.debounce.stop()
}

// clearedAddressLocked builds the minimal address used after a fulfillment
// method switch: first/last name fall back to the customer, the country
// code survives, everything else resets.
func (s *Service) clearedAddressLocked() Address {
	addr := s.cart.ShippingAddress
	customer := s.cart.Customer

	first := addr.FirstName
	if first == "" {
		first = customer.FirstName
	}
	last := addr.LastName
	if last == "" {
		last = customer.LastName
	}

	return Address{
		FirstName:   first,
		LastName:    last,
		CountryCode: addr.CountryCode,
	}
}
