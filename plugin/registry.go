package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/vitaly-rudenko/squadledger/balance"
	"github.com/vitaly-rudenko/squadledger/id"
	"github.com/vitaly-rudenko/squadledger/payment"
	"github.com/vitaly-rudenko/squadledger/receipt"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit            []OnInit
	onShutdown        []OnShutdown
	onReceiptSaved    []OnReceiptSaved
	onReceiptDeleted  []OnReceiptDeleted
	onPaymentCreated  []OnPaymentCreated
	onPaymentDeleted  []OnPaymentDeleted
	onDebtsAggregated []OnDebtsAggregated
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnReceiptSaved); ok {
		r.onReceiptSaved = append(r.onReceiptSaved, v)
	}
	if v, ok := p.(OnReceiptDeleted); ok {
		r.onReceiptDeleted = append(r.onReceiptDeleted, v)
	}
	if v, ok := p.(OnPaymentCreated); ok {
		r.onPaymentCreated = append(r.onPaymentCreated, v)
	}
	if v, ok := p.(OnPaymentDeleted); ok {
		r.onPaymentDeleted = append(r.onPaymentDeleted, v)
	}
	if v, ok := p.(OnDebtsAggregated); ok {
		r.onDebtsAggregated = append(r.onDebtsAggregated, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnReceiptSaved)(nil)).Elem(), "OnReceiptSaved")
	checkInterface(reflect.TypeOf((*OnReceiptDeleted)(nil)).Elem(), "OnReceiptDeleted")
	checkInterface(reflect.TypeOf((*OnPaymentCreated)(nil)).Elem(), "OnPaymentCreated")
	checkInterface(reflect.TypeOf((*OnPaymentDeleted)(nil)).Elem(), "OnPaymentDeleted")
	checkInterface(reflect.TypeOf((*OnDebtsAggregated)(nil)).Elem(), "OnDebtsAggregated")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitReceiptSaved emits a receipt saved event.
func (r *Registry) EmitReceiptSaved(ctx context.Context, rec *receipt.Receipt, debts []*receipt.Debt) {
	r.mu.RLock()
	plugins := r.onReceiptSaved
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnReceiptSaved(ctx, rec, debts)
		}); err != nil {
			r.logger.Warn("plugin OnReceiptSaved failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitReceiptDeleted emits a receipt deleted event.
func (r *Registry) EmitReceiptDeleted(ctx context.Context, receiptID id.ReceiptID) {
	r.mu.RLock()
	plugins := r.onReceiptDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnReceiptDeleted(ctx, receiptID)
		}); err != nil {
			r.logger.Warn("plugin OnReceiptDeleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentCreated emits a payment created event.
func (r *Registry) EmitPaymentCreated(ctx context.Context, pay *payment.Payment) {
	r.mu.RLock()
	plugins := r.onPaymentCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentCreated(ctx, pay)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentDeleted emits a payment deleted event.
func (r *Registry) EmitPaymentDeleted(ctx context.Context, paymentID id.PaymentID) {
	r.mu.RLock()
	plugins := r.onPaymentDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentDeleted(ctx, paymentID)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentDeleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitDebtsAggregated emits a debts aggregated event.
func (r *Registry) EmitDebtsAggregated(ctx context.Context, userID string, summary *balance.Summary, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onDebtsAggregated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDebtsAggregated(ctx, userID, summary, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnDebtsAggregated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout guards a plugin call so a stuck hook cannot block the engine.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
