package sped

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/zyn"
)

// Provider is the LLM backend a Synapse calls. It matches zyn.Provider.
type Provider interface {
	Call(ctx context.Context, messages []zyn.Message, temperature float32) (*zyn.ProviderResponse, error)
	Name() string
}

// ProviderSource records where a Synapse found its provider.
type ProviderSource string

// Provider sources, in resolution order.
const (
	SourceSynapse ProviderSource = "synapse"
	SourceContext ProviderSource = "context"
	SourceGlobal  ProviderSource = "global"
)

// ErrNoProvider is returned when a Synapse has no provider from any source.
var ErrNoProvider = errors.New("no provider: set one on the synapse, the call context, or globally")

type providerCtxKey struct{}

type providerSlot struct {
	p Provider
}

var globalProvider atomic.Pointer[providerSlot]

// SetProvider sets the process-wide fallback provider. Nil clears it.
func SetProvider(p Provider) {
	if p == nil {
		globalProvider.Store(nil)
		return
	}
	globalProvider.Store(&providerSlot{p: p})
}

// GetProvider returns the fallback provider, or nil.
func GetProvider() Provider {
	if slot := globalProvider.Load(); slot != nil {
		return slot.p
	}
	return nil
}

// WithProvider scopes a provider to one call context.
func WithProvider(ctx context.Context, p Provider) context.Context {
	return context.WithValue(ctx, providerCtxKey{}, p)
}

// ProviderFromContext returns the call-scoped provider, if any.
func ProviderFromContext(ctx context.Context) (Provider, bool) {
	p, ok := ctx.Value(providerCtxKey{}).(Provider)
	return p, ok && p != nil
}

// ResolveProvider picks the synapse provider, then the call-scoped one,
// then the fallback, and reports which source answered.
func ResolveProvider(ctx context.Context, own Provider) (Provider, ProviderSource, error) {
	if own != nil {
		return own, SourceSynapse, nil
	}
	if p, ok := ProviderFromContext(ctx); ok {
		return p, SourceContext, nil
	}
	if p := GetProvider(); p != nil {
		return p, SourceGlobal, nil
	}
	return nil, "", ErrNoProvider
}

// resolve picks the provider for one reasoning operation. Falling back
// to the global provider emits ProviderFallback.
func (s *Synapse) resolve(ctx context.Context, operation string) (Provider, error) {
	p, source, err := ResolveProvider(ctx, s.provider)
	if err != nil {
		return nil, err
	}
	if source == SourceGlobal {
		capitan.Emit(ctx, ProviderFallback,
			FieldProvider.Field(p.Name()),
			FieldOperation.Field(operation),
		)
	}
	return p, nil
}
