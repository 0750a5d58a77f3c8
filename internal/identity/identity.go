// Package identity supplies the caller identity reported by CheckFileInfo.
//
// Access tokens are not validated yet, so the only provider is Static, which
// reports the same placeholder user for every request.
package identity

import (
	"context"

	"wopihost/internal/config"
	"wopihost/internal/model"
)

// Provider returns the identity of the caller acting on a document.
type Provider interface {
	Identify(ctx context.Context, documentID string) (model.Identity, error)
}

// Static reports a fixed identity.
type Static struct {
	identity model.Identity
}

// NewStatic returns a Static provider from configuration. The defaults are user "1" with write access.
func NewStatic(cfg config.IdentityConfig) Static {
	return Static{identity: model.Identity{UserID: cfg.UserID, CanWrite: cfg.CanWrite, NumericID: cfg.UserIDNumeric}}
}

func (s Static) Identify(context.Context, string) (model.Identity, error) {
	return s.identity, nil
}
