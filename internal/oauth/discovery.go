package oauth

import (
	"context"
	"errors"
	"fmt"

	pkgoauth "everp/pkg/oauth"
)

// Discoverer resolves authorization endpoints from an issuer URL.
type Discoverer struct {
	protocol *pkgoauth.Client
}

// NewDiscoverer creates a discoverer that shares protocol's metadata cache.
func NewDiscoverer(protocol *pkgoauth.Client) *Discoverer {
	if protocol == nil {
		protocol = pkgoauth.NewClient()
	}
	return &Discoverer{protocol: protocol}
}

// Discover fetches the metadata of issuer. Concurrent calls for the same issuer
// share one request and results are cached.
func (d *Discoverer) Discover(ctx context.Context, issuer string) (*pkgoauth.Metadata, error) {
	metadata, err := d.protocol.DiscoverMetadata(ctx, issuer)
	if err != nil {
		var httpErr *pkgoauth.HTTPError
		var decodeErr *pkgoauth.DecodeError
		if errors.As(err, &httpErr) || errors.As(err, &decodeErr) {
			return nil, err
		}
		return nil, &NetworkError{Op: "metadata", Err: err}
	}
	if !metadata.SupportsPKCE() {
		return nil, &ConfigurationError{Field: "issuer", Value: issuer, Reason: "server does not support S256 PKCE"}
	}
	return metadata, nil
}

// Resolve returns cfg with its endpoints replaced by the ones issuer advertises.
func (d *Discoverer) Resolve(ctx context.Context, issuer string, cfg *AuthorizationConfig) (*AuthorizationConfig, error) {
	metadata, err := d.Discover(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve endpoints of %s: %w", issuer, err)
	}
	return cfg.WithEndpoints(metadata.AuthorizationEndpoint, metadata.TokenEndpoint), nil
}
