package config

import (
	"fmt"
	"net/url"
	"strings"

	"everp/internal/tokenstore"
	"everp/pkg/logging"
)

// Validate checks the configuration and returns every problem found, or nil.
func (c EverpConfig) Validate() error {
	errs := &ConfigurationErrorCollection{}
	add := func(field, message string) {
		errs.Add(NewConfigurationError("", field, "validation", message))
	}

	if c.Auth.Issuer != "" {
		if err := validateHTTPURL(c.Auth.Issuer); err != nil {
			add("auth.issuer", err.Error())
		}
	} else {
		if err := validateHTTPURL(c.Auth.AuthorizationEndpoint); err != nil {
			add("auth.authorizationEndpoint", err.Error())
		}
		if err := validateHTTPURL(c.Auth.TokenEndpoint); err != nil {
			add("auth.tokenEndpoint", err.Error())
		}
	}
	if c.Auth.LogoutEndpoint != "" {
		if err := validateHTTPURL(c.Auth.LogoutEndpoint); err != nil {
			add("auth.logoutEndpoint", err.Error())
		}
	}
	if strings.TrimSpace(c.Auth.ClientID) == "" {
		add("auth.clientId", "is required")
	}
	if err := validateRedirectURI(c.Auth.RedirectURI); err != nil {
		add("auth.redirectUri", err.Error())
	}
	if c.Auth.Timeout < 0 {
		add("auth.timeout", "must not be negative")
	}

	if err := validateHTTPURL(c.Gateway.BaseURL); err != nil {
		add("gateway.baseUrl", err.Error())
	}
	if c.Gateway.Timeout < 0 {
		add("gateway.timeout", "must not be negative")
	}

	if _, err := tokenstore.ParseBackend(c.TokenStore.Backend); err != nil {
		add("tokenStore.backend", err.Error())
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		add("logging.level", err.Error())
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateHTTPURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("is not a URL: %v", err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("must be an http(s) URL with a host")
	}
	return nil
}

func validateRedirectURI(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("is not a URI: %v", err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("must have a scheme")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("must not have a query or fragment")
	}
	return nil
}
