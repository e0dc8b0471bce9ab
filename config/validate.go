// Copyright (c) 2026 The AgentRent developers
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/agentrentorg/libagentrent-go/signin"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks that all set configuration values are within
// acceptable ranges and returns the first error encountered, or nil if
// valid. Unset optional values pass; they only disable the matching flow.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if cfg.LedgerContract != "" {
		if _, err := signin.NormalizeAddress(cfg.LedgerContract); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidContract, err)
		}
	}
	if cfg.ChainAccount != "" {
		if _, err := signin.NormalizeAddress(cfg.ChainAccount); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidAccount, err)
		}
	}

	for _, endpoint := range endpointURLs(cfg) {
		if endpoint == "" {
			continue
		}
		if err := validateURL(endpoint); err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidEndpoint, endpoint, err)
		}
	}

	if cfg.DNSUpstream != "" {
		if err := validateAddr(cfg.DNSUpstream); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDNSUpstream, err)
		}
	}

	return nil
}

// endpointURLs collects every configured HTTP endpoint.
func endpointURLs(cfg Config) []string {
	urls := []string{cfg.LedgerRPCURL, cfg.StoreAPIURL}
	urls = append(urls, cfg.CustodyNodes...)
	urls = append(urls, cfg.StoreGateways...)
	return urls
}

// validateURL checks that s is an absolute http(s) URL.
func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// validateAddr checks that addr is a valid host:port address.
func validateAddr(addr string) error {
	_, _, err := net.SplitHostPort(addr)
	return err
}
