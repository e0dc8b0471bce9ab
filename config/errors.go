// Copyright (c) 2026 The AgentRent developers
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrInvalidChainID indicates the chain id is not a decimal number.
	ErrInvalidChainID = errors.New("config: invalid chain id")

	// ErrInvalidContract indicates the ledger contract address is malformed.
	ErrInvalidContract = errors.New("config: invalid ledger contract address")

	// ErrInvalidAccount indicates the chain account address is malformed.
	ErrInvalidAccount = errors.New("config: invalid chain account address")

	// ErrInvalidEndpoint indicates a service endpoint URL is malformed.
	ErrInvalidEndpoint = errors.New("config: invalid endpoint URL")

	// ErrInvalidDNSUpstream indicates the DNS upstream is not host:port.
	ErrInvalidDNSUpstream = errors.New("config: invalid DNS upstream address")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")
)
