package rpcprovider

import "errors"

var (
	// ErrUnexpectedResponse is returned when the node answers with a shape the provider cannot decode.
	ErrUnexpectedResponse = errors.New("rpcprovider: unexpected response")

	// ErrNotConfirmed is returned when a transaction is still unknown after every poll attempt.
	ErrNotConfirmed = errors.New("rpcprovider: transaction not confirmed")
)
