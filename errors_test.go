package ptb

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrMissingSender", ErrMissingSender, "ptb: missing transaction sender"},
		{"ErrTooManyGasObjects", ErrTooManyGasObjects, "ptb: too many gas payment objects"},
		{"ErrArgumentCountMismatch", ErrArgumentCountMismatch, "ptb: incorrect number of arguments"},
		{"ErrInvalidObject", ErrInvalidObject, "ptb: invalid input objects"},
		{"ErrNoPaymentCoins", ErrNoPaymentCoins, "ptb: no valid gas coins found for the transaction"},
		{"ErrDryRunFailed", ErrDryRunFailed, "ptb: dry run failed, could not automatically determine a budget"},
		{"ErrConfigKeyNotFound", ErrConfigKeyNotFound, "ptb: missing expected protocol config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("Expected error message %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func TestStructuredErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		msg      string
	}{
		{
			name:     "TooManyGasObjectsError",
			err:      &TooManyGasObjectsError{Count: 300, Max: 256},
			sentinel: ErrTooManyGasObjects,
			msg:      "ptb: payment objects exceed maximum amount: 300 > 256",
		},
		{
			name:     "ArgumentCountMismatchError",
			err:      &ArgumentCountMismatchError{Target: "0x2::coin::split", Expected: 2, Got: 1},
			sentinel: ErrArgumentCountMismatch,
			msg:      "ptb: incorrect number of arguments for 0x2::coin::split: expected 2, got 1",
		},
		{
			name:     "InvalidObjectIDError",
			err:      &InvalidObjectIDError{Value: 42},
			sentinel: ErrInvalidObjectID,
			msg:      "ptb: expected the argument to be an object id string, got int (42)",
		},
		{
			name:     "InvalidObjectError",
			err:      &InvalidObjectError{IDs: []string{"0xa", "0xb"}},
			sentinel: ErrInvalidObject,
			msg:      "ptb: the following input objects are invalid: 0xa, 0xb",
		},
		{
			name:     "DryRunError",
			err:      &DryRunError{Reason: "InsufficientGas"},
			sentinel: ErrDryRunFailed,
			msg:      "ptb: dry run failed, could not automatically determine a budget: InsufficientGas",
		},
		{
			name:     "ConfigKeyError",
			err:      &ConfigKeyError{Key: LimitMaxTxGas},
			sentinel: ErrConfigKeyNotFound,
			msg:      `ptb: missing expected protocol config: "max_tx_gas"`,
		},
		{
			name:     "PureValueError",
			err:      &PureValueError{Type: "u8", Value: "x"},
			sentinel: ErrInvalidPureValue,
			msg:      "ptb: cannot encode string as u8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("Expected error message %q, got %q", tt.msg, tt.err.Error())
			}
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("Expected errors.Is(%T, %v) to be true", tt.err, tt.sentinel)
			}
		})
	}
}

func TestCommandError(t *testing.T) {
	inner := &ArgumentCountMismatchError{Target: "0x2::coin::split", Expected: 2, Got: 1}
	err := &CommandError{CommandIndex: 3, Kind: CommandMoveCall, Err: inner}

	expected := "ptb: command 3 (MoveCall): " + inner.Error()
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	wrapped := fmt.Errorf("prepare: %w", err)
	if !errors.Is(wrapped, ErrArgumentCountMismatch) {
		t.Error("Expected wrapped CommandError to match ErrArgumentCountMismatch")
	}

	var mismatch *ArgumentCountMismatchError
	if !errors.As(wrapped, &mismatch) {
		t.Fatal("Expected errors.As to find ArgumentCountMismatchError")
	}
	if mismatch.Expected != 2 || mismatch.Got != 1 {
		t.Errorf("Expected 2/1, got %d/%d", mismatch.Expected, mismatch.Got)
	}
}
