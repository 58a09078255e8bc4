package ptb

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure conditions.
var (
	// ErrMissingSender indicates a sender is required but was never set.
	ErrMissingSender = errors.New("ptb: missing transaction sender")

	// ErrMissingProvider indicates a network lookup is needed but no provider was supplied.
	ErrMissingProvider = errors.New("ptb: no provider configured for network resolution")

	// ErrTooManyGasObjects indicates the gas payment exceeds the allowed object count.
	ErrTooManyGasObjects = errors.New("ptb: too many gas payment objects")

	// ErrArgumentCountMismatch indicates a Move call has the wrong number of arguments.
	ErrArgumentCountMismatch = errors.New("ptb: incorrect number of arguments")

	// ErrInvalidObjectID indicates a value that is neither pure-encodable nor an object id.
	ErrInvalidObjectID = errors.New("ptb: expected an object id string")

	// ErrInvalidObject indicates one or more fetched objects reported an error.
	ErrInvalidObject = errors.New("ptb: invalid input objects")

	// ErrNoPaymentCoins indicates the gas owner has no spendable coins.
	ErrNoPaymentCoins = errors.New("ptb: no valid gas coins found for the transaction")

	// ErrDryRunFailed indicates the budget dry run reported an execution failure.
	ErrDryRunFailed = errors.New("ptb: dry run failed, could not automatically determine a budget")

	// ErrConfigKeyNotFound indicates a limit is missing from overrides and protocol config.
	ErrConfigKeyNotFound = errors.New("ptb: missing expected protocol config")

	// ErrUnknownCallArgType indicates a Move parameter type that cannot take an input.
	ErrUnknownCallArgType = errors.New("ptb: unknown call arg type")

	// ErrInvalidPureValue indicates a raw value does not match its pure Move type.
	ErrInvalidPureValue = errors.New("ptb: invalid pure value")

	// ErrPureArgumentTooLarge indicates a pure input exceeds max_pure_argument_size.
	ErrPureArgumentTooLarge = errors.New("ptb: pure argument too large")

	// ErrTransactionTooLarge indicates the serialized transaction exceeds max_tx_size_bytes.
	ErrTransactionTooLarge = errors.New("ptb: transaction too large")

	// ErrInvalidAddress indicates a malformed address or object id.
	ErrInvalidAddress = errors.New("ptb: invalid address")

	// ErrInvalidTypeTag indicates a type string that cannot be parsed.
	ErrInvalidTypeTag = errors.New("ptb: invalid type tag")

	// ErrInvalidTarget indicates a Move call target not of the form package::module::function.
	ErrInvalidTarget = errors.New("ptb: invalid move call target")

	// ErrIncompleteGasConfig indicates gas data is missing when full transaction data is built.
	ErrIncompleteGasConfig = errors.New("ptb: incomplete gas configuration")

	// ErrUnresolvedInput indicates serialization reached an input that was never resolved.
	ErrUnresolvedInput = errors.New("ptb: unresolved input")

	// ErrTooManyInputs indicates more inputs were added than a u16 index can address.
	ErrTooManyInputs = errors.New("ptb: too many inputs")

	// ErrTooManyCommands indicates more commands were added than a u16 index can address.
	ErrTooManyCommands = errors.New("ptb: too many commands")
)

// TooManyGasObjectsError reports a payment list over the allowed size.
type TooManyGasObjectsError struct {
	Count int
	Max   uint64
}

func (e *TooManyGasObjectsError) Error() string {
	return fmt.Sprintf("ptb: payment objects exceed maximum amount: %d > %d", e.Count, e.Max)
}

func (e *TooManyGasObjectsError) Unwrap() error {
	return ErrTooManyGasObjects
}

// ArgumentCountMismatchError reports a Move call whose arguments don't match the signature.
type ArgumentCountMismatchError struct {
	Target   string
	Expected int
	Got      int
}

func (e *ArgumentCountMismatchError) Error() string {
	return fmt.Sprintf("ptb: incorrect number of arguments for %s: expected %d, got %d", e.Target, e.Expected, e.Got)
}

func (e *ArgumentCountMismatchError) Unwrap() error {
	return ErrArgumentCountMismatch
}

// InvalidObjectIDError reports a raw value that had to be an object id but wasn't.
type InvalidObjectIDError struct {
	Value any
}

func (e *InvalidObjectIDError) Error() string {
	return fmt.Sprintf("ptb: expected the argument to be an object id string, got %T (%v)", e.Value, e.Value)
}

func (e *InvalidObjectIDError) Unwrap() error {
	return ErrInvalidObjectID
}

// InvalidObjectError lists the object ids whose lookup returned an error.
type InvalidObjectError struct {
	IDs []string
}

func (e *InvalidObjectError) Error() string {
	return fmt.Sprintf("ptb: the following input objects are invalid: %s", strings.Join(e.IDs, ", "))
}

func (e *InvalidObjectError) Unwrap() error {
	return ErrInvalidObject
}

// DryRunError carries the chain-reported reason of a failed dry run.
type DryRunError struct {
	Reason string
}

func (e *DryRunError) Error() string {
	return fmt.Sprintf("ptb: dry run failed, could not automatically determine a budget: %s", e.Reason)
}

func (e *DryRunError) Unwrap() error {
	return ErrDryRunFailed
}

// ConfigKeyError names the limit that could not be found.
type ConfigKeyError struct {
	Key LimitKey
}

func (e *ConfigKeyError) Error() string {
	return fmt.Sprintf("ptb: missing expected protocol config: %q", string(e.Key))
}

func (e *ConfigKeyError) Unwrap() error {
	return ErrConfigKeyNotFound
}

// CommandError wraps errors that occur while resolving a command.
type CommandError struct {
	CommandIndex int
	Kind         CommandKind
	Err          error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("ptb: command %d (%s): %v", e.CommandIndex, e.Kind, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// PureValueError indicates a raw value that could not be encoded as the given Move type.
type PureValueError struct {
	Type  string
	Value any
	Err   error
}

func (e *PureValueError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ptb: cannot encode %T as %s: %v", e.Value, e.Type, e.Err)
	}
	return fmt.Sprintf("ptb: cannot encode %T as %s", e.Value, e.Type)
}

func (e *PureValueError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidPureValue, e.Err}
	}
	return []error{ErrInvalidPureValue}
}
