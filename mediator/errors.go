package mediator

import (
	"errors"
	"fmt"
	"reflect"

	apperrors "github.com/kbukum/mediator/errors"
)

var (
	// ErrDuplicateHandler matches every DuplicateHandlerError.
	ErrDuplicateHandler = errors.New("mediator: duplicate handler")
	// ErrUnregisteredRequest matches every UnregisteredRequestError.
	ErrUnregisteredRequest = errors.New("mediator: unregistered request")
	// ErrRegistryFrozen is returned by registration calls after Freeze.
	ErrRegistryFrozen = errors.New("mediator: registry is frozen")
	// ErrNilRequest is returned when Send or Publish receives a nil request.
	ErrNilRequest = errors.New("mediator: request is nil")
	// ErrNilHandler is returned when registering a nil handler or behavior.
	ErrNilHandler = errors.New("mediator: handler is nil")
	// ErrInterfaceRequest is returned when registering against an interface
	// type; routing needs the concrete dynamic type.
	ErrInterfaceRequest = errors.New("mediator: request type must be concrete")
	// ErrNextCalledTwice is returned when a behavior calls next more than once.
	ErrNextCalledTwice = errors.New("mediator: next called more than once")
	// ErrChainCompleted is returned when next is called after its behavior returned.
	ErrChainCompleted = errors.New("mediator: next called after behavior returned")
)

// Kind distinguishes the registries a request type can live in.
type Kind string

const (
	KindRequest      Kind = "request"
	KindStream       Kind = "stream"
	KindNotification Kind = "notification"
)

// DuplicateHandlerError reports a second handler for one request type.
type DuplicateHandlerError struct {
	Kind        Kind
	RequestType reflect.Type
	Existing    string
	Rejected    string
}

func (e *DuplicateHandlerError) Error() string {
	return fmt.Sprintf("mediator: %s handler already registered for %s (existing %s, rejected %s)",
		e.Kind, typeName(e.RequestType), e.Existing, e.Rejected)
}

// Is reports whether target is ErrDuplicateHandler.
func (e *DuplicateHandlerError) Is(target error) bool { return target == ErrDuplicateHandler }

// UnregisteredRequestError reports a dispatch for a request type without a handler.
type UnregisteredRequestError struct {
	Kind        Kind
	RequestType reflect.Type
}

func (e *UnregisteredRequestError) Error() string {
	return fmt.Sprintf("mediator: no %s handler registered for %s", e.Kind, typeName(e.RequestType))
}

// Is reports whether target is ErrUnregisteredRequest.
func (e *UnregisteredRequestError) Is(target error) bool { return target == ErrUnregisteredRequest }

// BehaviorMismatchError reports a typed behavior whose result type differs
// from the result type of the handler registered for the same request.
type BehaviorMismatchError struct {
	RequestType reflect.Type
	Behavior    string
	Want        reflect.Type
	Got         reflect.Type
}

func (e *BehaviorMismatchError) Error() string {
	return fmt.Sprintf("mediator: behavior %s for %s produces %s, handler produces %s",
		e.Behavior, typeName(e.RequestType), e.Got, e.Want)
}

// ResultTypeError reports a chain result that is not assignable to the type
// the caller asked for.
type ResultTypeError struct {
	RequestType reflect.Type
	Want        reflect.Type
	Got         reflect.Type
}

func (e *ResultTypeError) Error() string {
	return fmt.Sprintf("mediator: %s produced %s, caller expects %s", typeName(e.RequestType), e.Got, e.Want)
}

// AsAppError maps any dispatch error onto an AppError for transports.
// AppErrors anywhere in the chain are returned as they are; the mediator's
// own errors get dedicated codes; everything else becomes an internal error.
func AsAppError(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	var unregistered *UnregisteredRequestError
	if errors.As(err, &unregistered) {
		return apperrors.UnregisteredRequest(typeName(unregistered.RequestType)).WithCause(err)
	}

	var duplicate *DuplicateHandlerError
	if errors.As(err, &duplicate) {
		return apperrors.DuplicateHandler(typeName(duplicate.RequestType)).WithCause(err)
	}

	if errors.Is(err, ErrRegistryFrozen) {
		return apperrors.NotSupported("The registry no longer accepts registrations.").WithCause(err)
	}

	return apperrors.Internal(err)
}
