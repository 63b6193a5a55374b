package shopify

import (
	"fmt"
	"strings"

	"catalog-sync/core/transport"
)

// ErrProductNotFound is returned when a product id no longer resolves.
var ErrProductNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string             { return "product not found" }
func (notFoundError) Kind() transport.ErrorKind { return transport.NotFound }

// GraphQLError is a request-level failure reported in the "errors" array.
type GraphQLError struct {
	Messages []string
	Codes    []string
}

func (e *GraphQLError) Error() string {
	return "graphql error: " + strings.Join(e.Messages, "; ")
}

// Throttled reports whether the API rejected the call for exceeding its cost budget.
func (e *GraphQLError) Throttled() bool {
	return e.hasCode("THROTTLED")
}

// Kind classifies the error for the transport.
func (e *GraphQLError) Kind() transport.ErrorKind {
	switch {
	case e.Throttled(), e.hasCode("INTERNAL_SERVER_ERROR"):
		return transport.Transient
	case e.hasCode("ACCESS_DENIED"):
		return transport.Fatal
	default:
		return transport.Terminal
	}
}

func (e *GraphQLError) hasCode(code string) bool {
	for _, c := range e.Codes {
		if c == code {
			return true
		}
	}
	return false
}

// UserError is one validation failure of a mutation.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

// UserErrors is returned when a mutation reports userErrors or mediaUserErrors.
type UserErrors struct {
	Mutation string
	Errors   []UserError
}

func (e *UserErrors) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, ue := range e.Errors {
		if len(ue.Field) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(ue.Field, "."), ue.Message))
			continue
		}
		parts = append(parts, ue.Message)
	}
	return fmt.Sprintf("%s rejected: %s", e.Mutation, strings.Join(parts, "; "))
}

// Kind marks user errors as terminal.
func (e *UserErrors) Kind() transport.ErrorKind { return transport.Terminal }

func checkUserErrors(mutation string, errs []UserError) error {
	if len(errs) == 0 {
		return nil
	}
	return &UserErrors{Mutation: mutation, Errors: errs}
}

