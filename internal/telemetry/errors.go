/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
package telemetry

import (
	"errors"
	"fmt"
)

// Kind is the closed error taxonomy spec.md §7 names. Handlers and
// components wrap underlying errors with a Kind via Wrap so the dispatcher
// can translate them into standardised JSON-RPC error codes without string
// matching, the same idiom the teacher uses for %w-wrapped sentinel errors
// in workspace/local.go ("FileSystemWorkspaceContext could not open: %w").
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidURI
	KindNotFound
	KindIOFailed
	KindParseFailed
	KindAnalyzerFailed
	KindCancelled
	KindMethodNotFound
	KindInvalidRequest
	KindAlreadyInitialized
	KindNotInitialized
	KindRequestCancelled
)

func (k Kind) String() string {
	switch k {
	case KindInvalidURI:
		return "InvalidUri"
	case KindNotFound:
		return "NotFound"
	case KindIOFailed:
		return "IoFailed"
	case KindParseFailed:
		return "ParseFailed"
	case KindAnalyzerFailed:
		return "AnalyzerFailed"
	case KindCancelled:
		return "Cancelled"
	case KindMethodNotFound:
		return "MethodNotFound"
	case KindInvalidRequest:
		return "InvalidRequest"
	case KindAlreadyInitialized:
		return "AlreadyInitialized"
	case KindNotInitialized:
		return "NotInitialized"
	case KindRequestCancelled:
		return "RequestCancelled"
	default:
		return "Unknown"
	}
}

// Error pairs a Kind with an underlying cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap tags err with kind, preserving it for errors.Is/As and %w chains.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the Kind from err, if it (or something it wraps) is a
// *Error. Returns KindUnknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
