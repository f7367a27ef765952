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
	"time"

	"github.com/google/uuid"
)

// Span wraps a named timer around a suspension point (spec.md §5: "every
// handler call into the analyzer... is wrapped in a tracing span so that
// cancellation can be observed between distinct calls"). Spans carry an
// opaque id so log lines for one request/dispatch can be correlated.
type Span struct {
	ID    string
	Name  string
	start time.Time
}

// NewSpanID generates an opaque id for one request or dispatch cycle.
func NewSpanID() string {
	return uuid.NewString()
}

// StartSpan begins a span named name under the given request/span id.
func StartSpan(id, name string) *Span {
	Debugf("[%s] %s: start", id, name)
	return &Span{ID: id, Name: name, start: time.Now()}
}

// End records the span's duration.
func (s *Span) End() {
	Debugf("[%s] %s: done in %s", s.ID, s.Name, time.Since(s.start))
}

// EndErr records the span's duration and, if err is non-nil, logs it.
func (s *Span) EndErr(err error) {
	if err != nil {
		Warnf("[%s] %s: failed after %s: %v", s.ID, s.Name, time.Since(s.start), err)
		return
	}
	s.End()
}
