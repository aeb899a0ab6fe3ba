package muxer

import "fmt"

// FilterChain models the original's ffmpeg filter-graph string: a
// diagnostic description plus a reset hook. Pixel-level codec/filter math
// is out of scope, so no implementation here actually transforms pixel
// data beyond what the field-combining helpers in combine.go do; this
// exists so Describe()/Clear() parity with the original's filter string
// composition is preserved for logging.
type FilterChain interface {
	Describe() string
	Clear()
}

// passthroughFilter is the fast path used whenever no filter string is
// required: frames are queued and returned verbatim.
type passthroughFilter struct{}

func (passthroughFilter) Describe() string { return "" }
func (passthroughFilter) Clear()           {}

// describedFilter carries a non-empty filter description for diagnostics.
type describedFilter struct {
	description string
}

func (d describedFilter) Describe() string { return d.description }
func (describedFilter) Clear()             {}

func newFilterChain(description string) FilterChain {
	if description == "" {
		return passthroughFilter{}
	}
	return describedFilter{description: description}
}

func appendFilter(chain, step string) string {
	if chain == "" {
		return step
	}
	return chain + "," + step
}

func appendFilterf(chain, format string, args ...any) string {
	return appendFilter(chain, fmt.Sprintf(format, args...))
}
