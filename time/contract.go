// SPDX-License-Identifier: ice License 1.0

package time

import (
	stdlibtime "time"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

// Public API.

type (
	// Time is always UTC. A nil *Time, or one wrapping nil, means "not set".
	Time struct {
		*stdlibtime.Time
	}
	// Clock tells the current time; swapped in tests to pin "now".
	Clock func() *Time
)

// Private API.

var (
	_ msgpack.CustomEncoder   = (*Time)(nil)
	_ msgpack.CustomDecoder   = (*Time)(nil)
	_ json.UnmarshalerContext = (*Time)(nil)
	_ json.MarshalerContext   = (*Time)(nil)
)
