// SPDX-License-Identifier: ice License 1.0

package time

import (
	"context"
	"strconv"
	stdlibtime "time"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

func Now() *Time {
	now := stdlibtime.Now().UTC()

	return &Time{Time: &now}
}

func New(t stdlibtime.Time) *Time {
	t = t.UTC()

	return &Time{Time: &t}
}

// Fixed returns a Clock that always tells t.
func Fixed(t stdlibtime.Time) Clock {
	return func() *Time {
		return New(t)
	}
}

func (t *Time) IsNil() bool {
	return t == nil || t.Time == nil
}

func (t *Time) DecodeMsgpack(dec *msgpack.Decoder) error {
	nanos, err := dec.DecodeInt64()
	if err != nil {
		return errors.Wrap(err, "failed to decode msgpack time")
	}
	if nanos == 0 {
		t.Time = nil

		return nil
	}
	decoded := stdlibtime.Unix(0, nanos).UTC()
	t.Time = &decoded

	return nil
}

func (t *Time) EncodeMsgpack(enc *msgpack.Encoder) error {
	var nanos int64
	if !t.IsNil() {
		nanos = t.UnixNano()
	}

	return errors.Wrap(enc.EncodeInt64(nanos), "failed to encode msgpack time")
}

func (t *Time) MarshalJSON(_ context.Context) ([]byte, error) {
	if t.IsNil() || t.UnixNano() == 0 {
		return []byte("null"), nil
	}

	//nolint:wrapcheck // Proxy.
	return t.UTC().MarshalJSON()
}

// UnmarshalJSON accepts RFC3339 strings as well as unix timestamps in seconds, milliseconds or nanoseconds.
func (t *Time) UnmarshalJSON(_ context.Context, data []byte) error {
	raw := string(data)
	if raw == "null" || raw == `""` || raw == "" {
		t.Time = nil

		return nil
	}
	if number, err := strconv.ParseInt(raw, 10, 64); err == nil {
		var parsed stdlibtime.Time
		switch digits := len(raw); {
		case digits <= 10: //nolint:mnd,gomnd // Seconds.
			parsed = stdlibtime.Unix(number, 0)
		case digits == 13: //nolint:mnd,gomnd // Milliseconds.
			parsed = stdlibtime.UnixMilli(number)
		default:
			parsed = stdlibtime.Unix(0, number)
		}
		parsed = parsed.UTC()
		t.Time = &parsed

		return nil
	}
	parsed, err := stdlibtime.Parse(`"`+stdlibtime.RFC3339Nano+`"`, raw)
	if err != nil {
		return errors.Wrapf(err, "invalid time format: %v", raw)
	}
	parsed = parsed.UTC()
	t.Time = &parsed

	return nil
}
