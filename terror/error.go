// SPDX-License-Identifier: ice License 1.0

package terror

import (
	"github.com/pkg/errors"
)

func New(err error, code string, data map[string]any) *Err {
	return &Err{error: err, Code: code, Data: data}
}

// As finds the first *Err in err's chain, or nil.
func As(err error) *Err {
	var tErr *Err
	if errors.As(err, &tErr) {
		return tErr
	}

	return nil
}

func (e *Err) Unwrap() error {
	return e.error
}
