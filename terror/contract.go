// SPDX-License-Identifier: ice License 1.0

package terror

// Public API.

type (
	// Err is an error that carries a machine readable Code and structured Data for the caller,
	// i.e. the roles a user actually has when access is denied.
	Err struct {
		error
		Data map[string]any `json:"data,omitempty"`
		Code string         `json:"code,omitempty"`
	}
)
