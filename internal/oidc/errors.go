// Copyright 2026 The myAdmin Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package oidc

import (
	"errors"
	"fmt"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownKey   = errors.New("unknown signing key")
	ErrNoKeySource  = errors.New("no verification key configured")
)

// Error wraps a verification failure with the reason reported to logs.
// The reason is never sent to clients.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("oidc: %s: %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalid(reason string, err error) *Error {
	if err == nil {
		return &Error{Reason: reason, Err: ErrInvalidToken}
	}
	return &Error{Reason: reason, Err: fmt.Errorf("%w: %w", ErrInvalidToken, err)}
}
