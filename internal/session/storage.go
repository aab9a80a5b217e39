// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"errors"
)

// Key is the fixed storage key holding the serialized session record.
const Key = "agent"

// ErrNotFound is returned by Storage.Load when no record is stored.
var ErrNotFound = errors.New("session: no record stored")

// Storage is durable single-key storage for the session record.
// Implementations hold at most one value under Key.
type Storage interface {
	// Load returns the stored bytes or ErrNotFound.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the stored bytes.
	Save(ctx context.Context, data []byte) error
	// Clear removes the stored bytes. Clearing empty storage is not an error.
	Clear(ctx context.Context) error
}
