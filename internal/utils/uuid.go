/*-------------------------------------------------------------------------
 *
 * uuid.go
 *    Identifier helpers for NeuronChat
 *
 * Request IDs, node IDs, and collector run IDs are UUIDs; these
 * helpers keep the generation and parsing in one place.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/utils/uuid.go
 *
 *-------------------------------------------------------------------------
 */

package utils

import (
	"github.com/google/uuid"
)

/* NewUUID generates a new UUID */
func NewUUID() uuid.UUID {
	return uuid.New()
}

/* NewID generates a new UUID as a string */
func NewID() string {
	return uuid.New().String()
}

/* ParseID parses a UUID string */
func ParseID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

/* IsValidID checks whether a string is a valid UUID */
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
