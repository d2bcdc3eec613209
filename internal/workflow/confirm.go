/*-------------------------------------------------------------------------
 *
 * confirm.go
 *    Confirmation reply classification for NeuronChat workflows
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/workflow/confirm.go
 *
 *-------------------------------------------------------------------------
 */

package workflow

import (
	"strings"
)

var affirmativeWords = map[string]bool{
	"yes": true, "y": true, "yeah": true, "yep": true, "yup": true,
	"sure": true, "ok": true, "okay": true, "confirm": true,
	"confirmed": true, "correct": true, "proceed": true, "go": true,
	"do it": true, "go ahead": true, "please do": true,
}

var negativeWords = map[string]bool{
	"no": true, "n": true, "nope": true, "nah": true, "negative": true,
	"don't": true, "dont": true, "stop": true, "wait": true,
}

/* IsAffirmative reports whether a message confirms a pending question */
func IsAffirmative(message string) bool {
	return affirmativeWords[normalizeReply(message)]
}

/* IsNegative reports whether a message declines a pending question */
func IsNegative(message string) bool {
	return negativeWords[normalizeReply(message)]
}

func normalizeReply(message string) string {
	message = strings.ToLower(strings.TrimSpace(message))
	return strings.Trim(message, ".,!?")
}
