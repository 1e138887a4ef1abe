// Package textutil holds the small helpers shared by the checkpoint pipeline:
// idempotency hashing, text sanitization and bounded random integers.
package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// ResponseHash derives the idempotency key for a checkpoint attempt from the
// chat, the raw student response and the attempt timestamp. Timestamps are
// taken at millisecond precision so a replayed write of the same attempt
// hashes identically.
func ResponseHash(chatID, response string, at time.Time) string {
	h := sha256.New()
	h.Write([]byte(chatID))
	h.Write([]byte{0})
	h.Write([]byte(response))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(at.UnixMilli(), 10)))
	return hex.EncodeToString(h.Sum(nil))
}
