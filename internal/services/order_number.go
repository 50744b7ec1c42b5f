package services

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OrderNumberFunc yields a fresh candidate order number. Uniqueness is
// enforced by the database; callers retry on collision.
type OrderNumberFunc func() (string, error)

// 36^6
const suffixSpace = 2176782336

// NewOrderNumberFunc formats numbers as PREFIX-<base36 unix millis>-<6 base36 random>.
func NewOrderNumberFunc(prefix string, now func() time.Time) OrderNumberFunc {
	if now == nil {
		now = time.Now
	}
	return func() (string, error) {
		var buf [8]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return "", fmt.Errorf("failed to read random suffix: %w", err)
		}
		suffix := strconv.FormatUint(binary.BigEndian.Uint64(buf[:])%suffixSpace, 36)
		suffix = strings.Repeat("0", 6-len(suffix)) + suffix
		stamp := strconv.FormatInt(now().UnixMilli(), 36)
		return strings.ToUpper(fmt.Sprintf("%s-%s-%s", prefix, stamp, suffix)), nil
	}
}
