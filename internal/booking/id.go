package booking

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	idPrefix    = "BKG"
	suffixLen   = 5
	suffixSpace = 36 * 36 * 36 * 36 * 36
)

// newBookingID returns "BKG" + unix millis + 5 uppercase base-36 characters.
func newBookingID(now time.Time) string {
	u := uuid.New()
	n := binary.BigEndian.Uint64(u[:8]) % suffixSpace
	suffix := strings.ToUpper(strconv.FormatUint(n, 36))
	if pad := suffixLen - len(suffix); pad > 0 {
		suffix = strings.Repeat("0", pad) + suffix
	}
	return idPrefix + strconv.FormatInt(now.UnixMilli(), 10) + suffix
}
