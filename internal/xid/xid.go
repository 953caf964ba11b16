package xid

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// New returns a prefixed random identifier, e.g. "stc-3f0c...".
func New(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if prefix == "" {
		return id
	}
	return fmt.Sprintf("%s-%s", prefix, id)
}

// ShiftCode formats the human readable shift code SFT-YYYYMMDD-NNNN where
// seq is the 1-based per-store sequence for the local day.
func ShiftCode(day time.Time, seq int64) string {
	if seq < 1 {
		seq = 1
	}
	return fmt.Sprintf("SFT-%s-%04d", day.Format("20060102"), seq)
}
