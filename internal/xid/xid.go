package xid

import (
	"fmt"

	"github.com/google/uuid"
)

// New returns a prefixed, collision-resistant identifier. UUIDs are used
// instead of timestamps so two records created within the same clock tick
// cannot collide.
func New(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}
