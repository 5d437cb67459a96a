package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/teris-io/shortid"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex pay_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

var (
	sidGenerator *shortid.Shortid
	once         sync.Once
)

func initializeSID() {
	var err error
	sidGenerator, err = shortid.New(1, shortid.DefaultABC, 2342)
	if err != nil {
		panic("failed to initialize shortid generator: " + err.Error())
	}
}

// GenerateBookingNumber returns a short human-readable booking reference,
// e.g. BK-X4QZ81A. Used on guest-facing surfaces instead of the ULID.
func GenerateBookingNumber() string {
	once.Do(initializeSID)

	id, err := sidGenerator.Generate()
	if err != nil {
		return ""
	}
	id = strings.ReplaceAll(id, "-", "")

	if len(id) > 8 {
		id = id[:8]
	}

	return "BK-" + strings.ToUpper(id)
}

const (
	UUID_PREFIX_BOOKING       = "book"
	UUID_PREFIX_PAYMENT       = "pay"
	UUID_PREFIX_WEBHOOK_EVENT = "evt"
)
