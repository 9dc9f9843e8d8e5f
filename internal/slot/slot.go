package slot

import "context"

// DefaultKey is the storage key of the cart slot.
const DefaultKey = "@RocketShoes:cart"

// Slot is a single durable key-value entry holding the serialized cart.
type Slot interface {
	// Load returns the stored value. A slot that was never written returns an
	// error wrapping domain.ErrNotFound.
	Load(ctx context.Context) ([]byte, error)

	// Save overwrites the stored value with data.
	Save(ctx context.Context, data []byte) error

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}
