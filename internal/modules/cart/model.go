package cart

import (
	"time"

	"github.com/google/uuid"
)

// Cart is a pre-order basket. Checkout stays false when an order is created
// from the cart; it flips to true only once that order's payment settles.
type Cart struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Checkout  bool      `json:"checkout"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
