package cache

import (
	"strconv"

	"github.com/google/uuid"
)

func ProductKey(id uuid.UUID) string { return "product:" + id.String() }

func CartPresenceKey(userID uuid.UUID) string { return "presence:cart:" + userID.String() }

func WishlistPresenceKey(userID uuid.UUID) string { return "presence:wishlist:" + userID.String() }

func OrderNotifiedKey(orderID uuid.UUID) string { return "order_notified:" + orderID.String() }

func ProfileKnownKey(userID uuid.UUID) string { return "profile_known:" + userID.String() }

// GenerationKey holds the invalidation counter for the family of keys under base.
func GenerationKey(base string) string { return base + ":gen" }

// VersionedKey names the value of base cached at generation gen.
func VersionedKey(base string, gen int64) string { return base + ":" + strconv.FormatInt(gen, 10) }
