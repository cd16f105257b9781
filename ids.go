package recordstore

import (
	"strconv"

	"github.com/google/uuid"
)

// SubscriptionID identifies one registered listener.
//
// SubscriptionID is opaque: callers keep the value returned by
// [Store.AddListeners] and hand it back to [Store.RemoveListeners].
// It is unique among the active subscriptions of one store.
type SubscriptionID string

// String returns the string representation of the id.
func (id SubscriptionID) String() string {
	return string(id)
}

// IDGenerator mints subscription ids for a store.
//
// A generator must not return an id that is still active in the store it
// serves. A collision is treated as a bug and panics.
type IDGenerator func() SubscriptionID

// SequentialIDs returns a generator producing "1", "2", "3", ...
//
// This is the default for every store. Each call returns an independent
// counter.
func SequentialIDs() IDGenerator {
	var n uint64
	return func() SubscriptionID {
		n++
		return SubscriptionID(strconv.FormatUint(n, 10))
	}
}

// UUIDs returns a generator producing random (version 4) UUID strings.
//
// Useful when ids leave the process, for example in logs correlated
// across several stores.
func UUIDs() IDGenerator {
	return func() SubscriptionID {
		return SubscriptionID(uuid.NewString())
	}
}
