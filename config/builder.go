package config

import (
	"fmt"

	"github.com/jpalmerr/recordstore"
)

// BuildRecord converts the scenario's record section into the initial
// map record for a store.
func BuildRecord(sc *Scenario) map[string]any {
	record := make(map[string]any, len(sc.Record))
	for _, fv := range sc.Record {
		record[fv.Name] = fv.Value
	}
	return record
}

// StoreOptions returns the store options selected by the scenario.
func StoreOptions(sc *Scenario) []recordstore.Option {
	var opts []recordstore.Option
	if sc.IDs == IDsUUID {
		opts = append(opts, recordstore.WithIDGenerator(recordstore.UUIDs()))
	}
	return opts
}

// BuildStore creates a store holding the scenario's initial record.
//
// Extra options are applied after the scenario's own, so a caller can
// override the logger or id generator.
func BuildStore(sc *Scenario, extra ...recordstore.Option) (*recordstore.Store[map[string]any], error) {
	opts := append(StoreOptions(sc), extra...)
	store, err := recordstore.New(BuildRecord(sc), opts...)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	return store, nil
}

// Changes converts a set step into store changes, in file order.
func (f Fields) Changes() []recordstore.Change {
	changes := make([]recordstore.Change, len(f))
	for i, fv := range f {
		changes[i] = recordstore.Change{Field: fv.Name, Value: fv.Value}
	}
	return changes
}
