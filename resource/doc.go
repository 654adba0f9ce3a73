// Package resource provides the host-side reference table for the guest's
// opaque (externref) values.
//
// The wasm-bindgen verifier binary refers to a handful of host values by
// table index instead of embedding them: undefined, null, true and false.
// The guest asks the host to install them once, from its start routine,
// through the __wbindgen_init_externref_table import.
//
// # Table
//
// wazero offers no host API over guest tables, so the host keeps this table
// as the authority for any reference the guest hands back by index:
//
//	table := resource.NewTable()
//
//	// Reserve slots, get the index of the first one
//	offset := table.Grow(4)
//
//	// Store and look up values
//	_ = table.Set(offset, resource.Null)
//	v, ok := table.Get(offset)
//
// Index 0 is reserved and always holds Undefined.
//
// # Seeding
//
// A Seeder is the capability handed to an instance at instantiation time.
// SeedSentinels reproduces the layout wasm-bindgen expects:
//
//	offset+0  Undefined
//	offset+1  Null
//	offset+2  True
//	offset+3  False
//
// # Observers
//
// Register observers to trace table changes:
//
//	table.Subscribe(myObserver) // receives EventGrown and EventSet
package resource
