package resource

// SentinelCount is the number of slots SeedSentinels appends.
const SentinelCount = 4

// SeedSentinels installs the wasm-bindgen sentinel layout: slot 0 is reset
// to Undefined, then four slots are appended holding Undefined, Null, True
// and False in that order.
func SeedSentinels(t *Table) error {
	if err := t.Set(0, Undefined); err != nil {
		return err
	}
	offset := t.Grow(SentinelCount)
	for i, v := range []Sentinel{Undefined, Null, True, False} {
		if err := t.Set(offset+Index(i), v); err != nil {
			return err
		}
	}
	return nil
}
