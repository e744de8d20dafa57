package types

// PrefixEnd returns the smallest key greater than every key with the
// given prefix, so KVStore.Iterator(prefix, PrefixEnd(prefix)) performs an
// exact prefix scan. Mirrors cosmos-sdk's sdk.PrefixEndBytes. A prefix of
// all 0xff bytes (or empty) has no finite successor and yields a nil end,
// meaning "unbounded".
func PrefixEnd(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
