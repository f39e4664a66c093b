package main

// readVarint decodes a SQLite varint starting at buf[offset], returning the
// decoded value and the number of bytes consumed. The caller advances its
// offset by consumed. Bytes 1-8 contribute 7 bits each (high bit set
// means "more follows"); a 9th byte, if reached, contributes all 8 bits.
// Returns consumed == 0 if offset is at or past the end of buf, or buf
// ends before the varint's last byte.
func readVarint(buf []byte, offset int) (value uint64, consumed int) {
	if offset >= len(buf) {
		return 0, 0
	}

	var result uint64
	end := offset + 9
	if end > len(buf) {
		end = len(buf)
	}

	for i := offset; i < end; i++ {
		b := buf[i]
		n := i - offset
		if n == 8 {
			result = (result << 8) | uint64(b)
			return result, n + 1
		}
		result = (result << 7) | uint64(b&0x7f)
		if b&0x80 == 0 {
			return result, n + 1
		}
	}
	return 0, 0
}

// varintAsInt64 reinterprets a decoded varint value as a signed 64-bit
// two's-complement integer. readVarint always accumulates into a uint64,
// so callers that need signed semantics (row ids, interior-cell keys)
// convert through this rather than relying on Go's int64(uint64) rules,
// which already do the right thing but are easy to get wrong by hand at
// call sites that forget the cast.
func varintAsInt64(v uint64) int64 {
	return int64(v)
}
