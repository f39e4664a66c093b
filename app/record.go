package main

import (
	"math"
)

// ValueType tags the kind of value a column decodes to. SQLite's storage
// classes, not its declared column types: a column declared INTEGER can
// still store a BLOB record by record.
type ValueType int

const (
	ValueTypeNull ValueType = iota
	ValueTypeInteger
	ValueTypeFloat
	ValueTypeText
	ValueTypeBlob
)

// Value is one decoded record column. Only the field matching Type is
// meaningful.
type Value struct {
	Type ValueType
	Int  int64
	Flt  float64
	Str  string
	Blob []byte
}

func NullValue() Value                 { return Value{Type: ValueTypeNull} }
func IntegerValue(v int64) Value       { return Value{Type: ValueTypeInteger, Int: v} }
func FloatValue(v float64) Value       { return Value{Type: ValueTypeFloat, Flt: v} }
func TextValue(v string) Value         { return Value{Type: ValueTypeText, Str: v} }
func BlobValue(v []byte) Value         { return Value{Type: ValueTypeBlob, Blob: v} }

// String renders a value the way row output and debug logging expect:
// NULL literally as "NULL", text and integers/floats in their natural
// form, and blobs as the Go debug-array form of their bytes (there is no
// defined textual rendering of blob content in the dialect, so the
// array form exists purely for diagnostics).
func (v Value) String() string {
	switch v.Type {
	case ValueTypeNull:
		return "NULL"
	case ValueTypeInteger:
		return formatInt64(v.Int)
	case ValueTypeFloat:
		return formatFloat64(v.Flt)
	case ValueTypeText:
		return v.Str
	case ValueTypeBlob:
		return formatBlob(v.Blob)
	default:
		return ""
	}
}

// EqualToLiteral implements the dialect's only comparison operator: WHERE
// col=literal. Comparison is by string form, per the engine's chosen
// (simpler than a fully type-aware comparison) equality contract.
func (v Value) EqualToLiteral(lit string) bool {
	return v.String() == lit
}

// serialTypeSize returns the number of bytes a column's body occupies
// given its serial type code, and whether the code is one this engine
// supports decoding (codes 10 and 11 are reserved and never appear in a
// well-formed file).
func serialTypeSize(serialType uint64) (size int, ok bool) {
	switch {
	case serialType == 0: // NULL
		return 0, true
	case serialType >= 1 && serialType <= 4:
		return int(serialType), true
	case serialType == 5:
		return 6, true
	case serialType == 6 || serialType == 7: // 64-bit int or float
		return 8, true
	case serialType == 8 || serialType == 9: // constants 0 and 1
		return 0, true
	case serialType == 10 || serialType == 11:
		return 0, false
	case serialType >= 12 && serialType%2 == 0: // BLOB
		return int((serialType - 12) / 2), true
	case serialType >= 13: // TEXT
		return int((serialType - 13) / 2), true
	default:
		return 0, false
	}
}

// decodeValue interprets body (exactly serialTypeSize(serialType) bytes)
// according to serialType.
func decodeValue(serialType uint64, body []byte) (Value, error) {
	switch {
	case serialType == 0:
		return NullValue(), nil
	case serialType >= 1 && serialType <= 4:
		return IntegerValue(decodeBigEndianInt(body)), nil
	case serialType == 5:
		return IntegerValue(decodeBigEndianInt(body)), nil
	case serialType == 6:
		return IntegerValue(int64(decodeBigEndianUint(body))), nil
	case serialType == 7:
		bits := decodeBigEndianUint(body)
		return FloatValue(math.Float64frombits(bits)), nil
	case serialType == 8:
		return IntegerValue(0), nil
	case serialType == 9:
		return IntegerValue(1), nil
	case serialType == 10 || serialType == 11:
		return Value{}, NewDatabaseError("decode_value", ErrMalformedRow, map[string]interface{}{
			"serial_type": serialType,
		})
	case serialType >= 12 && serialType%2 == 0:
		blob := make([]byte, len(body))
		copy(blob, body)
		return BlobValue(blob), nil
	default: // odd, >= 13: TEXT
		return TextValue(string(body)), nil
	}
}

// decodeBigEndianInt sign-extends a 1,2,3,4, or 6-byte big-endian two's
// complement integer to int64.
func decodeBigEndianInt(b []byte) int64 {
	if len(b) == 0 {
		return 0
	}
	var v int64
	if b[0]&0x80 != 0 {
		v = -1 // all-ones sign extension
	}
	for _, by := range b {
		v = (v << 8) | int64(by)
	}
	return v
}

func decodeBigEndianUint(b []byte) uint64 {
	var v uint64
	for _, by := range b {
		v = (v << 8) | uint64(by)
	}
	return v
}

// Record is a fully decoded table or index leaf cell payload: a header of
// serial types followed by the body bytes those types describe.
type Record struct {
	Values []Value
}

// parseRecord decodes a record payload (the cell's "payload" bytes,
// excluding rowid/length varints already stripped by the caller).
func parseRecord(payload []byte) (Record, error) {
	headerLen, n := readVarint(payload, 0)
	if n == 0 {
		return Record{}, NewDatabaseError("parse_record", ErrInvalidVarint, nil)
	}

	var serialTypes []uint64
	pos := n
	for pos < int(headerLen) {
		st, consumed := readVarint(payload, pos)
		if consumed == 0 {
			return Record{}, NewDatabaseError("parse_record_header", ErrInvalidVarint, map[string]interface{}{
				"offset": pos,
			})
		}
		serialTypes = append(serialTypes, st)
		pos += consumed
	}
	if pos != int(headerLen) {
		return Record{}, NewDatabaseError("parse_record_header", ErrMalformedRow, map[string]interface{}{
			"header_length": headerLen,
			"consumed":      pos,
		})
	}

	bodyPos := int(headerLen)
	values := make([]Value, 0, len(serialTypes))
	for _, st := range serialTypes {
		size, ok := serialTypeSize(st)
		if !ok {
			return Record{}, NewDatabaseError("parse_record_body", ErrMalformedRow, map[string]interface{}{
				"serial_type": st,
			})
		}
		if bodyPos+size > len(payload) {
			return Record{}, NewDatabaseError("parse_record_body", ErrMalformedRow, map[string]interface{}{
				"offset": bodyPos,
				"size":   size,
			})
		}
		val, err := decodeValue(st, payload[bodyPos:bodyPos+size])
		if err != nil {
			return Record{}, err
		}
		values = append(values, val)
		bodyPos += size
	}

	return Record{Values: values}, nil
}
