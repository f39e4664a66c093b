package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeValueNull(t *testing.T) {
	v, err := decodeValue(0, nil)
	require.NoError(t, err)
	assert.Equal(t, ValueTypeNull, v.Type)
	assert.Equal(t, "NULL", v.String())
}

func TestDecodeValueInt8(t *testing.T) {
	v, err := decodeValue(1, []byte{0xFE}) // -2
	require.NoError(t, err)
	assert.Equal(t, ValueTypeInteger, v.Type)
	assert.Equal(t, int64(-2), v.Int)
}

func TestDecodeValueFloat64(t *testing.T) {
	bits := math.Float64bits(3.25)
	body := make([]byte, 8)
	for i := 0; i < 8; i++ {
		body[i] = byte(bits >> uint(56-8*i))
	}
	v, err := decodeValue(7, body)
	require.NoError(t, err)
	assert.Equal(t, ValueTypeFloat, v.Type)
	assert.Equal(t, 3.25, v.Flt)
}

func TestDecodeValueZeroAndOneConstants(t *testing.T) {
	zero, err := decodeValue(8, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), zero.Int)

	one, err := decodeValue(9, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), one.Int)
}

func TestDecodeValueText(t *testing.T) {
	v, err := decodeValue(13+2*5, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, ValueTypeText, v.Type)
	assert.Equal(t, "hello", v.Str)
}

func TestDecodeValueBlob(t *testing.T) {
	v, err := decodeValue(12+2*3, []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, ValueTypeBlob, v.Type)
	assert.Contains(t, v.String(), "1")
}

func TestDecodeValueReservedSerialTypeIsMalformed(t *testing.T) {
	_, err := decodeValue(10, nil)
	require.Error(t, err)
}

func TestParseRecordRoundTrip(t *testing.T) {
	// header: varint header-len, then serial types for (NULL, int8=7, text len 3 "abc")
	textSerial := uint64(13 + 2*3)
	header := []byte{0, 0, 1, byte(textSerial)}
	header[0] = byte(len(header)) // header length includes itself
	payload := append(append([]byte{}, header...), []byte{7}...)
	payload = append(payload, []byte("abc")...)

	rec, err := parseRecord(payload)
	require.NoError(t, err)
	require.Len(t, rec.Values, 3)
	assert.Equal(t, ValueTypeNull, rec.Values[0].Type)
	assert.Equal(t, int64(7), rec.Values[1].Int)
	assert.Equal(t, "abc", rec.Values[2].Str)
}

func TestValueEqualToLiteral(t *testing.T) {
	v := TextValue("Fuji")
	assert.True(t, v.EqualToLiteral("Fuji"))
	assert.False(t, v.EqualToLiteral("fuji"))
}
