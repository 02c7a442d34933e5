package record

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	set := Set("k", "v")
	data, err := Marshal(set)
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.True(t, got.IsSet())
	assert.Equal(t, "k", got.Key())
	assert.Equal(t, "v", got.Value())

	rm := Rm("k")
	data, err = Marshal(rm)
	require.NoError(t, err)

	got, err = Unmarshal(data)
	require.NoError(t, err)
	assert.True(t, got.IsRm())
	assert.Equal(t, "k", got.Key())
	assert.Equal(t, "", got.Value())
}

func TestDecoderStreamsSelfDelimitingRecords(t *testing.T) {
	var sb strings.Builder
	records := []Record{Set("a", "1"), Set("b", "2"), Rm("a")}
	var offsets []int64
	for _, rec := range records {
		data, err := Marshal(rec)
		require.NoError(t, err)
		sb.Write(data)
		offsets = append(offsets, int64(sb.Len()))
	}

	dec := NewDecoder(strings.NewReader(sb.String()))
	var prev int64
	for i := 0; ; i++ {
		rec, err := dec.Decode()
		if err == io.EOF {
			assert.Equal(t, len(records), i)
			break
		}
		require.NoError(t, err)
		require.Less(t, i, len(records))

		length := dec.InputOffset() - prev
		assert.Equal(t, offsets[i]-prev, length)
		assert.Equal(t, records[i].Key(), rec.Key())
		assert.Equal(t, records[i].IsSet(), rec.IsSet())
		prev = dec.InputOffset()
	}
}

func TestDecodeMalformedRecordFails(t *testing.T) {
	dec := NewDecoder(strings.NewReader(`{"kind":"bogus","key":"a"}`))
	_, err := dec.Decode()
	require.Error(t, err)
}

func TestDecodeTruncatedRecordIsNotCleanEOF(t *testing.T) {
	data, err := Marshal(Set("a", "1"))
	require.NoError(t, err)
	truncated := string(data[:len(data)-3])

	dec := NewDecoder(strings.NewReader(truncated))
	_, err = dec.Decode()
	require.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}
