package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// roundTrip encodes v, decodes the text back and returns the result.
func roundTrip[T any](t *testing.T, v T) T {
	t.Helper()
	text, err := encodeValue(v)
	require.NoError(t, err)
	var out T
	require.NoError(t, decodeValue(text, &out), "text: %q", text)
	return out
}

func TestScalarCodecRoundTrip(t *testing.T) {
	assert.Equal(t, 42, roundTrip(t, 42))
	assert.Equal(t, -7, roundTrip(t, -7))
	assert.Equal(t, uint64(18446744073709551615), roundTrip(t, uint64(18446744073709551615)))
	assert.Equal(t, int8(-128), roundTrip(t, int8(-128)))
	assert.Equal(t, 3.5, roundTrip(t, 3.5))
	assert.Equal(t, true, roundTrip(t, true))
	assert.Equal(t, "hello world", roundTrip(t, "hello world"))
	assert.Equal(t, "tricky: [not, a, list]", roundTrip(t, "tricky: [not, a, list]"))
	assert.Equal(t, "", roundTrip(t, ""))
}

func TestScalarCodecRejectsTrailingGarbage(t *testing.T) {
	var i int
	assert.Error(t, decodeValue("12abc", &i))
	assert.Error(t, decodeValue("12 34", &i))
	assert.Error(t, decodeValue("", &i))

	var f float64
	assert.Error(t, decodeValue("3.5x", &f))

	var b bool
	assert.Error(t, decodeValue("truthy", &b))

	var u uint
	assert.Error(t, decodeValue("-3", &u))
}

func TestContainerCodecRoundTrip(t *testing.T) {
	t.Run("Sequence", func(t *testing.T) {
		assert.Equal(t, []int{3, 1, 2}, roundTrip(t, []int{3, 1, 2}))
		assert.Equal(t, []string{"a", "b"}, roundTrip(t, []string{"a", "b"}))
	})

	t.Run("MapOfScalars", func(t *testing.T) {
		in := map[string]int{"alpha": 1, "beta": 2}
		assert.Equal(t, in, roundTrip(t, in))
	})

	t.Run("Set", func(t *testing.T) {
		in := NewSet(5, 3, 9)
		out := roundTrip(t, in)
		assert.Equal(t, in, out)
	})

	t.Run("SortedSet", func(t *testing.T) {
		in := NewSortedSet("pear", "apple", "plum")
		out := roundTrip(t, in)
		assert.Equal(t, in, out)
		assert.Equal(t, []string{"apple", "pear", "plum"}, in.Elems())

		// Ordered emission is observable in the text form.
		text, err := encodeValue(NewSortedSet(3, 1, 2))
		require.NoError(t, err)
		var seq []int
		require.NoError(t, yaml.Unmarshal([]byte(text), &seq))
		assert.Equal(t, []int{1, 2, 3}, seq)
	})

	t.Run("NestedSequenceOfMaps", func(t *testing.T) {
		in := []map[string]int{{"a": 1}, {"b": 2}}
		assert.Equal(t, in, roundTrip(t, in))
	})
}

// The nested map-of-sequences scenario: the YAML form must be a two-key
// map holding sequences of lengths 2 and 3, and the round-trip must give
// back the original value.
func TestCodecNestedMapOfSequences(t *testing.T) {
	in := map[string][]int{
		"primary_ports":   {80, 443},
		"secondary_ports": {8080, 8443, 9000},
	}

	text, err := encodeValue(in)
	require.NoError(t, err)

	var parsed map[string][]any
	require.NoError(t, yaml.Unmarshal([]byte(text), &parsed))
	require.Len(t, parsed, 2)
	assert.Len(t, parsed["primary_ports"], 2)
	assert.Len(t, parsed["secondary_ports"], 3)

	var out map[string][]int
	require.NoError(t, decodeValue(text, &out))
	assert.Equal(t, in, out)
}

func TestRecordCodecRoundTrip(t *testing.T) {
	type endpoint struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	}
	type serviceConf struct {
		Name      string            `yaml:"name"`
		Endpoints []endpoint        `yaml:"endpoints"`
		Labels    map[string]string `yaml:"labels"`
	}

	in := serviceConf{
		Name: "gateway",
		Endpoints: []endpoint{
			{Host: "10.0.0.1", Port: 80},
			{Host: "10.0.0.2", Port: 443},
		},
		Labels: map[string]string{"tier": "edge"},
	}
	assert.Equal(t, in, roundTrip(t, in))
}

func TestVarToStringFromString(t *testing.T) {
	t.Cleanup(ClearAll)
	ClearAll()

	v, err := GetOrCreate("ports", []int{80}, "")
	require.NoError(t, err)

	require.True(t, v.FromString("[8080, 8443]"))
	assert.Equal(t, []int{8080, 8443}, v.Value())

	t.Run("FailedParseLeavesValue", func(t *testing.T) {
		assert.False(t, v.FromString("{ not a sequence"))
		assert.Equal(t, []int{8080, 8443}, v.Value())
	})

	t.Run("ScalarVar", func(t *testing.T) {
		n, err := GetOrCreate("count", 0, "")
		require.NoError(t, err)
		require.True(t, n.FromString("17"))
		assert.Equal(t, 17, n.Value())
		assert.False(t, n.FromString("17oops"))
		assert.Equal(t, 17, n.Value())
		assert.Equal(t, "17", n.ToString())
	})
}
