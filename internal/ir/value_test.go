package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRObjectSortedKeysRFC8785Order(t *testing.T) {
	// U+1F600 encodes as a surrogate pair starting 0xD83D, which sorts
	// before U+FF61 in UTF-16 but after it in UTF-8.
	obj := IRObject{
		"\uff61":     IRInt(1),
		"\U0001F600": IRInt(2),
		"a":          IRInt(3),
	}
	assert.Equal(t, []string{"a", "\U0001F600", "\uff61"}, obj.SortedKeys())
}

func TestIRObjectAccessors(t *testing.T) {
	obj := IRObject{"room": IRString("den"), "on": IRBool(true), "n": IRInt(1)}

	assert.Equal(t, "den", obj.String("room"))
	assert.Equal(t, "", obj.String("missing"))
	assert.Equal(t, "", obj.String("n"))
	assert.True(t, obj.Bool("on"))
	assert.False(t, obj.Bool("room"))
}

func TestUnmarshalIRObject(t *testing.T) {
	var obj IRObject
	err := json.Unmarshal([]byte(`{"device_id":"d1","state":true,"n":3,"list":["a"]}`), &obj)
	require.NoError(t, err)

	assert.Equal(t, IRString("d1"), obj["device_id"])
	assert.Equal(t, IRBool(true), obj["state"])
	assert.Equal(t, IRInt(3), obj["n"])
	assert.Equal(t, IRArray{IRString("a")}, obj["list"])
}

func TestUnmarshalRejectsFloatsAndNull(t *testing.T) {
	var obj IRObject
	assert.Error(t, json.Unmarshal([]byte(`{"x":1.5}`), &obj))
	assert.Error(t, json.Unmarshal([]byte(`{"x":null}`), &obj))
	assert.Error(t, json.Unmarshal([]byte(`["not","object"]`), &obj))
}
