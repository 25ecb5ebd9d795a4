package indicator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableIsComplete(t *testing.T) {
	all := All()
	require.Len(t, all, 9)
	for _, typ := range all {
		spec := Lookup(typ)
		assert.True(t, typ.Valid(), typ)
		assert.Equal(t, typ, spec.Type)
		assert.NotEmpty(t, spec.Title, typ)
		assert.NotEmpty(t, spec.ClassName, typ)
		assert.NotEmpty(t, spec.Keywords, typ)
	}
	assert.False(t, Type("GDP").Valid())
	assert.Equal(t, Spec{}, Lookup("GDP"))
}

func TestAllReturnsCopy(t *testing.T) {
	a := All()
	a[0] = "mutated"
	assert.Equal(t, FOMC, All()[0])
}

func TestReleaseClocks(t *testing.T) {
	assert.Equal(t, Clock{14, 0}, Lookup(FOMC).Release)
	assert.Equal(t, Clock{14, 30}, Lookup(Powell).Release)
	assert.Equal(t, Clock{10, 0}, Lookup(ISMManufacturing).Release)
	assert.Equal(t, Clock{8, 30}, Lookup(Unemployment).Release)
}

func TestClockText(t *testing.T) {
	b, err := json.Marshal(Clock{8, 30})
	require.NoError(t, err)
	assert.Equal(t, `"08:30"`, string(b))

	var c Clock
	require.NoError(t, json.Unmarshal([]byte(`"14:05"`), &c))
	assert.Equal(t, Clock{14, 5}, c)

	assert.Error(t, json.Unmarshal([]byte(`"noon"`), &c))
}
