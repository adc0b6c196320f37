package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSpecs() []ChordSpec {
	return []ChordSpec{
		{Name: "copy", Keys: []uint16{1, 2}, Action: "C-c", Pending: 5, Release: ReleaseLast},
		{Name: "esc", Keys: []uint16{3, 4}, Action: "Esc", Pending: 4, DisabledLayers: []uint16{2}, Release: ReleaseFirst},
	}
}

func TestCatalogHashDeterminism(t *testing.T) {
	h1, err := CatalogHash(sampleSpecs())
	require.NoError(t, err)
	h2, err := CatalogHash(sampleSpecs())
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestCatalogHashSensitivity(t *testing.T) {
	base := MustCatalogHash(sampleSpecs())

	reordered := sampleSpecs()
	reordered[0], reordered[1] = reordered[1], reordered[0]
	assert.NotEqual(t, base, MustCatalogHash(reordered), "catalog order is significant")

	slower := sampleSpecs()
	slower[0].Pending = 6
	assert.NotEqual(t, base, MustCatalogHash(slower))

	released := sampleSpecs()
	released[0].Release = ReleaseFirst
	assert.NotEqual(t, base, MustCatalogHash(released))
}

func TestCycleID(t *testing.T) {
	c := Cycle{
		Seq:     4,
		Pushed:  []EventRecord{{Kind: "press", Key: 1}},
		Emitted: []EventRecord{{Kind: "press", Key: 1, Since: 6}},
	}

	id1, err := CycleID("run-1", c)
	require.NoError(t, err)
	id2, err := CycleID("run-2", c)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	c.Delivery = &DeliveryRecord{Chord: "copy", Action: "C-c", Key: 0xF000}
	id3, err := CycleID("run-1", c)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
}

func TestHashDomainSeparation(t *testing.T) {
	data := []byte(`[]`)
	assert.NotEqual(t, hashWithDomain(DomainCatalog, data), hashWithDomain(DomainCycle, data))
	assert.Equal(t, hashWithDomain(DomainCatalog, data), MustCatalogHash(nil))
}

func TestRecordJSONFieldNaming(t *testing.T) {
	data, err := json.Marshal(Cycle{Delivery: &DeliveryRecord{AlsoRelease: true}})
	require.NoError(t, err)

	assert.Contains(t, string(data), `"also_release":true`)
	assert.NotContains(t, string(data), `"AlsoRelease"`)

	data, err = json.Marshal(sampleSpecs()[1])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"disabled_layers":[2]`)
}

func TestCycleIROmitsMissingDelivery(t *testing.T) {
	obj := Cycle{Seq: 1}.IR()
	_, ok := obj["delivery"]
	assert.False(t, ok)

	data, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"emitted":[],"evicted":[],"layer":0,"polled":false,"pushed":[],"seq":1}`, string(data))
}
