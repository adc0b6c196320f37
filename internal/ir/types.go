package ir

// Release behaviours as written in chord fixtures.
const (
	ReleaseFirst = "first"
	ReleaseLast  = "last"
)

// ChordSpec is a compiled chord definition.
type ChordSpec struct {
	Name           string   `json:"name"`
	Keys           []uint16 `json:"keys"`
	Action         string   `json:"action"`
	Pending        uint16   `json:"pending"`
	DisabledLayers []uint16 `json:"disabled_layers"`
	Release        string   `json:"release"` // "first" or "last"
}

// IR converts the spec to the canonical value model.
func (c ChordSpec) IR() IRObject {
	return IRObject{
		"name":            IRString(c.Name),
		"keys":            Ints(c.Keys),
		"action":          IRString(c.Action),
		"pending":         IRInt(c.Pending),
		"disabled_layers": Ints(c.DisabledLayers),
		"release":         IRString(c.Release),
	}
}

// EventRecord is one key event as seen at the engine boundary.
type EventRecord struct {
	Kind  string `json:"kind"` // "press" or "release"
	Row   uint8  `json:"row"`
	Key   uint16 `json:"key"`
	Since uint16 `json:"since"`
}

// IR converts the record to the canonical value model.
func (e EventRecord) IR() IRObject {
	return IRObject{
		"kind":  IRString(e.Kind),
		"row":   IRInt(e.Row),
		"key":   IRInt(e.Key),
		"since": IRInt(e.Since),
	}
}

// DeliveryRecord is a chord handed to the layout engine.
type DeliveryRecord struct {
	Chord       string `json:"chord"`
	Action      string `json:"action"`
	Row         uint8  `json:"row"`
	Key         uint16 `json:"key"`
	Age         uint16 `json:"age"`
	AlsoRelease bool   `json:"also_release"`
}

// IR converts the record to the canonical value model.
func (d DeliveryRecord) IR() IRObject {
	return IRObject{
		"chord":        IRString(d.Chord),
		"action":       IRString(d.Action),
		"row":          IRInt(d.Row),
		"key":          IRInt(d.Key),
		"age":          IRInt(d.Age),
		"also_release": IRBool(d.AlsoRelease),
	}
}

// Cycle is everything observable about one scan cycle: the events pushed,
// those evicted by overflow, the tick output and at most one delivery.
// Polled records whether the layout engine asked for a delivery, so a
// recorded run can be replayed exactly.
type Cycle struct {
	Seq      int64           `json:"seq"`
	Layer    uint16          `json:"layer"`
	Pushed   []EventRecord   `json:"pushed"`
	Evicted  []EventRecord   `json:"evicted"`
	Emitted  []EventRecord   `json:"emitted"`
	Polled   bool            `json:"polled"`
	Delivery *DeliveryRecord `json:"delivery,omitempty"`
}

// IR converts the cycle to the canonical value model. A missing delivery
// is omitted rather than encoded as null.
func (c Cycle) IR() IRObject {
	obj := IRObject{
		"seq":     IRInt(c.Seq),
		"layer":   IRInt(c.Layer),
		"pushed":  eventsIR(c.Pushed),
		"evicted": eventsIR(c.Evicted),
		"emitted": eventsIR(c.Emitted),
		"polled":  IRBool(c.Polled),
	}
	if c.Delivery != nil {
		obj["delivery"] = c.Delivery.IR()
	}
	return obj
}

func eventsIR(evs []EventRecord) IRArray {
	arr := make(IRArray, len(evs))
	for i, e := range evs {
		arr[i] = e.IR()
	}
	return arr
}

// Run describes one recorded scenario execution. Catalog is kept in full
// so the run can be replayed without the original fixtures.
type Run struct {
	ID            string      `json:"id"`
	Scenario      string      `json:"scenario"`
	Catalog       []ChordSpec `json:"catalog"`
	CatalogHash   string      `json:"catalog_hash"`
	IgnoreWindow  uint16      `json:"ignore_window"`
	IRVersion     string      `json:"ir_version"`
	EngineVersion string      `json:"engine_version"`
}
