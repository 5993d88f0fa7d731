package session

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/wricardo/snake-api/game/engine"
)

// Codec encodes snapshots for stores that hold raw bytes.
type Codec interface {
	Name() string
	Marshal(snap *engine.Snapshot) ([]byte, error)
	Unmarshal(data []byte, snap *engine.Snapshot) error
}

// JSONCodec writes the canonical {"snake":[[x,y]],...} layout.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(snap *engine.Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

func (JSONCodec) Unmarshal(data []byte, snap *engine.Snapshot) error {
	return json.Unmarshal(data, snap)
}

// MsgpackCodec is a compact binary alternative using the same field names.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string { return "msgpack" }

func (MsgpackCodec) Marshal(snap *engine.Snapshot) ([]byte, error) {
	return msgpack.Marshal(snap)
}

func (MsgpackCodec) Unmarshal(data []byte, snap *engine.Snapshot) error {
	return msgpack.Unmarshal(data, snap)
}

// CodecByName resolves a codec from configuration. An empty name means json.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	}
	return nil, fmt.Errorf("unknown snapshot codec %q", name)
}
