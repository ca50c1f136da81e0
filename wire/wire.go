// Package wire defines the CBOR encoding shared by the RPC layer and the
// preset store.
package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical mode so equal snapshots encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Variable is one entry of a snapshot.
type Variable struct {
	Name     string  `cbor:"1,keyasint"`
	IsString bool    `cbor:"2,keyasint,omitempty"`
	Number   float32 `cbor:"3,keyasint,omitempty"`
	Str      string  `cbor:"4,keyasint,omitempty"`
}

// Snapshot is a point-in-time copy of a program's variables.
type Snapshot struct {
	Program   string     `cbor:"1,keyasint"`
	Taken     int64      `cbor:"2,keyasint"` // unix milliseconds
	Variables []Variable `cbor:"3,keyasint"`
}

// MarshalSnapshot serializes a Snapshot to CBOR bytes.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// UnmarshalSnapshot deserializes a Snapshot from CBOR bytes.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("wire: unmarshal snapshot: %w", err)
	}
	return &s, nil
}

// Codec carries RPC messages as CBOR. It satisfies connect.Codec and is
// selected by the "application/cbor" content type.
type Codec struct{}

// CodecName is the content subtype served by Codec.
const CodecName = "cbor"

func (Codec) Name() string { return CodecName }

func (Codec) Marshal(msg any) ([]byte, error) {
	return cborEncMode.Marshal(msg)
}

func (Codec) Unmarshal(data []byte, msg any) error {
	if err := cbor.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("wire: unmarshal %T: %w", msg, err)
	}
	return nil
}
