package db

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/hpungsan/qdpx/internal/model"
)

var (
	snapshotEnc cbor.EncMode
	snapshotDec cbor.DecMode
)

func init() {
	var err error
	snapshotEnc, err = cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	// Code trees nest two CBOR levels per code, so the library maximum covers
	// config.MaxCodeDepthLimit.
	snapshotDec, err = cbor.DecOptions{
		MaxNestedLevels:  65535,
		MaxArrayElements: 1 << 24,
		MaxMapPairs:      1 << 20,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// EncodeSnapshot serializes p for storage.
func EncodeSnapshot(p *model.Project) ([]byte, error) {
	b, err := snapshotEnc.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// DecodeSnapshot restores a project stored by EncodeSnapshot.
func DecodeSnapshot(b []byte) (*model.Project, error) {
	var p model.Project
	if err := snapshotDec.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &p, nil
}
