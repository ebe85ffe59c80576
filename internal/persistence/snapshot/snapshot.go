// Package snapshot persists whole-world captures as zstd-compressed files:
// a JSON header line followed by the JSON snapshot body. The body is
// validated against the embedded snapshot schema on read, so a truncated
// or hand-edited file is rejected before it reaches the world.
package snapshot

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/snow-fourth/mc3DDD/internal/sim/world"
	"github.com/snow-fourth/mc3DDD/schemas"
)

const Version = 1

type Header struct {
	Version int       `json:"version"`
	WorldID string    `json:"world_id"`
	Slot    string    `json:"slot"`
	Tick    uint64    `json:"tick"`
	Seed    int64     `json:"seed"`
	SavedAt time.Time `json:"saved_at"`
}

var bodySchema = func() *jsonschema.Schema {
	raw, err := schemas.FS.ReadFile("snapshot.schema.json")
	if err != nil {
		panic(err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("snapshot.schema.json", bytes.NewReader(raw)); err != nil {
		panic(err)
	}
	return c.MustCompile("snapshot.schema.json")
}()

// SlotPath is where a named slot lives under the data directory.
func SlotPath(dataDir, worldID, slot string) string {
	return filepath.Join(dataDir, "worlds", worldID, "snapshots", slot+".snap.zst")
}

func Write(path string, hdr Header, snap world.WorldSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, err := json.Marshal(hdr)
	if err != nil {
		return err
	}
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := json.NewEncoder(bw).Encode(snap); err != nil {
		return fmt.Errorf("snapshot encode: %w", err)
	}
	return nil
}

func Read(path string) (Header, world.WorldSnapshot, error) {
	var hdr Header
	f, err := os.Open(path)
	if err != nil {
		return hdr, nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return hdr, nil, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	hb, err := br.ReadBytes('\n')
	if err != nil {
		return hdr, nil, fmt.Errorf("snapshot header: %w", err)
	}
	if err := json.Unmarshal(hb, &hdr); err != nil {
		return hdr, nil, fmt.Errorf("snapshot header: %w", err)
	}
	if hdr.Version != Version {
		return hdr, nil, fmt.Errorf("snapshot version %d not supported", hdr.Version)
	}

	body, err := io.ReadAll(br)
	if err != nil {
		return hdr, nil, fmt.Errorf("snapshot body: %w", err)
	}

	var generic any
	if err := json.Unmarshal(body, &generic); err != nil {
		return hdr, nil, fmt.Errorf("snapshot body: %w", err)
	}
	if err := bodySchema.Validate(generic); err != nil {
		return hdr, nil, fmt.Errorf("snapshot body schema: %w", err)
	}

	var snap world.WorldSnapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return hdr, nil, fmt.Errorf("snapshot body: %w", err)
	}
	return hdr, snap, nil
}
