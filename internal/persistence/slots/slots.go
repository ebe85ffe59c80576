// Package slots ties the snapshot files and the sqlite index together into
// the save-slot store the simulation talks to.
package slots

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/snow-fourth/mc3DDD/internal/persistence/indexdb"
	"github.com/snow-fourth/mc3DDD/internal/persistence/snapshot"
	"github.com/snow-fourth/mc3DDD/internal/sim/world"
)

type Store struct {
	dataDir string
	worldID string
	seed    int64
	idx     *indexdb.SQLiteIndex
	log     *log.Logger
}

// New builds a slot store. idx may be nil (-disable_db); saves then skip
// the index and LoadLatest has nothing to consult.
func New(dataDir, worldID string, seed int64, idx *indexdb.SQLiteIndex, logger *log.Logger) *Store {
	return &Store{dataDir: dataDir, worldID: worldID, seed: seed, idx: idx, log: logger}
}

func (s *Store) Save(slot string, tick uint64, snap world.WorldSnapshot) error {
	path := snapshot.SlotPath(s.dataDir, s.worldID, slot)
	hdr := snapshot.Header{
		Version: snapshot.Version,
		WorldID: s.worldID,
		Slot:    slot,
		Tick:    tick,
		Seed:    s.seed,
		SavedAt: time.Now().UTC(),
	}
	if err := snapshot.Write(path, hdr, snap); err != nil {
		return fmt.Errorf("slot %q: %w", slot, err)
	}

	if s.idx != nil {
		blocks := 0
		for _, rec := range snap {
			blocks += len(rec.Blocks)
		}
		row := indexdb.SlotRow{
			Slot:      slot,
			WorldID:   s.worldID,
			Path:      path,
			Tick:      tick,
			Seed:      s.seed,
			Chunks:    len(snap),
			Blocks:    blocks,
			CreatedAt: hdr.SavedAt,
		}
		if err := s.idx.RecordSave(row); err != nil {
			// The file on disk is the save; a stale index row only costs
			// LoadLatest accuracy.
			if s.log != nil {
				s.log.Printf("slot %q: index write failed: %v", slot, err)
			}
		}
	}
	return nil
}

func (s *Store) Load(slot string) (world.WorldSnapshot, error) {
	hdr, snap, err := snapshot.Read(snapshot.SlotPath(s.dataDir, s.worldID, slot))
	if err != nil {
		return nil, fmt.Errorf("slot %q: %w", slot, err)
	}
	if hdr.WorldID != s.worldID {
		return nil, fmt.Errorf("slot %q: belongs to world %q", slot, hdr.WorldID)
	}
	return snap, nil
}

// LoadLatest returns the most recent save according to the index.
func (s *Store) LoadLatest() (string, world.WorldSnapshot, error) {
	if s.idx == nil {
		return "", nil, fmt.Errorf("latest save: no index: %w", fs.ErrNotExist)
	}
	row, err := s.idx.Latest(s.worldID)
	if errors.Is(err, indexdb.ErrNoSlot) {
		return "", nil, fmt.Errorf("latest save: %w", fs.ErrNotExist)
	}
	if err != nil {
		return "", nil, err
	}
	snap, err := s.Load(row.Slot)
	return row.Slot, snap, err
}
