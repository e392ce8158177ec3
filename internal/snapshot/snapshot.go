// Package snapshot writes and reads zstd-compressed match states.
//
// A snapshot file is a JSON header line followed by the JSON body, both
// inside one zstd frame. The header can be read without decoding the body.
package snapshot

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"compact-conflict/internal/game"
	"compact-conflict/pkg/maps"
)

// Version is the current snapshot format.
const Version = 1

// ErrVersion is returned for snapshots written in an unknown format.
var ErrVersion = errors.New("unsupported snapshot version")

type Header struct {
	Version int       `json:"version"`
	GameID  string    `json:"game_id"`
	Turn    int       `json:"turn"`
	SavedAt time.Time `json:"saved_at"`
}

// SnapshotV1 holds everything needed to resume a match.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Setup     game.Setup     `json:"setup"`
	Players   []*game.Player `json:"players"`
	Neighbors [][]int        `json:"neighbors"`
	State     game.View      `json:"state"`
}

// Capture takes a snapshot of g.
func Capture(gameID string, g *game.GameState) SnapshotV1 {
	neighbors := make([][]int, g.Map.Len())
	for i := range neighbors {
		neighbors[i] = append([]int(nil), g.Map.Region(i).Neighbors...)
	}
	return SnapshotV1{
		Header: Header{
			Version: Version,
			GameID:  gameID,
			Turn:    g.Turn,
			SavedAt: time.Now().UTC(),
		},
		Setup:     g.Setup,
		Players:   g.Players,
		Neighbors: neighbors,
		State:     g.View(),
	}
}

// Restore rebuilds the captured state. The map keeps its adjacency but not
// its geometry.
func (s SnapshotV1) Restore() (*game.GameState, error) {
	if s.Header.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, s.Header.Version)
	}
	for i, ns := range s.Neighbors {
		for _, n := range ns {
			if n < 0 || n >= len(s.Neighbors) {
				return nil, fmt.Errorf("%w: region %d borders %d", game.ErrInvalidView, i, n)
			}
		}
	}
	return game.FromView(maps.New(s.Neighbors), s.Players, s.Setup, s.State)
}

// Path returns the file name used for a game's snapshot inside dir.
func Path(dir, gameID string) string {
	return filepath.Join(dir, gameID+".json.zst")
}

// WriteSnapshot stores snap at path, replacing any previous file.
func WriteSnapshot(path string, snap SnapshotV1) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, err := json.Marshal(snap.Header)
	if err != nil {
		enc.Close()
		return err
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		enc.Close()
		return err
	}
	if err := json.NewEncoder(bw).Encode(&snap); err != nil {
		enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	br, closeFn, err := open(path)
	if err != nil {
		return snap, err
	}
	defer closeFn()

	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	if err := json.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("json decode: %w", err)
	}
	return snap, nil
}

// ReadHeader loads only the header line of a snapshot.
func ReadHeader(path string) (Header, error) {
	var h Header
	br, closeFn, err := open(path)
	if err != nil {
		return h, err
	}
	defer closeFn()

	line, err := br.ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

func open(path string) (*bufio.Reader, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return bufio.NewReaderSize(dec, 64*1024), func() {
		dec.Close()
		f.Close()
	}, nil
}
