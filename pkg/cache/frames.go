package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"iter"
	"math"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/nanonanoda/pkg/audio/pcm"
	"github.com/haivivi/nanonanoda/pkg/spectral"
)

// framesPrefix namespaces frame records. The version segment changes
// whenever the analysis output for the same input would change.
var framesPrefix = Key{"frames", "v1"}

// Frames caches spectral analysis results keyed by a digest of the input
// samples and the analysis parameters.
type Frames struct {
	store Store
}

// NewFrames returns a frame cache over store.
func NewFrames(store Store) *Frames {
	return &Frames{store: store}
}

// FrameRecord is a cached analysis.
type FrameRecord struct {
	Digest     string           `msgpack:"d" json:"digest" yaml:"digest"`
	SampleRate int              `msgpack:"r" json:"sample_rate" yaml:"sample_rate"`
	Samples    int              `msgpack:"n" json:"samples" yaml:"samples"`
	WindowSize int              `msgpack:"w" json:"window_size" yaml:"window_size"`
	HopSize    int              `msgpack:"h" json:"hop_size" yaml:"hop_size"`
	Frames     []spectral.Frame `msgpack:"f" json:"-" yaml:"-"`
}

// Digest identifies an analysis of buf with cfg. Worker count does not
// affect the result and is not part of the digest.
func Digest(buf pcm.Buffer, cfg spectral.Config) string {
	h := sha256.New()
	var b [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(b[:], v)
		h.Write(b[:])
	}
	put(uint64(buf.SampleRate))
	put(uint64(cfg.WindowSize))
	put(uint64(cfg.HopSize))
	put(uint64(cfg.MaxPeaks))
	put(math.Float64bits(cfg.NoiseFloor))
	put(uint64(len(buf.Samples)))
	for _, s := range buf.Samples {
		binary.LittleEndian.PutUint32(b[:4], math.Float32bits(s))
		h.Write(b[:4])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func frameKey(digest string) Key {
	return append(append(Key{}, framesPrefix...), digest)
}

// Get returns the cached record for digest, or ErrNotFound.
func (f *Frames) Get(ctx context.Context, digest string) (*FrameRecord, error) {
	data, err := f.store.Get(ctx, frameKey(digest))
	if err != nil {
		return nil, err
	}
	var rec FrameRecord
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("cache: decode frames %s: %w", digest, err)
	}
	return &rec, nil
}

// Put stores rec under rec.Digest.
func (f *Frames) Put(ctx context.Context, rec *FrameRecord) error {
	data, err := msgpack.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cache: encode frames %s: %w", rec.Digest, err)
	}
	return f.store.Set(ctx, frameKey(rec.Digest), data)
}

// List iterates over the cached records in digest order. Returned records
// carry no frames.
func (f *Frames) List(ctx context.Context) iter.Seq2[FrameRecord, error] {
	return func(yield func(FrameRecord, error) bool) {
		for e, err := range f.store.List(ctx, framesPrefix) {
			if err != nil {
				yield(FrameRecord{}, err)
				return
			}
			var rec FrameRecord
			if err := msgpack.Unmarshal(e.Value, &rec); err != nil {
				err = fmt.Errorf("cache: decode %s: %w", e.Key, err)
			}
			rec.Frames = nil
			if !yield(rec, err) {
				return
			}
		}
	}
}

// Clear removes every cached record and returns how many were removed.
func (f *Frames) Clear(ctx context.Context) (int, error) {
	var keys []Key
	for e, err := range f.store.List(ctx, framesPrefix) {
		if err != nil {
			return 0, err
		}
		keys = append(keys, e.Key)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := f.store.BatchDelete(ctx, keys); err != nil {
		return 0, err
	}
	return len(keys), nil
}
