package engine

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"hash"
	"sort"
	"strings"
	"time"

	"github.com/moolen/laneview/internal/hierarchy"
	"github.com/moolen/laneview/internal/models"
)

// fingerprint builds deterministic cache keys from build inputs
type fingerprint struct {
	h hash.Hash
}

func newFingerprint(stage string) *fingerprint {
	f := &fingerprint{h: sha256.New()}
	f.str(stage)
	return f
}

func (f *fingerprint) str(s string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(s)))
	f.h.Write(n[:])
	f.h.Write([]byte(s))
}

func (f *fingerprint) time(t time.Time) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(t.UnixNano()))
	f.h.Write(n[:])
}

// events hashes the full content of each event, in order
func (f *fingerprint) events(events []models.Event) {
	for i := range events {
		b, err := json.Marshal(&events[i])
		if err != nil {
			f.str(events[i].ID)
			continue
		}
		f.str(string(b))
	}
}

func (f *fingerprint) topology(t *models.Topology) {
	if t == nil {
		f.str("<nil>")
		return
	}
	for i := range t.Nodes {
		n := &t.Nodes[i]
		f.str(n.ID)
		f.str(n.Key().String())
		f.labels(n.Labels)
	}
	for _, e := range t.Edges {
		f.str(e.ID)
		f.str(e.Source)
		f.str(e.Target)
		f.str(string(e.Type))
	}
}

func (f *fingerprint) labels(labels map[string]string) {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		f.str(k)
		f.str(labels[k])
	}
}

func (f *fingerprint) options(opts hierarchy.Options) {
	if opts.GroupByApp {
		f.str("group")
	}
	f.str(strings.Join(opts.AppLabelKeys, ","))
}

func (f *fingerprint) sum() string {
	return hex.EncodeToString(f.h.Sum(nil))
}
