package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/isectech/ctf-datagen/domain/entity"
	"github.com/isectech/ctf-datagen/domain/service"
)

// ManifestFile is written next to the table files of every exercise
const ManifestFile = "manifest.json"

// Manifest records how a dataset was generated and which files hold its tables
type Manifest struct {
	Exercise      entity.ExerciseID `json:"exercise"`
	Seed          int64             `json:"seed"`
	ReferenceTime string            `json:"reference_time"`
	GeneratedAt   string            `json:"generated_at"`
	Format        string            `json:"format"`
	Compression   string            `json:"compression"`
	Tables        []TableEntry      `json:"tables"`
}

// TableEntry describes one table file
type TableEntry struct {
	Name    string   `json:"name"`
	File    string   `json:"file"`
	Records int      `json:"records"`
	Columns []string `json:"columns,omitempty"`
	SHA256  string   `json:"sha256"`
}

func newManifest(info service.GenerationInfo, codec Codec) *Manifest {
	return &Manifest{
		Exercise:      info.Exercise,
		Seed:          info.Seed,
		ReferenceTime: info.ReferenceTime.UTC().Format(time.RFC3339),
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		Format:        codec.Format,
		Compression:   codec.Compression,
	}
}

// Info returns the generation parameters stored in the manifest
func (m *Manifest) Info() (service.GenerationInfo, error) {
	ref, err := time.Parse(time.RFC3339, m.ReferenceTime)
	if err != nil {
		return service.GenerationInfo{}, err
	}
	return service.GenerationInfo{Exercise: m.Exercise, Seed: m.Seed, ReferenceTime: ref}, nil
}

// columns returns the field order of a table, taken from its first record
func columns(t *entity.Table) []string {
	if t.Len() == 0 {
		return nil
	}
	return t.Records[0].Keys()
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
