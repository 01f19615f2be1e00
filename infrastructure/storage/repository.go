package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/isectech/ctf-datagen/config"
	"github.com/isectech/ctf-datagen/domain/entity"
	"github.com/isectech/ctf-datagen/domain/service"
	"github.com/isectech/ctf-datagen/pkg/logging"
	"github.com/isectech/ctf-datagen/pkg/metrics"
	"github.com/isectech/ctf-datagen/shared/common"
)

const filePerm = 0o644

// FileRepository stores each dataset under <root>/<exercise>/ as one file per
// table plus a manifest.
type FileRepository struct {
	root    string
	codec   Codec
	logger  *logging.Logger
	metrics *metrics.Collector
}

var _ service.DatasetRepository = (*FileRepository)(nil)

// NewFileRepository creates a repository rooted at cfg.Directory.
// collector may be nil.
func NewFileRepository(cfg config.OutputConfig, logger *logging.Logger, collector *metrics.Collector) *FileRepository {
	return &FileRepository{
		root:    cfg.Directory,
		codec:   NewCodec(cfg),
		logger:  logger.WithComponent("storage"),
		metrics: collector,
	}
}

// Root returns the output directory
func (r *FileRepository) Root() string {
	return r.root
}

// Dir returns the directory holding one exercise's files
func (r *FileRepository) Dir(exercise entity.ExerciseID) string {
	return filepath.Join(r.root, string(exercise))
}

// Save writes every table of ds, then the manifest
func (r *FileRepository) Save(ctx context.Context, ds *entity.Dataset, info service.GenerationInfo) error {
	start := time.Now()
	dir := r.Dir(ds.Exercise)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return common.ErrStorage("mkdir", err).WithContext("path", dir)
	}

	manifest := newManifest(info, r.codec)
	for _, t := range ds.Tables() {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := r.codec.Encode(t.Records)
		if err != nil {
			return common.ErrStorage("encode", err).WithContext("table", t.Name)
		}

		name := r.codec.FileName(t.Name)
		path := filepath.Join(dir, name)
		if err := writeFileAtomic(path, data, filePerm); err != nil {
			return common.ErrStorage("write", err).WithContext("path", path)
		}
		if r.metrics != nil {
			r.metrics.RecordFileWritten(r.codec.Format)
		}

		manifest.Tables = append(manifest.Tables, TableEntry{
			Name:    t.Name,
			File:    name,
			Records: t.Len(),
			Columns: columns(t),
			SHA256:  checksum(data),
		})
		r.logger.Debug("Table written",
			zap.String("exercise", string(ds.Exercise)),
			zap.String("path", path),
			zap.Int("records", t.Len()),
			zap.Int("bytes", len(data)))
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return common.ErrStorage("encode", err).WithContext("file", ManifestFile)
	}
	path := filepath.Join(dir, ManifestFile)
	if err := writeFileAtomic(path, append(data, '\n'), filePerm); err != nil {
		return common.ErrStorage("write", err).WithContext("path", path)
	}

	r.logger.LogPerformance("save_dataset", time.Since(start),
		zap.String("exercise", string(ds.Exercise)),
		zap.Strings("tables", ds.TableNames()),
		zap.String("dir", dir))
	return nil
}

// Load reads a dataset back using its manifest for table order and integrity
func (r *FileRepository) Load(ctx context.Context, exercise entity.ExerciseID) (*entity.Dataset, service.GenerationInfo, error) {
	dir := r.Dir(exercise)
	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, service.GenerationInfo{}, err
	}
	if manifest.Exercise != exercise {
		return nil, service.GenerationInfo{}, common.NewAppErrorWithDetails(common.ErrCodeInvalidFormat,
			"manifest belongs to another exercise", string(manifest.Exercise)).WithContext("path", dir)
	}

	info, err := manifest.Info()
	if err != nil {
		return nil, service.GenerationInfo{}, common.WrapError(err, common.ErrCodeInvalidFormat, "invalid reference time in manifest")
	}

	ds := entity.NewDataset(exercise)
	for _, entry := range manifest.Tables {
		if err := ctx.Err(); err != nil {
			return nil, service.GenerationInfo{}, err
		}

		t, err := readTable(dir, entry)
		if err != nil {
			return nil, service.GenerationInfo{}, err
		}
		if err := ds.AddTable(t); err != nil {
			return nil, service.GenerationInfo{}, common.WrapError(err, common.ErrCodeInvalidFormat, "duplicate table in manifest")
		}
	}
	return ds, info, nil
}

// List returns the exercises that have a manifest under the root, sorted by id
func (r *FileRepository) List(ctx context.Context) ([]entity.ExerciseID, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, common.ErrStorage("list", err).WithContext("path", r.root)
	}

	var ids []entity.ExerciseID
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(r.root, e.Name(), ManifestFile)); err == nil {
			ids = append(ids, entity.ExerciseID(e.Name()))
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ReadManifest loads the manifest of one exercise directory
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, common.NewAppErrorWithDetails(common.ErrCodeNotFound, "dataset not found", dir)
		}
		return nil, common.ErrStorage("read", err).WithContext("path", path)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, common.WrapError(err, common.ErrCodeInvalidFormat, "invalid manifest").WithContext("path", path)
	}
	return &m, nil
}

func readTable(dir string, entry TableEntry) (*entity.Table, error) {
	path := filepath.Join(dir, entry.File)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.ErrStorage("read", err).WithContext("path", path)
	}
	if sum := checksum(data); sum != entry.SHA256 {
		return nil, common.NewAppErrorWithDetails(common.ErrCodeInvalidFormat, "checksum mismatch",
			fmt.Sprintf("%s: manifest %s, file %s", entry.File, entry.SHA256, sum))
	}

	codec, err := CodecForFile(entry.File)
	if err != nil {
		return nil, common.WrapError(err, common.ErrCodeInvalidFormat, "unknown table file")
	}
	records, err := codec.Decode(data)
	if err != nil {
		return nil, common.WrapError(err, common.ErrCodeInvalidFormat, "failed to decode table").WithContext("path", path)
	}
	if len(records) != entry.Records {
		return nil, common.NewAppErrorWithDetails(common.ErrCodeInvalidFormat, "record count mismatch",
			fmt.Sprintf("%s: manifest %d, file %d", entry.File, entry.Records, len(records)))
	}
	if len(records) > 0 && len(entry.Columns) > 0 && !slices.Equal(records[0].Keys(), entry.Columns) {
		return nil, common.NewAppErrorWithDetails(common.ErrCodeInvalidFormat, "column mismatch",
			fmt.Sprintf("%s: manifest %v, file %v", entry.File, entry.Columns, records[0].Keys()))
	}

	t := entity.NewTable(entry.Name, len(records))
	t.Append(records...)
	return t, nil
}
