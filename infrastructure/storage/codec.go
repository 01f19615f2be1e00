package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/isectech/ctf-datagen/config"
	"github.com/isectech/ctf-datagen/domain/entity"
)

const lz4Suffix = ".lz4"

// Codec turns a table's records into file contents and back
type Codec struct {
	Format      string
	Compression string
	Indent      int
}

// NewCodec creates a codec from output configuration
func NewCodec(cfg config.OutputConfig) Codec {
	return Codec{Format: cfg.Format, Compression: cfg.Compression, Indent: cfg.Indent}
}

// Extension returns the file suffix for this codec, e.g. ".msgpack.lz4"
func (c Codec) Extension() string {
	ext := "." + c.Format
	if c.Compression == config.CompressionLZ4 {
		ext += lz4Suffix
	}
	return ext
}

// FileName returns the file a table is stored in
func (c Codec) FileName(table string) string {
	return table + c.Extension()
}

// CodecForFile infers the codec a file was written with from its name
func CodecForFile(name string) (Codec, error) {
	c := Codec{Compression: config.CompressionNone}
	if strings.HasSuffix(name, lz4Suffix) {
		c.Compression = config.CompressionLZ4
		name = strings.TrimSuffix(name, lz4Suffix)
	}

	switch {
	case strings.HasSuffix(name, "."+config.FormatJSON):
		c.Format = config.FormatJSON
	case strings.HasSuffix(name, "."+config.FormatMsgpack):
		c.Format = config.FormatMsgpack
	default:
		return Codec{}, fmt.Errorf("unrecognised table file %q", name)
	}
	return c, nil
}

// Encode serializes records using the configured format and compression
func (c Codec) Encode(records []*entity.Record) ([]byte, error) {
	if records == nil {
		records = []*entity.Record{}
	}

	var (
		data []byte
		err  error
	)
	switch c.Format {
	case config.FormatJSON:
		data, err = c.encodeJSON(records)
	case config.FormatMsgpack:
		data, err = msgpack.Marshal(records)
	default:
		return nil, fmt.Errorf("unsupported format %q", c.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", c.Format, err)
	}

	if c.Compression == config.CompressionLZ4 {
		return compressLZ4(data)
	}
	return data, nil
}

// Decode parses file contents produced by Encode
func (c Codec) Decode(data []byte) ([]*entity.Record, error) {
	if c.Compression == config.CompressionLZ4 {
		var err error
		if data, err = decompressLZ4(data); err != nil {
			return nil, err
		}
	}

	var records []*entity.Record
	switch c.Format {
	case config.FormatJSON:
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to decode json: %w", err)
		}
	case config.FormatMsgpack:
		if err := msgpack.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to decode msgpack: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", c.Format)
	}
	return records, nil
}

func (c Codec) encodeJSON(records []*entity.Record) ([]byte, error) {
	if c.Indent <= 0 {
		return json.Marshal(records)
	}
	data, err := json.MarshalIndent(records, "", strings.Repeat(" ", c.Indent))
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// compressLZ4 compresses data using LZ4
func compressLZ4(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	writer := lz4.NewWriter(&buf)
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write LZ4 compressed data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close LZ4 writer: %w", err)
	}

	return buf.Bytes(), nil
}

// decompressLZ4 decompresses LZ4 data
func decompressLZ4(data []byte) ([]byte, error) {
	reader := lz4.NewReader(bytes.NewReader(data))

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read LZ4 decompressed data: %w", err)
	}

	return decompressed, nil
}
