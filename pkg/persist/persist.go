// Package persist saves a fitted model together with its preprocessing
// metadata as a single artifact file and loads it back.
//
// An artifact is the 8-byte magic "STROKEML", one format-version byte and a
// gob stream holding the model and the metadata.
package persist

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nameisahmedh/strokeprediction/pkg/model"
	"github.com/nameisahmedh/strokeprediction/pkg/pipeline"
	"github.com/rs/zerolog/log"
)

const (
	magic   = "STROKEML"
	version = byte(1)
)

var (
	// ErrNotArtifact is returned when a file lacks the artifact header or
	// carries an unsupported format version.
	ErrNotArtifact = errors.New("persist: not a model artifact")
	// ErrCorrupt is returned when the artifact body cannot be decoded.
	ErrCorrupt = errors.New("persist: corrupt artifact")
)

// Artifact is the unit of persistence: a fitted model and the metadata
// needed to prepare its input.
type Artifact struct {
	Model model.Classifier
	Meta  *pipeline.Metadata
}

// Save writes the artifact to path atomically: the bytes go to a temporary
// file in the same directory, are synced, and the file is renamed over path.
func Save(path string, m model.Classifier, meta *pipeline.Metadata) error {
	if m == nil || meta == nil {
		return errors.New("persist: nil model or metadata")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			os.Remove(tmpName)
		}
	}()

	if err := Encode(tmp, &Artifact{Model: m, Meta: meta}); err != nil {
		tmp.Close()
		return err
	}
	// CreateTemp makes the file 0600
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename artifact: %w", err)
	}
	tmpName = ""

	log.Info().Str("path", path).Str("model", meta.ModelName).Msg("artifact saved")
	return nil
}

// Load reads the artifact at path. A missing file yields the wrapped os
// error (errors.Is(err, fs.ErrNotExist) holds).
func Load(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()
	return Decode(bufio.NewReader(f))
}

// Encode writes the header and the gob body of a to w.
func Encode(w io.Writer, a *Artifact) error {
	var buf bytes.Buffer
	buf.WriteString(magic)
	buf.WriteByte(version)
	if err := gob.NewEncoder(&buf).Encode(a); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

// Decode reads an artifact written by Encode.
func Decode(r io.Reader) (*Artifact, error) {
	header := make([]byte, len(magic)+1)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: short header", ErrNotArtifact)
	}
	if string(header[:len(magic)]) != magic {
		return nil, fmt.Errorf("%w: bad magic", ErrNotArtifact)
	}
	if header[len(magic)] != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrNotArtifact, header[len(magic)])
	}

	var a Artifact
	if err := gob.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if a.Model == nil || a.Meta == nil {
		return nil, fmt.Errorf("%w: missing model or metadata", ErrCorrupt)
	}
	return &a, nil
}
