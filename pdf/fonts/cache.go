package fonts

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/georgepadayatti/csfpdf/pdf/observability"
)

const (
	metricsPrefix = "fm-"
	widthsPrefix  = "cw-"
)

// Metrics is the cached metrics record of a TrueType font.
type Metrics struct {
	Name         string `json:"name"`
	Type         Type   `json:"type"`
	Desc         Desc   `json:"desc"`
	Up           int    `json:"up"`
	Ut           int    `json:"ut"`
	OriginalSize int64  `json:"originalsize"`
	FontKey      string `json:"fontkey"`
	WidthsDigest string `json:"cwdigest"`
}

// MetricsCache loads TrueType metrics and width tables, persisting them
// under a cache directory. A zero directory disables persistence.
type MetricsCache struct {
	dir    string
	logger observability.Logger
}

// NewMetricsCache creates a cache rooted at dir.
func NewMetricsCache(dir string, logger observability.Logger) *MetricsCache {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &MetricsCache{dir: dir, logger: logger}
}

// Dir returns the cache directory.
func (c *MetricsCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func widthsDigest(cw []byte) string {
	sum := blake2b.Sum256(cw)
	return hex.EncodeToString(sum[:])
}

// Load returns the metrics and width table of the TrueType font at path.
// A cached record is used only when its original size matches the file
// and its width table matches the recorded digest; anything else is
// recomputed from the font program.
func (c *MetricsCache) Load(path, fontKey string) (*Metrics, []byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	base := baseName(path)

	if c.dir != "" {
		if m, cw, ok := c.read(base, fi.Size()); ok {
			c.logger.Debug("font metrics cache hit", observability.String("font", base))
			return m, cw, nil
		}
		c.logger.Debug("font metrics cache miss", observability.String("font", base))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	ttf, err := ParseTrueType(data)
	if err != nil {
		return nil, nil, err
	}
	m, err := ttf.Metrics()
	if err != nil {
		return nil, nil, err
	}
	if m.Name == "" {
		m.Name = base
	}
	cw := ttf.WidthTable()
	m.OriginalSize = fi.Size()
	m.FontKey = fontKey
	m.WidthsDigest = widthsDigest(cw)

	if c.dir != "" {
		if err := c.write(base, m, cw); err != nil {
			c.logger.Warn("font metrics cache write failed",
				observability.String("font", base), observability.Error("error", err))
		}
	}
	return m, cw, nil
}

func (c *MetricsCache) read(base string, size int64) (*Metrics, []byte, bool) {
	raw, err := os.ReadFile(filepath.Join(c.dir, metricsPrefix+base+".json"))
	if err != nil {
		return nil, nil, false
	}
	var m Metrics
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, false
	}
	if m.OriginalSize != size {
		return nil, nil, false
	}
	cw, err := os.ReadFile(filepath.Join(c.dir, widthsPrefix+base+".dat"))
	if err != nil || widthsDigest(cw) != m.WidthsDigest {
		return nil, nil, false
	}
	return &m, cw, true
}

func (c *MetricsCache) write(base string, m *Metrics, cw []byte) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(c.dir, metricsPrefix+base+".json"), raw); err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(c.dir, widthsPrefix+base+".dat"), cw); err != nil {
		return err
	}
	// Range state computed from the previous width table is stale.
	if err := os.Remove(filepath.Join(c.dir, widthsPrefix+base+".json")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes every cache file from the cache directory.
func (c *MetricsCache) Clear() error {
	if c == nil || c.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasPrefix(name, metricsPrefix) || strings.HasPrefix(name, widthsPrefix)) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it into place, so concurrent readers never see a partial
// file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}
