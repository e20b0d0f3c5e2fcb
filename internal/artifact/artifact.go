// Package artifact writes retrieved records to timestamped files.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ardiustech/eng-ai-assistant/internal/config"
	"github.com/ardiustech/eng-ai-assistant/internal/defaults"
	"github.com/ardiustech/eng-ai-assistant/internal/logging"
)

// Writer saves artifacts into Dir.
type Writer struct {
	Dir      string
	SaveJSON bool
	SaveText bool

	Now func() time.Time
}

// FromConfig returns a Writer for the output config section.
func FromConfig(c config.Output) *Writer {
	return &Writer{Dir: c.Dir, SaveJSON: c.SaveJSON, SaveText: c.SaveText}
}

// Paths lists the files one Save call produced.
type Paths struct {
	JSON string
	Text string
}

// Files returns the non-empty paths.
func (p Paths) Files() []string {
	var out []string
	for _, f := range []string{p.JSON, p.Text} {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Save writes v as indented JSON to <prefix>-<unix-ms>.json and text to
// <prefix>-<unix-ms>.txt, each only when enabled. Both files share one
// timestamp. An empty text skips the text file.
func (w *Writer) Save(prefix string, v any, text string) (Paths, error) {
	var paths Paths
	if !w.SaveJSON && (!w.SaveText || text == "") {
		return paths, nil
	}
	if err := defaults.EnsureDir(w.Dir); err != nil {
		return paths, err
	}

	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	base := filepath.Join(w.Dir, prefix+"-"+strconv.FormatInt(now().UnixMilli(), 10))

	if w.SaveJSON {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return paths, fmt.Errorf("encode %s: %w", prefix, err)
		}
		if err := os.WriteFile(base+".json", data, 0644); err != nil {
			return paths, fmt.Errorf("write %s: %w", base+".json", err)
		}
		paths.JSON = base + ".json"
		logging.Component("artifact").Debug("saved", "path", paths.JSON)
	}
	if w.SaveText && text != "" {
		if err := os.WriteFile(base+".txt", []byte(text), 0644); err != nil {
			return paths, fmt.Errorf("write %s: %w", base+".txt", err)
		}
		paths.Text = base + ".txt"
		logging.Component("artifact").Debug("saved", "path", paths.Text)
	}
	return paths, nil
}
