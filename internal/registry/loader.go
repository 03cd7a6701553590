package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"promptd/internal/common/fsutil"
	"promptd/pkg/types"
)

// LoadDir scans a directory for *.gguf files. ID is the full filename; Path is
// the absolute file path; SizeBytes is the file size.
func LoadDir(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		p := filepath.Join(abs, name)
		models = append(models, types.Model{ID: name, Name: name, Path: p, SizeBytes: fsutil.FileSize(p)})
	}
	return models, nil
}

// fileStem reduces "gpt2.Q4_K_M.gguf" to "gpt2".
func fileStem(name string) string {
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if i := strings.Index(name, "."); i > 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

// idStem reduces "meta-llama/Llama-2-7b-chat-hf" to "llama-2-7b-chat-hf".
func idStem(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	return strings.ToLower(id)
}
