package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"llamabridge/internal/common/fsutil"
	"llamabridge/pkg/types"
)

// Scan lists the *.gguf files directly under dir, sorted by name. Files whose
// name contains "mmproj" are flagged as projectors.
func Scan(dir string) ([]types.ModelFile, error) {
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
	models := []types.ModelFile{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		lower := strings.ToLower(name)
		if !strings.HasSuffix(lower, ".gguf") {
			continue
		}
		mf := types.ModelFile{
			ID:        name,
			Path:      filepath.Join(abs, name),
			Projector: strings.Contains(lower, "mmproj"),
		}
		if info, err := e.Info(); err == nil {
			mf.SizeBytes = info.Size()
		}
		models = append(models, mf)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// Find returns the file in dir whose ID is id.
func Find(dir, id string) (types.ModelFile, bool, error) {
	models, err := Scan(dir)
	if err != nil {
		return types.ModelFile{}, false, err
	}
	for _, m := range models {
		if m.ID == id {
			return m, true, nil
		}
	}
	return types.ModelFile{}, false, nil
}
