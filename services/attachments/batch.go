package attachments

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/customeros/invoicextract/dto"
	"github.com/customeros/invoicextract/internal/utils"
)

// Files lists every non-archive file of the batch, subdirectories first.
func (m *Materializer) Files(batch *dto.DownloadBatch) ([]string, error) {
	if batch == nil {
		return nil, nil
	}
	return listFiles(batch.Dir)
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		nested, err := listFiles(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, nested...)
	}
	for _, entry := range entries {
		if entry.IsDir() || utils.HasExtension(entry.Name(), ".zip") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// LocateXML returns the first .xml file in a first-level subdirectory, else in
// the batch root, else anywhere deeper. Empty when the batch has none.
func (m *Materializer) LocateXML(batch *dto.DownloadBatch) string {
	if batch == nil {
		return ""
	}
	entries, err := os.ReadDir(batch.Dir)
	if err != nil {
		return ""
	}
	var subdirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			subdirs = append(subdirs, filepath.Join(batch.Dir, entry.Name()))
		}
	}
	for _, sub := range subdirs {
		if xml := firstXML(sub); xml != "" {
			return xml
		}
	}
	if xml := firstXML(batch.Dir); xml != "" {
		return xml
	}
	for _, sub := range subdirs {
		if xml := deepXML(sub); xml != "" {
			return xml
		}
	}
	return ""
}

func firstXML(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() && utils.HasExtension(entry.Name(), ".xml") {
			return filepath.Join(dir, entry.Name())
		}
	}
	return ""
}

func deepXML(dir string) string {
	var found string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || found != "" {
			return fs.SkipDir
		}
		if d.IsDir() && path != dir {
			if xml := firstXML(path); xml != "" {
				found = xml
				return fs.SkipAll
			}
		}
		return nil
	})
	return found
}
