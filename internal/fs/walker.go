package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"docrag/internal/domain"
)

// Walker discovers ingestable documents under a root directory using
// doublestar include and exclude globs matched against relative paths.
type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

type FileInfo struct {
	Path    string
	RelPath string
	ModTime int64
	Size    int64
}

// Walk lists every file under root matching the include globs and none
// of the exclude globs.
func (w *Walker) Walk(root string) ([]FileInfo, error) {
	var files []FileInfo

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			if w.shouldExclude(relPath + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if w.shouldInclude(relPath) && !w.shouldExclude(relPath) {
			files = append(files, FileInfo{
				Path:    path,
				RelPath: relPath,
				ModTime: info.ModTime().Unix(),
				Size:    info.Size(),
			})
		}

		return nil
	})

	return files, err
}

func (w *Walker) shouldInclude(path string) bool {
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// LoadDocument reads a discovered file into a document. The document id
// is derived from the relative path so re-ingesting the same file
// replaces its chunks.
func LoadDocument(file FileInfo) (domain.Document, error) {
	data, err := os.ReadFile(file.Path)
	if err != nil {
		return domain.Document{}, err
	}

	title := filepath.Base(file.RelPath)
	title = strings.TrimSuffix(title, filepath.Ext(title))

	return domain.Document{
		ID:      DocumentID(file.RelPath),
		Title:   title,
		Text:    string(data),
		ModTime: time.Unix(file.ModTime, 0),
	}, nil
}

// DocumentID derives a stable document id from a relative path.
func DocumentID(relPath string) string {
	sum := sha256.Sum256([]byte(filepath.ToSlash(relPath)))
	return hex.EncodeToString(sum[:8])
}
