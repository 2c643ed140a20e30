package scanner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"imagematcher/logging"
	"imagematcher/types"
	"imagematcher/utils"
)

var errSymlinkSkipped = errors.New("symlink not followed")

// FileStats counts what a scan saw
type FileStats struct {
	Visited  int
	Images   int
	Skipped  int
	Errors   int
	ByFormat map[string]int
}

// Scanner enumerates candidate images under a corpus root
type Scanner struct {
	// FollowSymlinks resolves symlinked files; symlinked directories are never descended
	FollowSymlinks bool
}

// New returns a Scanner with default settings
func New() *Scanner {
	return &Scanner{FollowSymlinks: true}
}

// Scan walks root and returns every candidate image, sorted by path. A
// symlinked root is resolved first, so paths are under its target.
// A missing root or an empty tree yields an empty slice and no error.
func (s *Scanner) Scan(root string) []types.CandidateFile {
	files, _ := s.ScanWithStats(root)
	return files
}

// ScanWithStats is Scan plus the counters gathered along the way
func (s *Scanner) ScanWithStats(root string) ([]types.CandidateFile, FileStats) {
	stats := FileStats{ByFormat: make(map[string]int)}

	// the root itself may be a symlink; WalkDir would not descend it
	absRoot, err := utils.ResolvePath(root)
	if err != nil {
		logging.LogWarning("Cannot resolve corpus root %s: %v", root, err)
		return []types.CandidateFile{}, stats
	}

	files := make([]types.CandidateFile, 0, 64)
	seen := make(map[string]struct{})

	filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			stats.Errors++
			logging.DebugLog("Error accessing path %s: %v", path, walkErr)
			if d != nil && d.IsDir() && path != absRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Visited++

		if !IsImageFile(path) {
			stats.Skipped++
			return nil
		}

		info, err := s.fileInfo(path, d)
		if err != nil {
			stats.Errors++
			logging.DebugLog("Skipping %s: %v", path, err)
			return nil
		}
		if info.IsDir() {
			// symlink to a directory; not descended to avoid cycles
			stats.Skipped++
			return nil
		}

		if _, dup := seen[path]; dup {
			return nil
		}
		seen[path] = struct{}{}

		format := GetFileFormat(path)
		stats.Images++
		stats.ByFormat[format]++
		files = append(files, types.CandidateFile{
			Path:    path,
			Format:  format,
			IsImage: true,
			Size:    info.Size(),
		})
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	logging.DebugLog("Scan of %s: %d images, %d other files, %d errors",
		absRoot, stats.Images, stats.Skipped, stats.Errors)
	return files, stats
}

func (s *Scanner) fileInfo(path string, d fs.DirEntry) (fs.FileInfo, error) {
	if d.Type()&fs.ModeSymlink != 0 {
		if !s.FollowSymlinks {
			return nil, errSymlinkSkipped
		}
		return os.Stat(path)
	}
	return d.Info()
}
