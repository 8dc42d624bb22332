package scanner

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Kind tells how a corpus file stores messages
type Kind int

const (
	// KindEML is a single RFC 5322 message
	KindEML Kind = iota
	// KindMbox is an mbox archive holding many messages
	KindMbox
)

// File is a corpus file found by a scan
type File struct {
	// Path is relative to the scanner root, with forward slashes
	Path string
	Kind Kind
}

// Label returns the top-level directory of the file, e.g. "spam" for
// "spam/2024/0001.eml", or "" for files directly under the root.
func (f File) Label() string {
	dir := path.Dir(f.Path)
	if dir == "." {
		return ""
	}
	return strings.SplitN(dir, "/", 2)[0]
}

// ignoredNames are files that sit next to messages in public corpora but
// hold none, e.g. the SpamAssassin "cmds" index.
var ignoredNames = map[string]bool{
	"cmds":      true,
	"index":     true,
	"readme":    true,
	"license":   true,
	"thumbs.db": true,
}

// ignoredExts are extensions that never hold a message
var ignoredExts = map[string]bool{
	".txt": true, ".md": true, ".json": true, ".yaml": true, ".yml": true,
	".csv": true, ".db": true, ".gz": true, ".bz2": true, ".zip": true,
	".tar": true, ".py": true, ".go": true, ".html": true, ".pdf": true,
}

// mboxMagic starts the first line of an mbox archive
var mboxMagic = []byte("From ")

// Scanner scans directories for message files. Files ending in .eml are
// single messages and files ending in .mbox are archives; any other regular
// file is sniffed, so corpora that name messages by number or hash
// ("spam/0001.bfc8d64d12b325ff385cca8d07b84288") load as well.

type Scanner struct {
	rootPath string
}

// NewScanner creates a new scanner for the given root path
func NewScanner(rootPath string) *Scanner {
	return &Scanner{
		rootPath: rootPath,
	}
}

// GetRootPath returns the root path for resolving relative paths
func (s *Scanner) GetRootPath() string {
	return s.rootPath
}

// Resolve returns the filesystem path of a scanned file
func (s *Scanner) Resolve(f File) string {
	return filepath.Join(s.rootPath, filepath.FromSlash(f.Path))
}

// Scan recursively scans for corpus files and returns them sorted by path,
// relative to rootPath, so that corpus order does not depend on the OS.
func (s *Scanner) Scan() ([]File, error) {
	var files []File

	// Get absolute path of root for reliable relative path calculation
	absRoot, err := filepath.Abs(s.rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute root path: %w", err)
	}

	err = filepath.Walk(absRoot, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("error accessing path %s: %w", p, err)
		}

		// Skip hidden directories and files
		if p != absRoot && strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		kind, ok, err := kindOf(p)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		relPath, err := filepath.Rel(absRoot, p)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", p, err)
		}
		files = append(files, File{Path: filepath.ToSlash(relPath), Kind: kind})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return files, nil
}

// kindOf classifies a file by extension, falling back to its first line
func kindOf(p string) (Kind, bool, error) {
	ext := strings.ToLower(filepath.Ext(p))
	switch ext {
	case ".eml":
		return KindEML, true, nil
	case ".mbox":
		return KindMbox, true, nil
	}

	if ignoredExts[ext] || ignoredNames[strings.ToLower(filepath.Base(p))] {
		return 0, false, nil
	}

	f, err := os.Open(p)
	if err != nil {
		return 0, false, fmt.Errorf("failed to open %s: %w", p, err)
	}
	defer f.Close()

	head := make([]byte, len(mboxMagic))
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return 0, false, fmt.Errorf("failed to read %s: %w", p, err)
	}
	if n == 0 {
		return 0, false, nil
	}
	if bytes.Equal(head[:n], mboxMagic) {
		return KindMbox, true, nil
	}
	return KindEML, true, nil
}
