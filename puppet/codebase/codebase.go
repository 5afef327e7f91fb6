package codebase

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/dhamidi/pup/puppet"
	"github.com/dhamidi/pup/puppet/parser"
)

var log = commonlog.GetLogger("pup.codebase")

// Codebase holds every manifest below a root directory together with an
// index of the classes and defined types they declare.
type Codebase struct {
	mu      sync.RWMutex
	rootDir string
	files   map[string]*FileInfo
	classes map[string]*puppet.ClassModel
	defines map[string]*puppet.ClassModel
}

type FileInfo struct {
	Path     string
	Content  []byte
	Source   *puppet.Source
	Model    *puppet.ManifestModel
	ParseErr error
}

func New(rootDir string) *Codebase {
	return &Codebase{
		rootDir: rootDir,
		files:   make(map[string]*FileInfo),
		classes: make(map[string]*puppet.ClassModel),
		defines: make(map[string]*puppet.ClassModel),
	}
}

func (c *Codebase) RootDir() string {
	return c.rootDir
}

// IsManifest reports whether path names a Puppet manifest.
func IsManifest(path string) bool {
	return filepath.Ext(path) == ".pp"
}

// ManifestPaths lists the manifests below root, skipping hidden directories.
func ManifestPaths(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsManifest(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return paths, nil
}

// ScanAll parses every manifest below the root directory. Files are parsed
// concurrently; the index is rebuilt once at the end.
func (c *Codebase) ScanAll(ctx context.Context) error {
	paths, err := ManifestPaths(c.rootDir)
	if err != nil {
		return err
	}

	infos := make([]*FileInfo, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(path)
			if err != nil {
				log.Warningf("read %s: %s", path, err)
				return nil
			}
			infos[i] = parseFile(gctx, path, content)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, info := range infos {
		if info != nil {
			c.files[info.Path] = info
		}
	}
	c.rebuildIndexLocked()
	log.Infof("scanned %d manifests below %s", len(paths), c.rootDir)
	return nil
}

func (c *Codebase) ScanFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	return c.UpdateFile(path, content)
}

// UpdateFile replaces the content of path, as after an edit in an editor.
func (c *Codebase) UpdateFile(path string, content []byte) error {
	info := parseFile(context.Background(), path, content)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[path] = info
	c.rebuildIndexLocked()
	return info.ParseErr
}

func parseFile(ctx context.Context, path string, content []byte) *FileInfo {
	info := &FileInfo{Path: path, Content: content}
	src, err := puppet.ParseSourceContext(ctx, content, parser.WithFile(path))
	if err != nil {
		info.ParseErr = err
		return info
	}
	info.Source = src
	info.Model = src.Model()
	if n := len(info.Model.Errors); n > 0 {
		log.Debugf("%s: %d syntax errors", path, n)
	}
	return info
}

func (c *Codebase) rebuildIndexLocked() {
	classes := make(map[string]*puppet.ClassModel)
	defines := make(map[string]*puppet.ClassModel)
	for _, f := range c.files {
		if f.Model == nil {
			continue
		}
		for _, cls := range f.Model.Classes {
			if cls.Name != "" {
				classes[cls.Name] = cls
			}
		}
		for _, def := range f.Model.Defines {
			if def.Name != "" {
				defines[def.Name] = def
			}
		}
	}
	c.classes = classes
	c.defines = defines
}

// RemoveFile forgets path, or every file below it when path is a directory.
func (c *Codebase) RemoveFile(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(path, string(filepath.Separator)) + string(filepath.Separator)
	for p := range c.files {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(c.files, p)
		}
	}
	c.rebuildIndexLocked()
}

func (c *Codebase) GetFile(path string) *FileInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.files[path]
}

// Paths returns the known files in sorted order.
func (c *Codebase) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	paths := make([]string, 0, len(c.files))
	for p := range c.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// AllClasses returns every class and defined type, sorted by name.
func (c *Codebase) AllClasses() []*puppet.ClassModel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	all := make([]*puppet.ClassModel, 0, len(c.classes)+len(c.defines))
	for _, cls := range c.classes {
		all = append(all, cls)
	}
	for _, def := range c.defines {
		all = append(all, def)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name == all[j].Name {
			return all[i].Kind < all[j].Kind
		}
		return all[i].Name < all[j].Name
	})
	return all
}

func (c *Codebase) FindClass(name string) *puppet.ClassModel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.classes[normalizeName(name)]
}

func (c *Codebase) FindDefine(name string) *puppet.ClassModel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defines[normalizeName(name)]
}

// normalizeName turns `::Apache::Vhost` into `apache::vhost`.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, "::"))
}
