package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrNoMetadata is returned by LoadModule when a directory has no
// metadata.json.
var ErrNoMetadata = errors.New("no metadata.json")

// Module is a Puppet module: a directory with a manifests/ tree and usually
// a metadata.json.
type Module struct {
	// Name is the short name used in class names, e.g. "apache".
	Name string
	// FullName is the forge name, e.g. "puppetlabs-apache".
	FullName     string
	Author       string
	Dir          string
	Version      *semver.Version
	Summary      string
	Dependencies []Dependency
	// HasMetadata is false for modules found by their manifests/ directory
	// alone.
	HasMetadata bool
}

// Dependency is an entry of the dependencies list in metadata.json.
type Dependency struct {
	// Name is the short module name.
	Name        string
	FullName    string
	Requirement string
	Constraint  *semver.Constraints
}

type metadata struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	Author       string `json:"author"`
	Summary      string `json:"summary"`
	Dependencies []struct {
		Name               string `json:"name"`
		VersionRequirement string `json:"version_requirement"`
	} `json:"dependencies"`
}

// LoadModule reads dir/metadata.json.
func LoadModule(dir string) (*Module, error) {
	path := filepath.Join(dir, "metadata.json")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoMetadata)
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var md metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if md.Name == "" {
		return nil, fmt.Errorf("%s: missing name", path)
	}

	author, name := splitModuleName(md.Name)
	m := &Module{
		Name:        name,
		FullName:    md.Name,
		Author:      author,
		Dir:         dir,
		Summary:     md.Summary,
		HasMetadata: true,
	}
	if md.Author != "" {
		m.Author = md.Author
	}
	if md.Version != "" {
		v, err := semver.StrictNewVersion(md.Version)
		if err != nil {
			return nil, fmt.Errorf("%s: version %q: %w", path, md.Version, err)
		}
		m.Version = v
	}

	for _, d := range md.Dependencies {
		_, short := splitModuleName(d.Name)
		dep := Dependency{
			Name:        short,
			FullName:    d.Name,
			Requirement: d.VersionRequirement,
		}
		if req := strings.TrimSpace(d.VersionRequirement); req != "" {
			c, err := semver.NewConstraint(req)
			if err != nil {
				return nil, fmt.Errorf("%s: dependency %s: %w", path, d.Name, err)
			}
			dep.Constraint = c
		}
		m.Dependencies = append(m.Dependencies, dep)
	}
	return m, nil
}

// splitModuleName splits "puppetlabs-apache" or "puppetlabs/apache" into
// author and short name.
func splitModuleName(name string) (author, short string) {
	if i := strings.IndexAny(name, "-/"); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// Discover finds the modules below root. A directory is a module if it has a
// metadata.json or a manifests/ directory. root itself only counts when it
// has a metadata.json. Modules are not searched for nested modules.
func Discover(root string) ([]*Module, error) {
	var mods []*Module
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		m, err := LoadModule(path)
		switch {
		case err == nil:
		case errors.Is(err, ErrNoMetadata):
			if path == root || !isDir(filepath.Join(path, "manifests")) {
				return nil
			}
			m = &Module{Name: filepath.Base(path), Dir: path}
		default:
			return err
		}
		mods = append(mods, m)
		return filepath.SkipDir
	})
	if err != nil {
		return nil, fmt.Errorf("discover modules in %s: %w", root, err)
	}

	sort.Slice(mods, func(i, j int) bool {
		return mods[i].Name < mods[j].Name
	})
	return mods, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ClassFile returns the manifest that autoloading expects to declare the
// class: apache is apache/manifests/init.pp, apache::mod::ssl is
// apache/manifests/mod/ssl.pp. ok is false when the class does not belong
// to m.
func (m *Module) ClassFile(class string) (path string, ok bool) {
	segments := strings.Split(strings.TrimPrefix(strings.ToLower(class), "::"), "::")
	if segments[0] != m.Name {
		return "", false
	}
	if len(segments) == 1 {
		return filepath.Join(m.Dir, "manifests", "init.pp"), true
	}
	rest := segments[1:]
	rest[len(rest)-1] += ".pp"
	return filepath.Join(append([]string{m.Dir, "manifests"}, rest...)...), true
}

// Problem is a dependency of a module that the set of discovered modules
// cannot satisfy.
type Problem struct {
	Module     *Module
	Dependency Dependency
	Message    string
}

func (p Problem) String() string {
	return p.Module.Name + ": " + p.Message
}

// CheckDependencies reports the dependencies of mods that are missing or
// whose version does not satisfy the requirement.
func CheckDependencies(mods []*Module) []Problem {
	byName := make(map[string]*Module, len(mods))
	for _, m := range mods {
		byName[m.Name] = m
	}

	var problems []Problem
	for _, m := range mods {
		for _, dep := range m.Dependencies {
			other := byName[dep.Name]
			switch {
			case other == nil:
				problems = append(problems, Problem{
					Module:     m,
					Dependency: dep,
					Message:    fmt.Sprintf("missing dependency %s", dep.FullName),
				})
			case dep.Constraint == nil:
			case other.Version == nil:
				problems = append(problems, Problem{
					Module:     m,
					Dependency: dep,
					Message:    fmt.Sprintf("%s has no version, want %s", dep.Name, dep.Requirement),
				})
			case !dep.Constraint.Check(other.Version):
				problems = append(problems, Problem{
					Module:     m,
					Dependency: dep,
					Message:    fmt.Sprintf("%s %s does not satisfy %s", dep.Name, other.Version, dep.Requirement),
				})
			}
		}
	}
	return problems
}

// InOrder returns mods sorted so that every module comes after the modules
// it depends on. Dependencies outside mods are ignored; on a cycle the
// input order is returned.
func InOrder(mods []*Module) []*Module {
	byName := make(map[string]*Module, len(mods))
	for _, m := range mods {
		byName[m.Name] = m
	}

	// Kahn's algorithm over the dependencies found in mods.
	inDegree := make(map[string]int, len(mods))
	for _, m := range mods {
		for _, dep := range m.Dependencies {
			if byName[dep.Name] != nil {
				inDegree[m.Name]++
			}
		}
	}

	var queue []string
	for _, m := range mods {
		if inDegree[m.Name] == 0 {
			queue = append(queue, m.Name)
		}
	}

	var result []*Module
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		result = append(result, byName[name])

		for _, m := range mods {
			for _, dep := range m.Dependencies {
				if dep.Name == name {
					inDegree[m.Name]--
					if inDegree[m.Name] == 0 {
						queue = append(queue, m.Name)
					}
				}
			}
		}
	}

	if len(result) != len(mods) {
		return mods
	}
	return result
}
