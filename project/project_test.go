package project

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const apacheMetadata = `{
  "name": "puppetlabs-apache",
  "version": "2.1.0",
  "author": "puppetlabs",
  "summary": "Installs Apache",
  "dependencies": [
    {"name": "puppetlabs/stdlib", "version_requirement": ">= 4.13.1 < 9.0.0"},
    {"name": "puppetlabs/concat", "version_requirement": ">= 2.2.1"},
    {"name": "puppetlabs/firewall"}
  ]
}`

func TestLoadModule(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "metadata.json"), apacheMetadata)

	m, err := LoadModule(dir)
	if err != nil {
		t.Fatalf("LoadModule: %v", err)
	}
	if m.Name != "apache" || m.FullName != "puppetlabs-apache" || m.Author != "puppetlabs" {
		t.Errorf("names = %q %q %q", m.Name, m.FullName, m.Author)
	}
	if m.Version == nil || m.Version.String() != "2.1.0" {
		t.Errorf("version = %v, want 2.1.0", m.Version)
	}
	if !m.HasMetadata {
		t.Error("HasMetadata = false")
	}
	if len(m.Dependencies) != 3 {
		t.Fatalf("dependencies = %d, want 3", len(m.Dependencies))
	}
	if dep := m.Dependencies[0]; dep.Name != "stdlib" || dep.Constraint == nil {
		t.Errorf("first dependency = %+v", dep)
	}
	if dep := m.Dependencies[2]; dep.Name != "firewall" || dep.Constraint != nil {
		t.Errorf("unconstrained dependency = %+v", dep)
	}
}

func TestLoadModuleErrors(t *testing.T) {
	tests := []struct {
		name     string
		metadata string
		want     string
	}{
		{"bad json", `{"name": `, "parse"},
		{"no name", `{"version": "1.0.0"}`, "missing name"},
		{"bad version", `{"name": "a-b", "version": "one"}`, "version"},
		{"bad requirement", `{"name": "a-b", "dependencies": [{"name": "a/c", "version_requirement": "~> nope"}]}`, "dependency a/c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "metadata.json"), tt.metadata)
			_, err := LoadModule(dir)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadModule error = %v, want it to mention %q", err, tt.want)
			}
		})
	}

	_, err := LoadModule(t.TempDir())
	if !errors.Is(err, ErrNoMetadata) {
		t.Errorf("LoadModule on an empty directory = %v, want ErrNoMetadata", err)
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "manifests", "site.pp"), "include apache\n")
	writeFile(t, filepath.Join(root, "modules", "apache", "metadata.json"), apacheMetadata)
	writeFile(t, filepath.Join(root, "modules", "apache", "manifests", "init.pp"), "class apache {}\n")
	writeFile(t, filepath.Join(root, "modules", "apache", "spec", "fixtures", "modules", "stdlib", "manifests", "init.pp"), "")
	writeFile(t, filepath.Join(root, "modules", "profile", "manifests", "web.pp"), "class profile::web {}\n")
	writeFile(t, filepath.Join(root, "modules", "notes", "README"), "")
	writeFile(t, filepath.Join(root, ".cache", "hidden", "manifests", "init.pp"), "")

	mods, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	var names []string
	for _, m := range mods {
		names = append(names, m.Name)
	}
	if got := strings.Join(names, ","); got != "apache,profile" {
		t.Fatalf("modules = %s, want apache,profile", got)
	}
	if mods[1].HasMetadata || mods[1].Version != nil {
		t.Errorf("profile should have no metadata: %+v", mods[1])
	}
}

func TestClassFile(t *testing.T) {
	m := &Module{Name: "apache", Dir: "/etc/puppet/modules/apache"}

	tests := []struct {
		class string
		want  string
		ok    bool
	}{
		{"apache", "/etc/puppet/modules/apache/manifests/init.pp", true},
		{"::Apache", "/etc/puppet/modules/apache/manifests/init.pp", true},
		{"apache::vhost", "/etc/puppet/modules/apache/manifests/vhost.pp", true},
		{"apache::mod::ssl", "/etc/puppet/modules/apache/manifests/mod/ssl.pp", true},
		{"nginx", "", false},
		{"apachex::vhost", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			got, ok := m.ClassFile(tt.class)
			if ok != tt.ok || got != filepath.FromSlash(tt.want) {
				t.Errorf("ClassFile(%q) = %q, %v; want %q, %v", tt.class, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func loadAll(t *testing.T, metadata map[string]string) []*Module {
	t.Helper()
	root := t.TempDir()
	for name, md := range metadata {
		writeFile(t, filepath.Join(root, name, "metadata.json"), md)
	}
	mods, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	return mods
}

func TestCheckDependencies(t *testing.T) {
	mods := loadAll(t, map[string]string{
		"apache":   apacheMetadata,
		"stdlib":   `{"name": "puppetlabs-stdlib", "version": "9.4.1"}`,
		"concat":   `{"name": "puppetlabs-concat", "version": "7.0.0"}`,
		"firewall": `{"name": "puppetlabs-firewall"}`,
		"ntp":      `{"name": "puppetlabs-ntp", "version": "1.0.0", "dependencies": [{"name": "puppetlabs/stdlib", "version_requirement": "9.x"}]}`,
		"site":     `{"name": "acme-site", "version": "0.1.0", "dependencies": [{"name": "acme/base", "version_requirement": ">= 1.0.0"}]}`,
	})

	var got []string
	for _, p := range CheckDependencies(mods) {
		got = append(got, p.String())
	}
	want := []string{
		"apache: stdlib 9.4.1 does not satisfy >= 4.13.1 < 9.0.0",
		"site: missing dependency acme/base",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("CheckDependencies =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestInOrder(t *testing.T) {
	mods := []*Module{
		{Name: "site", Dependencies: []Dependency{{Name: "apache"}, {Name: "ntp"}}},
		{Name: "apache", Dependencies: []Dependency{{Name: "stdlib"}, {Name: "concat"}}},
		{Name: "stdlib"},
		{Name: "ntp", Dependencies: []Dependency{{Name: "stdlib"}}},
	}

	var names []string
	for _, m := range InOrder(mods) {
		names = append(names, m.Name)
	}
	if got := strings.Join(names, ","); got != "stdlib,apache,ntp,site" {
		t.Errorf("InOrder = %s, want stdlib,apache,ntp,site", got)
	}

	cycle := []*Module{
		{Name: "a", Dependencies: []Dependency{{Name: "b"}}},
		{Name: "b", Dependencies: []Dependency{{Name: "a"}}},
	}
	if got := InOrder(cycle); got[0].Name != "a" || got[1].Name != "b" {
		t.Error("InOrder should return the input order on a cycle")
	}
}
