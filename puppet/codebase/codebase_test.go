package codebase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	initPP = `# The web server.
class web($port = 80) {
  $root = '/srv'
  notice($root, $port)
}
`
	vhostPP = `define web::vhost(Integer $port, String $docroot) {
  file { $docroot: ensure => directory }
}
`
	appPP = `class web::app inherits web {
  $local = 1
  notice($l)
}
`
	sitePP = `include web
web::vhost { 'a': po => 1 }
notice($web::root)
`
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

type testTree struct {
	root  string
	init  string
	vhost string
	app   string
	site  string
}

func newTestCodebase(t *testing.T) (*Codebase, testTree) {
	t.Helper()
	root := t.TempDir()
	tree := testTree{
		root:  root,
		init:  filepath.Join(root, "modules", "web", "manifests", "init.pp"),
		vhost: filepath.Join(root, "modules", "web", "manifests", "vhost.pp"),
		app:   filepath.Join(root, "modules", "web", "manifests", "app.pp"),
		site:  filepath.Join(root, "manifests", "site.pp"),
	}
	writeFile(t, tree.init, initPP)
	writeFile(t, tree.vhost, vhostPP)
	writeFile(t, tree.app, appPP)
	writeFile(t, tree.site, sitePP)
	writeFile(t, filepath.Join(root, ".git", "hooks", "hidden.pp"), "class hidden {}\n")
	writeFile(t, filepath.Join(root, "README.md"), "# web\n")

	c := New(root)
	if err := c.ScanAll(context.Background()); err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	return c, tree
}

func TestScanAll(t *testing.T) {
	c, tree := newTestCodebase(t)

	if got := len(c.Paths()); got != 4 {
		t.Errorf("Paths = %d, want 4: %v", got, c.Paths())
	}
	if c.FindClass("web") == nil {
		t.Error("FindClass(web) returned nil")
	}
	if c.FindClass("::web") == nil {
		t.Error("FindClass(::web) returned nil")
	}
	if def := c.FindDefine("Web::Vhost"); def == nil || def.Location.File != tree.vhost {
		t.Errorf("FindDefine(Web::Vhost) = %+v", def)
	}
	if c.FindClass("hidden") != nil {
		t.Error("manifests in hidden directories should be skipped")
	}
	if c.FindClass("web::vhost") != nil {
		t.Error("a define should not be found as a class")
	}
	if got := len(c.AllClasses()); got != 3 {
		t.Errorf("AllClasses = %d, want 3", got)
	}
}

func TestScanAllCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pp"), "class a {}\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New(root).ScanAll(ctx); err == nil {
		t.Error("ScanAll with a cancelled context should fail")
	}
}

func TestUpdateAndRemoveFile(t *testing.T) {
	c := New("/tmp/pup_test")
	path := "/tmp/pup_test/manifests/a.pp"

	if err := c.UpdateFile(path, []byte("class a {}\n")); err != nil {
		t.Fatalf("UpdateFile: %v", err)
	}
	if c.FindClass("a") == nil {
		t.Fatal("FindClass(a) returned nil")
	}

	c.UpdateFile(path, []byte("class b {}\n"))
	if c.FindClass("a") != nil {
		t.Error("class a should be gone after the update")
	}
	if c.FindClass("b") == nil {
		t.Error("FindClass(b) returned nil")
	}

	c.RemoveFile("/tmp/pup_test/manifests")
	if c.GetFile(path) != nil || c.FindClass("b") != nil {
		t.Error("removing the directory should forget its files")
	}
}

func TestDiagnostics(t *testing.T) {
	c, tree := newTestCodebase(t)
	path := filepath.Join(tree.root, "manifests", "broken.pp")
	c.UpdateFile(path, []byte("include missing\ninclude web\nclass x(String) {}\n"))

	diags := c.Diagnostics(path)
	if len(diags) != 2 {
		t.Fatalf("Diagnostics = %+v, want 2", diags)
	}
	if diags[0].Severity != SeverityWarning || diags[0].Message != "unknown class missing" {
		t.Errorf("first diagnostic = %+v", diags[0])
	}
	if diags[0].Location.Line != 1 || diags[0].Location.Column != 9 {
		t.Errorf("warning at %d:%d, want 1:9", diags[0].Location.Line, diags[0].Location.Column)
	}
	if diags[1].Severity != SeverityError || !strings.Contains(diags[1].Message, "String") {
		t.Errorf("second diagnostic = %+v", diags[1])
	}

	if got := c.Diagnostics(tree.init); len(got) != 0 {
		t.Errorf("Diagnostics(init.pp) = %+v, want none", got)
	}
}

func TestDefinitionAt(t *testing.T) {
	c, tree := newTestCodebase(t)

	tests := []struct {
		name   string
		path   string
		source string
		needle string
		file   string
		line   int
		column int
	}{
		{"included class", tree.site, sitePP, "web\n", tree.init, 2, 7},
		{"defined type", tree.site, sitePP, "vhost {", tree.vhost, 1, 8},
		{"qualified variable", tree.site, sitePP, "web::root", tree.init, 3, 3},
		{"local variable", tree.init, initPP, "root, $port", tree.init, 3, 3},
		{"parameter", tree.init, initPP, "port)", tree.init, 2, 11},
		{"resource title", tree.site, sitePP, "a'", tree.vhost, 1, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset := strings.Index(tt.source, tt.needle)
			loc := c.DefinitionAt(tt.path, offset)
			if loc == nil {
				t.Fatalf("DefinitionAt(%d) returned nil", offset)
			}
			if loc.File != tt.file || loc.Line != tt.line || loc.Column != tt.column {
				t.Errorf("DefinitionAt = %s %d:%d, want %s %d:%d", loc.File, loc.Line, loc.Column, tt.file, tt.line, tt.column)
			}
		})
	}

	if loc := c.DefinitionAt(tree.site, strings.Index(sitePP, "notice")); loc != nil {
		t.Errorf("DefinitionAt on a function name = %+v, want nil", loc)
	}
}

func TestDefinitionAtInheritedVariable(t *testing.T) {
	c, tree := newTestCodebase(t)
	path := filepath.Join(tree.root, "modules", "web", "manifests", "child.pp")
	source := "class web::child inherits web {\n  notice($root)\n}\n"
	c.UpdateFile(path, []byte(source))

	loc := c.DefinitionAt(path, strings.Index(source, "$root")+1)
	if loc == nil {
		t.Fatal("DefinitionAt returned nil")
	}
	if loc.File != tree.init || loc.Line != 3 {
		t.Errorf("DefinitionAt = %s:%d, want %s:3", loc.File, loc.Line, tree.init)
	}
}

func TestHoverAt(t *testing.T) {
	c, tree := newTestCodebase(t)

	hover := c.HoverAt(tree.site, strings.Index(sitePP, "web"))
	if !strings.Contains(hover, "class web(Any $port = 80)") {
		t.Errorf("hover is missing the signature:\n%s", hover)
	}
	if !strings.Contains(hover, "The web server.") {
		t.Errorf("hover is missing the doc comment:\n%s", hover)
	}

	hover = c.HoverAt(tree.site, strings.Index(sitePP, "web::vhost"))
	if !strings.Contains(hover, "define web::vhost(Integer $port, String $docroot)") {
		t.Errorf("hover is missing the define signature:\n%s", hover)
	}

	if hover := c.HoverAt(tree.site, 0); hover != "" {
		t.Errorf("hover on a keyword = %q, want empty", hover)
	}
}

func TestSymbols(t *testing.T) {
	c, tree := newTestCodebase(t)

	symbols := c.Symbols(tree.vhost)
	if len(symbols) != 2 {
		t.Fatalf("Symbols = %+v, want 2", symbols)
	}
	if symbols[0].Name != "web::vhost" || symbols[0].Kind != SymbolDefine {
		t.Errorf("first symbol = %+v", symbols[0])
	}
	if symbols[0].Selection.Column != 8 {
		t.Errorf("selection column = %d, want 8", symbols[0].Selection.Column)
	}
	if symbols[1].Name != "File['docroot']" || symbols[1].Kind != SymbolResource {
		t.Errorf("second symbol = %+v", symbols[1])
	}
}

func labels(items []CompletionItem) string {
	var out []string
	for _, item := range items {
		out = append(out, item.Label)
	}
	return strings.Join(out, ",")
}

func TestCompletionsAt(t *testing.T) {
	c, tree := newTestCodebase(t)
	scratch := filepath.Join(tree.root, "manifests", "scratch.pp")

	tests := []struct {
		name   string
		path   string
		source string
		offset int
		want   string
	}{
		{"class prefix", scratch, "include w", 9, "web,web::app"},
		{"class after keyword", scratch, "include ", 8, "web,web::app"},
		{"variable prefix", tree.app, appPP, strings.Index(appPP, "$l)") + 2, "local"},
		{"all variables", tree.app, appPP, strings.Index(appPP, "$l)") + 1, "environment,facts,local,port,root,server_facts,trusted"},
		{"lone dollar", scratch, "$", 1, "environment,facts,server_facts,trusted"},
		{"attribute", tree.site, sitePP, strings.Index(sitePP, "po =>") + 2, "port"},
		{"nothing", tree.site, sitePP, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.path == scratch {
				c.UpdateFile(scratch, []byte(tt.source))
			}
			got := labels(c.CompletionsAt(tt.path, tt.offset))
			if got != tt.want {
				t.Errorf("CompletionsAt = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileWatcher(t *testing.T) {
	root := t.TempDir()
	c := New(root)
	w, err := NewFileWatcher(c)
	if err != nil {
		t.Skip("fsnotify not supported: ", err)
	}

	changed := make(chan string, 16)
	w.OnChange = func(path string, removed bool) {
		select {
		case changed <- path:
		default:
		}
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	path := filepath.Join(root, "watched.pp")
	writeFile(t, path, "class watched {}\n")

	deadline := time.After(5 * time.Second)
	for c.FindClass("watched") == nil {
		select {
		case <-changed:
		case <-deadline:
			t.Fatal("timeout waiting for the watcher to pick up the new manifest")
		}
	}

	os.Remove(path)
	deadline = time.After(5 * time.Second)
	for c.FindClass("watched") != nil {
		select {
		case <-changed:
		case <-deadline:
			t.Fatal("timeout waiting for the watcher to drop the removed manifest")
		}
	}
}

func TestFileWatcherStop(t *testing.T) {
	tests := []struct {
		name  string
		setup func(w *FileWatcher) error
	}{
		{"before start", func(w *FileWatcher) error { return nil }},
		{"after failed start", func(w *FileWatcher) error {
			w.Stop()
			if err := w.Start(); err == nil {
				return fmt.Errorf("Start on a closed watcher should fail")
			}
			return nil
		}},
		{"twice", func(w *FileWatcher) error {
			if err := w.Start(); err != nil {
				return err
			}
			w.Stop()
			return nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewFileWatcher(New(t.TempDir()))
			if err != nil {
				t.Skip("fsnotify not supported: ", err)
			}
			if err := tt.setup(w); err != nil {
				t.Fatal(err)
			}

			stopped := make(chan struct{})
			go func() {
				w.Stop()
				close(stopped)
			}()
			select {
			case <-stopped:
			case <-time.After(5 * time.Second):
				t.Fatal("Stop did not return")
			}
		})
	}
}
