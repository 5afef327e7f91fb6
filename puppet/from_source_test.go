package puppet

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dhamidi/pup/puppet/parser"
)

const webManifest = `# Manages the web tier.
# Used on every frontend.
class web (
  String $docroot = '/var/www',
  Integer $port = 80,
) inherits web::params {
  include web::install, web::config
  file { '/etc/web.conf':
    ensure  => file,
    content => template('web/web.conf.erb'),
  }
  File { mode => '0644' }
  $listen = "0.0.0.0:${port}"
  class nested {
  }
}

define web::vhost($servername) {
  notify { $servername: }
}

node 'web01.example.com' {
  class { 'web': port => 8080 }
}
`

func webModel(t *testing.T) *ManifestModel {
	t.Helper()
	m, err := ManifestFromSource([]byte(webManifest), parser.WithFile("manifests/init.pp"))
	if err != nil {
		t.Fatalf("Failed to parse source: %v", err)
	}
	if len(m.Errors) != 0 {
		t.Fatalf("Expected no errors, got %v", m.Errors)
	}
	return m
}

func TestManifestClasses(t *testing.T) {
	m := webModel(t)

	if len(m.Classes) != 2 {
		t.Fatalf("Expected 2 classes, got %d", len(m.Classes))
	}
	web := m.Classes[0]

	t.Run("name and parent", func(t *testing.T) {
		if web.Name != "web" {
			t.Errorf("Expected name web, got %q", web.Name)
		}
		if web.Inherits != "web::params" {
			t.Errorf("Expected inherits web::params, got %q", web.Inherits)
		}
		if web.Kind != DeclarationClass {
			t.Errorf("Expected kind class, got %q", web.Kind)
		}
	})

	t.Run("doc comment", func(t *testing.T) {
		want := "Manages the web tier.\nUsed on every frontend."
		if web.Doc != want {
			t.Errorf("Expected doc %q, got %q", want, web.Doc)
		}
	})

	t.Run("parameters", func(t *testing.T) {
		want := []ParameterModel{
			{Name: "docroot", Type: "String", Default: "'/var/www'"},
			{Name: "port", Type: "Integer", Default: "80"},
		}
		if len(web.Parameters) != len(want) {
			t.Fatalf("Expected %d parameters, got %d", len(want), len(web.Parameters))
		}
		for i, w := range want {
			got := web.Parameters[i]
			if got.Name != w.Name || got.Type != w.Type || got.Default != w.Default {
				t.Errorf("parameter %d = %+v, want %+v", i, got, w)
			}
		}
		if p := web.Parameter("$port"); p == nil || p.Type != "Integer" {
			t.Errorf("Parameter($port) = %+v", p)
		}
		if p := web.Parameter("missing"); p != nil {
			t.Errorf("Parameter(missing) = %+v, want nil", p)
		}
	})

	t.Run("locations", func(t *testing.T) {
		if web.Location.File != "manifests/init.pp" {
			t.Errorf("Expected file manifests/init.pp, got %q", web.Location.File)
		}
		if web.Location.Line != 3 || web.Location.Column != 1 {
			t.Errorf("Expected class at 3:1, got %d:%d", web.Location.Line, web.Location.Column)
		}
		if web.NameLocation.Line != 3 || web.NameLocation.Column != 7 {
			t.Errorf("Expected name at 3:7, got %d:%d", web.NameLocation.Line, web.NameLocation.Column)
		}
		if web.Location.EndLine != 16 {
			t.Errorf("Expected class to end on line 16, got %d", web.Location.EndLine)
		}
	})

	t.Run("nested class", func(t *testing.T) {
		nested := m.Classes[1]
		if nested.Name != "web::nested" {
			t.Errorf("Expected web::nested, got %q", nested.Name)
		}
		if nested.Enclosing != "web" {
			t.Errorf("Expected enclosing web, got %q", nested.Enclosing)
		}
		if nested.Doc != "" {
			t.Errorf("Expected no doc, got %q", nested.Doc)
		}
	})
}

func TestManifestDefinesAndNodes(t *testing.T) {
	m := webModel(t)

	if len(m.Defines) != 1 {
		t.Fatalf("Expected 1 define, got %d", len(m.Defines))
	}
	vhost := m.Defines[0]
	if vhost.Name != "web::vhost" || vhost.Kind != DeclarationDefine {
		t.Errorf("Expected define web::vhost, got %q (%s)", vhost.Name, vhost.Kind)
	}
	if len(vhost.Parameters) != 1 || vhost.Parameters[0].Name != "servername" || vhost.Parameters[0].Type != "Any" {
		t.Errorf("Unexpected parameters %+v", vhost.Parameters)
	}
	if m.FindClass("web::vhost") != vhost {
		t.Errorf("FindClass did not return the define")
	}
	if m.FindClass("nope") != nil {
		t.Errorf("FindClass(nope) should be nil")
	}

	if len(m.Nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(m.Nodes))
	}
	if got := strings.Join(m.Nodes[0].Names, ","); got != "web01.example.com" {
		t.Errorf("Expected node name web01.example.com, got %q", got)
	}
}

func TestManifestResources(t *testing.T) {
	m := webModel(t)

	if len(m.Resources) != 4 {
		t.Fatalf("Expected 4 resources, got %d", len(m.Resources))
	}

	t.Run("declaration", func(t *testing.T) {
		file := m.Resources[0]
		if file.Type != "File" || file.IsDefaults {
			t.Errorf("Expected File declaration, got %+v", file)
		}
		if len(file.Titles) != 1 || file.Titles[0] != "/etc/web.conf" {
			t.Errorf("Expected title /etc/web.conf, got %v", file.Titles)
		}
		if file.Container != "web" {
			t.Errorf("Expected container web, got %q", file.Container)
		}
		want := []AttributeModel{
			{Name: "ensure", Value: "file"},
			{Name: "content", Value: "template('web/web.conf.erb')"},
		}
		if len(file.Attributes) != len(want) {
			t.Fatalf("Expected %d attributes, got %+v", len(want), file.Attributes)
		}
		for i, w := range want {
			if file.Attributes[i].Name != w.Name || file.Attributes[i].Value != w.Value {
				t.Errorf("attribute %d = %+v, want %+v", i, file.Attributes[i], w)
			}
		}
	})

	t.Run("defaults", func(t *testing.T) {
		defaults := m.Resources[1]
		if !defaults.IsDefaults || len(defaults.Titles) != 0 {
			t.Errorf("Expected resource defaults, got %+v", defaults)
		}
		if len(defaults.Attributes) != 1 || defaults.Attributes[0].Value != "'0644'" {
			t.Errorf("Unexpected attributes %+v", defaults.Attributes)
		}
	})

	t.Run("variable title", func(t *testing.T) {
		notify := m.Resources[2]
		if notify.Type != "Notify" || len(notify.Titles) != 1 || notify.Titles[0] != "servername" {
			t.Errorf("Unexpected resource %+v", notify)
		}
		if notify.Container != "web::vhost" {
			t.Errorf("Expected container web::vhost, got %q", notify.Container)
		}
	})

	t.Run("class resource", func(t *testing.T) {
		cls := m.Resources[3]
		if cls.Type != "Class" || len(cls.Titles) != 1 || cls.Titles[0] != "web" {
			t.Errorf("Unexpected resource %+v", cls)
		}
		if cls.Container != "" {
			t.Errorf("Expected top-level container, got %q", cls.Container)
		}
	})
}

func TestManifestIncludesAndReferences(t *testing.T) {
	m := webModel(t)

	var includes []string
	for _, inc := range m.Includes {
		if inc.Function != "include" || inc.Container != "web" {
			t.Errorf("Unexpected include %+v", inc)
		}
		includes = append(includes, inc.Class)
	}
	if got := strings.Join(includes, ","); got != "web::install,web::config" {
		t.Errorf("Expected includes web::install,web::config, got %q", got)
	}

	find := func(name string) *ReferenceModel {
		for i := range m.References {
			if m.References[i].Name == name {
				return &m.References[i]
			}
		}
		return nil
	}
	tests := []struct {
		name string
		kind ReferenceKind
		typ  string
	}{
		{"web::params", ReferenceClass, "Class"},
		{"web::install", ReferenceClass, "Class"},
		{"/etc/web.conf", ReferenceResource, "File"},
		{"servername", ReferenceResource, "Notify"},
		{"web", ReferenceClass, "Class"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := find(tt.name)
			if ref == nil {
				t.Fatalf("Expected a reference to %s in %+v", tt.name, m.References)
			}
			if ref.Kind != tt.kind || ref.Type != tt.typ {
				t.Errorf("Expected %s %s, got %s %s", tt.kind, tt.typ, ref.Kind, ref.Type)
			}
		})
	}
}

func TestManifestVariables(t *testing.T) {
	m := webModel(t)

	var listen *VariableModel
	defs := 0
	for i, v := range m.Variables {
		if v.Definition {
			defs++
		}
		if v.Name == "listen" {
			listen = &m.Variables[i]
		}
	}
	if listen == nil {
		t.Fatalf("Expected $listen in %+v", m.Variables)
	}
	if !listen.Definition || listen.Container != "web" {
		t.Errorf("Unexpected variable %+v", listen)
	}
	// $docroot, $port, $listen and $servername
	if defs != 4 {
		t.Errorf("Expected 4 definitions, got %d", defs)
	}
}

func TestManifestErrors(t *testing.T) {
	m, err := ManifestFromSource([]byte("class foo(String) {}\n"))
	if err != nil {
		t.Fatalf("Failed to parse source: %v", err)
	}
	if len(m.Errors) != 1 {
		t.Fatalf("Expected 1 error, got %+v", m.Errors)
	}
	e := m.Errors[0]
	if !strings.Contains(e.Message, "String") {
		t.Errorf("Expected message to name the type, got %q", e.Message)
	}
	if e.Location.Line != 1 || e.Location.Column != 11 {
		t.Errorf("Expected error at 1:11, got %d:%d", e.Location.Line, e.Location.Column)
	}
	if len(m.Classes) != 1 || len(m.Classes[0].Parameters) != 0 {
		t.Errorf("Expected class foo without parameters, got %+v", m.Classes)
	}
}

func TestDocComments(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"single line", "# Docs.\nclass foo {}\n", "Docs."},
		{"indented", "class a {\n  # Inner docs.\n  class b {}\n}\n", "Inner docs."},
		{"trailing comment", "$x = 1 # not docs\nclass foo {}\n", ""},
		{"blank line between", "# detached\n\nclass foo {}\n", ""},
		{"block ends at gap", "# first\n\n# second\nclass foo {}\n", "second"},
		{"none", "class foo {}\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ManifestFromSource([]byte(tt.source))
			if err != nil {
				t.Fatalf("Failed to parse source: %v", err)
			}
			cls := m.Classes[len(m.Classes)-1]
			if cls.Doc != tt.want {
				t.Errorf("Expected doc %q, got %q", tt.want, cls.Doc)
			}
		})
	}
}

func TestSourceText(t *testing.T) {
	src, err := ParseSource([]byte("notice('hi')\n"))
	if err != nil {
		t.Fatalf("Failed to parse source: %v", err)
	}
	fns := src.Root.CollectByKind(parser.KindFunction, true)
	if len(fns) != 1 {
		t.Fatalf("Expected 1 function, got %d", len(fns))
	}
	if got := src.Text(fns[0]); got != "notice('hi')" {
		t.Errorf("Expected notice('hi'), got %q", got)
	}
	if got := src.Text(parser.Node{}); got != "" {
		t.Errorf("Expected empty text for nil node, got %q", got)
	}
}

func TestParseSourceContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ParseSourceContext(ctx, []byte("class a {}\nclass b {}\n"), parser.WithFile("a.pp"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if !strings.Contains(err.Error(), "a.pp") {
		t.Errorf("Expected the file name in %q", err)
	}
}
