package funcs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPaths(t *testing.T) {
	t.Parallel()

	runEvalCases(t, []evalCase{
		{
			"pathparse",
			"@PATHPARSE('/home/user/file.txt')",
			nil,
			map[string]any{
				"root": "/",
				"dir":  "/home/user",
				"base": "file.txt",
				"ext":  ".txt",
				"name": "file",
			},
		},
		{"pathparse component", "@PATHPARSE('/home/user/file.txt', ext)", nil, ".txt"},
		{"dotfile has no extension", "@PATHPARSE('.bashrc', name)", nil, ".bashrc"},
		{"relative root", "@PATHPARSE('a/b', root)", nil, ""},
		{"pathnormalize", "@PATHNORMALIZE('/a/b/../c/./d')", nil, "/a/c/d"},
		{"pathjoin", "@PATHJOIN(a, b, c)", nil, "a/b/c"},
		{"pathjoin cleans", "@PATHJOIN('/a/', '../b')", nil, "/b"},
		{
			"urlparse hostname",
			"@URLPARSE('https://u:p@example.com:8080/x/y?q=1#frag', hostname)",
			nil,
			"example.com",
		},
		{"urlparse port", "@URLPARSE('https://example.com:8080/', port)", nil, "8080"},
		{"urlparse search", "@URLPARSE('https://example.com/p?q=1&r=2', search)", nil, "?q=1&r=2"},
		{
			"urlparse query",
			"@URLPARSE('https://example.com/p?q=1&q=2&r=x', query)",
			nil,
			map[string]any{"q": []any{"1", "2"}, "r": "x"},
		},
		{"urlparse credentials", "@URLPARSE('ftp://ann:pw@host/', password)", nil, "pw"},
		{"urlparse fragment", "@URLPARSE('https://h/#top', hash)", nil, "#top"},
	})
}

func TestPaths_Errors(t *testing.T) {
	expectError(t, "@PATHPARSE('/a', drive)", nil, ErrArgument)
	expectError(t, "@URLPARSE('http://[::1', host)", nil, ErrArgument)
}

func TestPathPrefix(t *testing.T) {
	sep := string(os.PathListSeparator)
	list := "/usr/bin" + sep + "/bin"

	got, err := testEngine().Interpret(t.Context(), "@PATHPREFIX('"+list+"', '/opt/bin')", nil)
	if err != nil {
		t.Fatalf("PATHPREFIX error: %v", err)
	}

	s, _ := got.(string)
	if !strings.HasPrefix(s, "/opt/bin"+sep) {
		t.Errorf("expected /opt/bin first, got %q", s)
	}

	if !strings.Contains(s, "/usr/bin") {
		t.Errorf("expected original entries preserved, got %q", s)
	}
}

func TestSystem(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")

	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	link := filepath.Join(dir, "link")
	if err := os.Symlink(file, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	missing := filepath.Join(dir, "missing")

	runEvalCases(t, []evalCase{
		{"platform", "@PLATFORM()", nil, "arm64-plan9"},
		{"target", "@TARGET()", nil, "aarch64-plan9"},
		{"shell", "@SHELL()", nil, "/bin/zsh"},
		{"isdir", "@ISDIR('" + dir + "')", nil, true},
		{"isdir on file", "@ISDIR('" + file + "')", nil, false},
		{"isfile", "@ISFILE('" + file + "')", nil, true},
		{"fileexists", "@FILEEXISTS('" + file + "')", nil, true},
		{"fileexists missing", "@FILEEXISTS('" + missing + "')", nil, false},
		{"issymlink", "@ISSYMLINK('" + link + "')", nil, true},
		{"pathrel", "@PATHREL('/a/b', '/a/c/d')", nil, "../c/d"},
		{"pathabs", "@PATHABS('/x/../y')", nil, "/y"},
	})
}

func TestHostTarget(t *testing.T) {
	tests := []struct {
		env  map[string]string
		want string
	}{
		{map[string]string{"GOOS": "linux", "GOARCH": "amd64"}, "x86_64-linux"},
		{map[string]string{"GOOS": "linux", "GOARCH": "386"}, "i386-linux"},
		{map[string]string{"GOOS": "linux", "GOARCH": "arm", "GOARM": "7,softfloat"}, "armv7-linux"},
		{map[string]string{"GOOS": "darwin", "GOARCH": "arm64"}, "arm64-darwin"},
		{map[string]string{"GOHOSTOS": "windows", "GOOS": "linux", "GOARCH": "mipsle"}, "mipsel-windows"},
	}

	for _, tt := range tests {
		if got := hostTarget(tt.env).String(); got != tt.want {
			t.Errorf("hostTarget(%v) = %q, want %q", tt.env, got, tt.want)
		}
	}
}
