package funcs

import (
	"bufio"
	"context"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ardnew/mung"

	"github.com/ardnew/atexpr/lang"
)

// target contains string identifiers for a target operating system and
// instruction set architecture.
type target struct {
	OS   string
	Arch string
}

func (t target) String() string { return t.Arch + "-" + t.OS }

// hostPlatform returns the host target using Go conventions.
func hostPlatform(env map[string]string) target {
	pick := func(def string, keys ...string) string {
		for _, k := range keys {
			if v, ok := env[k]; ok && v != "" {
				return v
			}
		}

		return def
	}

	return target{
		OS:   pick(runtime.GOOS, "GOHOSTOS", "GOOS"),
		Arch: pick(runtime.GOARCH, "GOHOSTARCH", "GOARCH"),
	}
}

// hostTarget returns the host target using GNU GCC/LLVM naming conventions.
func hostTarget(env map[string]string) target {
	t := hostPlatform(env)

	switch t.Arch {
	case "386":
		t.Arch = "i386"
	case "amd64":
		t.Arch = "x86_64"
	case "arm":
		arm, _, _ := strings.Cut(env["GOARM"], ",")
		switch arm = strings.TrimSpace(arm); arm {
		case "5", "6", "7":
			t.Arch = "armv" + arm
		}
	case "arm64":
		if t.OS != "darwin" {
			t.Arch = "aarch64"
		}
	case "mipsle":
		t.Arch = "mipsel"
	}

	return t
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}

	return name
}

func username() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}

	return u.Username
}

// loginShell reads SHELL, falling back to the passwd entry of the user.
func loginShell(env map[string]string) string {
	if shell, ok := env["SHELL"]; ok {
		return shell
	}

	name := username()
	if name == "" {
		return ""
	}

	f, err := os.Open("/etc/passwd")
	if err != nil {
		return ""
	}

	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		e := strings.Split(s.Text(), ":")
		if len(e) > 6 && e[0] == name {
			return e[6]
		}
	}

	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

func fileIsDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func fileIsRegular(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

func fileIsSymlink(path string) bool {
	info, err := os.Lstat(path)

	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathRel(from, to string) string {
	p, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return filepath.Join(from, to)
	}

	return p
}

// prefixList prepends items to a PATH-like list.
func prefixList(list string, items ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(items...),
	).String()
}

// prefixListIf is prefixList restricted to elements accepted by keep.
func prefixListIf(list string, keep func(string) bool, items ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(items...),
		mung.WithFilter(keep),
	).String()
}

// buildProcessEnvMap converts a "KEY=VALUE" string slice to a map.
// If envList is nil, os.Environ() is used.
func buildProcessEnvMap(envList []string) map[string]string {
	if envList == nil {
		envList = os.Environ()
	}

	result := make(map[string]string, len(envList))

	for _, entry := range envList {
		key, value, ok := strings.Cut(entry, "=")
		if ok {
			result[key] = value
		}
	}

	return result
}

func predicate(name, usage string, fn func(string) bool) *lang.Func {
	return &lang.Func{
		Name:  name,
		Usage: usage,
		Call: func(_ context.Context, args []any) (any, error) {
			return fn(text(args, 0)), nil
		},
	}
}

func constant(name, usage string, fn func() string) *lang.Func {
	return &lang.Func{
		Name:  name,
		Usage: usage,
		Call: func(context.Context, []any) (any, error) {
			return fn(), nil
		},
	}
}

func systemFuncs(c *config) []*lang.Func {
	return []*lang.Func{
		constant("hostname", "HOSTNAME()", hostname),
		constant("username", "USERNAME()", username),
		constant("shell", "SHELL() returns the login shell", func() string {
			return loginShell(c.env)
		}),
		constant("platform", "PLATFORM() returns GOARCH-GOOS", func() string {
			return hostPlatform(c.env).String()
		}),
		constant("target", "TARGET() returns the GNU target triple prefix, e.g. x86_64-linux", func() string {
			return hostTarget(c.env).String()
		}),
		constant("cwd", "CWD() returns the working directory", func() string {
			if cwd, err := os.Getwd(); err == nil {
				return cwd
			}

			return pathAbs(".")
		}),
		predicate("fileexists", "FILEEXISTS(path)", fileExists),
		predicate("isdir", "ISDIR(path)", fileIsDir),
		predicate("isfile", "ISFILE(path) reports a regular file", fileIsRegular),
		predicate("issymlink", "ISSYMLINK(path)", fileIsSymlink),
		{
			Name:  "pathabs",
			Usage: "PATHABS(path)",
			Call: func(_ context.Context, args []any) (any, error) {
				return pathAbs(text(args, 0)), nil
			},
		},
		{
			Name:  "pathrel",
			Usage: "PATHREL(from, to)",
			Call: func(_ context.Context, args []any) (any, error) {
				return pathRel(text(args, 0), text(args, 1)), nil
			},
		},
		{
			Name:  "pathprefixdirs",
			Usage: "PATHPREFIXDIRS(list, item...) is PATHPREFIX keeping only existing directories",
			Call: func(_ context.Context, args []any) (any, error) {
				items := make([]string, 0, len(args))
				for i := 1; i < len(args); i++ {
					items = append(items, text(args, i))
				}

				return prefixListIf(text(args, 0), fileIsDir, items...), nil
			},
		},
	}
}
