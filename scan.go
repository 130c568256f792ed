package fontconfig

import (
	"encoding/xml"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// SystemDirs returns the platform's font directories. Directories that do not
// exist are included; enumeration skips them silently.
func SystemDirs() []string {
	var dirs []string
	switch runtime.GOOS {
	case "aix", "dragonfly", "freebsd", "illumos", "linux", "nacl", "netbsd", "openbsd", "solaris":
		dirs = []string{
			"/usr/share/fonts",
			"/usr/local/share/fonts",
		}
		if home := os.Getenv("HOME"); home != "" {
			dirs = append(dirs, filepath.Join(home, ".fonts"))
			dirs = append(dirs, filepath.Join(home, ".local/share/fonts"))
		}
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dirs = append(dirs, filepath.Join(xdgDataHome, "fonts"))
		}
		for _, dir := range filepath.SplitList(os.Getenv("XDG_DATA_DIRS")) {
			if dir != "" {
				dirs = append(dirs, filepath.Join(dir, "fonts"))
			}
		}
		dirs = append(dirs, fontsConfDirs("/etc/fonts/fonts.conf")...)
	case "android":
		dirs = []string{
			"/system/fonts",
			"/system/font",
			"/data/fonts",
		}
	case "darwin":
		dirs = []string{
			"/System/Library/Fonts",
			"/Library/Fonts",
			"/Network/Library/Fonts",
		}
		if home := os.Getenv("HOME"); home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
	case "ios":
		dirs = []string{
			"/System/Library/Fonts",
			"/System/Library/Fonts/Cache",
		}
	case "plan9":
		dirs = []string{
			"/lib/font",
		}
		if home := os.Getenv("HOME"); home != "" {
			dirs = append(dirs, filepath.Join(home, "lib", "font"))
		}
	case "windows":
		sysRoot := os.Getenv("SYSTEMROOT")
		if sysRoot == "" {
			sysRoot = os.Getenv("WINDIR")
		}
		if sysRoot != "" {
			dirs = append(dirs, filepath.Join(sysRoot, "Fonts"))
		}
		if profile := os.Getenv("USERPROFILE"); profile != "" {
			dirs = append(dirs, filepath.Join(profile, "AppData", "Local", "Microsoft", "Windows", "Fonts"))
		}
	case "js", "wasip1":
		// no filesystem conventions; fonts must be registered in-memory
	}
	return uniqueStrings(dirs)
}

// fontsConfDirs extracts the <dir> entries from a fontconfig configuration
// file, following <include> directives into conf.d fragments. Failures return
// the directories found so far.
func fontsConfDirs(confPath string) []string {
	var dirs []string
	visited := map[string]bool{}
	confs := []string{confPath}

	for len(confs) != 0 {
		path := confs[0]
		confs = confs[1:]
		if visited[path] || 256 < len(visited) {
			continue
		}
		visited[path] = true

		info, err := os.Stat(path)
		if err != nil {
			continue
		} else if info.IsDir() {
			// a conf.d directory: include its numbered fragments
			entries, err := os.ReadDir(path)
			if err != nil {
				continue
			}
			for _, entry := range entries {
				name := entry.Name()
				if !entry.IsDir() && strings.HasSuffix(name, ".conf") && name != "" && '0' <= name[0] && name[0] <= '9' {
					confs = append(confs, filepath.Join(path, name))
				}
			}
			continue
		}

		b, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		confDirs, includes := parseFontsConf(b)
		dirs = append(dirs, confDirs...)
		confs = append(confs, includes...)
	}
	return dirs
}

// parseFontsConf extracts <dir> and <include> elements from fonts.conf XML,
// resolving the prefix attribute and leading tildes.
func parseFontsConf(b []byte) (dirs, includes []string) {
	decoder := xml.NewDecoder(strings.NewReader(string(b)))
	decoder.Strict = false

	var element, prefix string
	var text strings.Builder
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "dir" || t.Name.Local == "include" {
				element = t.Name.Local
				prefix = ""
				text.Reset()
				for _, attr := range t.Attr {
					if attr.Name.Local == "prefix" {
						prefix = attr.Value
					}
				}
			}
		case xml.CharData:
			if element != "" {
				text.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local != element {
				continue
			}
			path := resolveConfPath(prefix, strings.TrimSpace(text.String()), element == "include")
			if path != "" {
				if element == "dir" {
					dirs = append(dirs, path)
				} else {
					includes = append(includes, path)
				}
			}
			element = ""
		}
	}
	return dirs, includes
}

// resolveConfPath applies fontconfig path resolution: tilde expansion and the
// cwd/default/xdg prefixes. Include paths resolve xdg against the config home,
// font directories against the data home.
func resolveConfPath(prefix, path string, isInclude bool) string {
	if path == "" {
		return ""
	}
	home := os.Getenv("HOME")
	if strings.HasPrefix(path, "~") {
		if home == "" {
			return ""
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	switch prefix {
	case "":
		return path
	case "cwd", "default":
		return filepath.Join(".", path)
	case "xdg":
		if isInclude {
			if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
				return filepath.Join(xdg, path)
			} else if home != "" {
				return filepath.Join(home, ".config", path)
			}
		} else {
			if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
				return filepath.Join(xdg, path)
			} else if home != "" {
				return filepath.Join(home, ".local/share", path)
			}
		}
	}
	return ""
}

// ByteSource produces the bytes of one candidate font file.
type ByteSource interface {
	// Path returns the human-readable source label.
	Path() string
	// ReadAll returns the file contents.
	ReadAll() ([]byte, error)
}

// SourceEnumerator yields candidate font files. Enumeration failures are
// recorded on trace as warnings, never returned.
type SourceEnumerator interface {
	Enumerate(trace *Trace) []ByteSource
}

type fileSource string

func (f fileSource) Path() string {
	return string(f)
}

func (f fileSource) ReadAll() ([]byte, error) {
	return os.ReadFile(string(f))
}

// DirEnumerator walks font directories recursively and yields files with font
// extensions. Directories reached twice (through symlinks) are walked once.
type DirEnumerator struct {
	Dirs []string
}

// Enumerate returns the font files found under the enumerator's directories,
// sorted by path.
func (e DirEnumerator) Enumerate(trace *Trace) []ByteSource {
	var paths []string
	walkedDirs := map[string]bool{}

	for _, dir := range e.Dirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		err := fs.WalkDir(os.DirFS(dir), ".", func(path string, d fs.DirEntry, err error) error {
			path = filepath.Join(dir, path)
			if err != nil {
				trace.add(LevelWarning, path, IOFailure, "", err.Error())
				return nil
			} else if d.IsDir() {
				canonical := canonicalPath(path)
				if walkedDirs[canonical] {
					return filepath.SkipDir
				}
				walkedDirs[canonical] = true
				return nil
			} else if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
				return nil
			}
			if isFontFile(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			trace.add(LevelWarning, dir, IOFailure, "", err.Error())
		}
	}

	sort.Strings(paths)
	sources := make([]ByteSource, 0, len(paths))
	for _, path := range paths {
		sources = append(sources, fileSource(path))
	}
	return sources
}

func isFontFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttf", ".otf", ".ttc", ".otc", ".woff", ".woff2", ".dfont":
		return true
	}
	return false
}

func uniqueStrings(list []string) []string {
	seen := map[string]bool{}
	unique := list[:0]
	for _, s := range list {
		if !seen[s] {
			seen[s] = true
			unique = append(unique, s)
		}
	}
	return unique
}
