package internal

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/ini.v1"
)

// EntryKind distinguishes runnable applications from links.
type EntryKind int

const (
	EntryApplication EntryKind = iota
	EntryLink
)

// DesktopEntry is one XDG desktop file the launcher can start.
type DesktopEntry struct {
	Kind     EntryKind
	Name     string
	Exec     string
	URL      string
	Terminal bool
	Keywords []string
}

// applicationDirs lists the XDG application directories in precedence
// order.
func applicationDirs() []string {
	var dirs []string
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dataHome = filepath.Join(home, ".local", "share")
		}
	}
	if dataHome != "" {
		dirs = append(dirs, filepath.Join(dataHome, "applications"))
	}
	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}
	for _, d := range strings.Split(dataDirs, ":") {
		if d == "" {
			continue
		}
		dirs = append(dirs, filepath.Join(d, "applications"))
	}
	return dirs
}

// loadDesktopEntries walks the directories in order. A desktop file id
// seen in an earlier directory shadows the same id in later ones, even
// when the earlier file is hidden or unparsable.
func loadDesktopEntries(dirs []string) []DesktopEntry {
	seen := make(map[string]bool)
	var entries []DesktopEntry
	for _, root := range dirs {
		filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() || !strings.HasSuffix(path, ".desktop") {
				return nil
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = filepath.Base(path)
			}
			id := strings.ReplaceAll(rel, string(filepath.Separator), "-")
			if seen[id] {
				return nil
			}
			seen[id] = true
			entry, parseErr := parseDesktopFile(path)
			if parseErr != nil {
				Debug("Skipping %s: %v", path, parseErr)
				return nil
			}
			if entry != nil {
				entries = append(entries, *entry)
			}
			return nil
		})
	}
	return entries
}

// parseDesktopFile reads one desktop file. It returns (nil, nil) for
// entries that parse fine but should not be listed.
func parseDesktopFile(path string) (*DesktopEntry, error) {
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
	if err != nil {
		return nil, err
	}
	sec, err := f.GetSection("Desktop Entry")
	if err != nil {
		return nil, err
	}
	if sec.Key("Hidden").MustBool(false) || sec.Key("NoDisplay").MustBool(false) {
		return nil, nil
	}
	name := sec.Key("Name").String()
	if name == "" {
		return nil, fmt.Errorf("missing Name")
	}

	switch sec.Key("Type").String() {
	case "Application":
		execLine := sec.Key("Exec").String()
		if execLine == "" {
			return nil, fmt.Errorf("missing Exec")
		}
		var keywords []string
		for _, k := range strings.Split(sec.Key("Keywords").String(), ";") {
			if k = strings.TrimSpace(k); k != "" {
				keywords = append(keywords, k)
			}
		}
		return &DesktopEntry{
			Kind:     EntryApplication,
			Name:     name,
			Exec:     execLine,
			Terminal: sec.Key("Terminal").MustBool(false),
			Keywords: keywords,
		}, nil
	case "Link":
		url := sec.Key("URL").String()
		if url == "" {
			return nil, fmt.Errorf("missing URL")
		}
		return &DesktopEntry{Kind: EntryLink, Name: name, URL: url}, nil
	default:
		return nil, nil
	}
}

// stripFieldCodes removes the XDG %-field codes from an Exec line. The
// launcher never passes files or URLs to applications.
func stripFieldCodes(execLine string) string {
	var b strings.Builder
	for i := 0; i < len(execLine); i++ {
		if execLine[i] != '%' {
			b.WriteByte(execLine[i])
			continue
		}
		i++
		if i >= len(execLine) {
			break
		}
		switch execLine[i] {
		case '%':
			b.WriteByte('%')
		case 'f', 'F', 'u', 'U', 'd', 'D', 'n', 'N', 'i', 'c', 'k', 'v', 'm':
			// dropped
		default:
			b.WriteByte('%')
			b.WriteByte(execLine[i])
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// buildCommand expands a desktop entry into the shell command the
// executor runs.
func buildCommand(entry DesktopEntry, cfg LauncherConfig) string {
	switch entry.Kind {
	case EntryLink:
		opener := cfg.URLOpener
		if opener == "" {
			opener = "xdg-open"
		}
		return opener + " " + entry.URL
	default:
		cmd := stripFieldCodes(entry.Exec)
		if entry.Terminal && cfg.TermOpener != "" {
			return cfg.TermOpener + " " + cmd
		}
		if cfg.AppOpener != "" {
			return cfg.AppOpener + " " + cmd
		}
		return cmd
	}
}

// DesktopIndex loads and watches the XDG application directories.
type DesktopIndex struct {
	dirs []string
}

func NewDesktopIndex() *DesktopIndex {
	return &DesktopIndex{dirs: applicationDirs()}
}

// Load scans every directory.
func (ix *DesktopIndex) Load() []DesktopEntry {
	entries := loadDesktopEntries(ix.dirs)
	Debug("Indexed %d desktop entries", len(entries))
	return entries
}

// Watch rebuilds the index when desktop files change and delivers the
// result on out. Rebuilds are debounced since package managers touch
// many files in a burst.
func (ix *DesktopIndex) Watch(out chan<- []DesktopEntry, done <-chan struct{}) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		Warn("Desktop index watcher unavailable: %v", err)
		return
	}
	watched := 0
	for _, dir := range ix.dirs {
		if err := watcher.Add(dir); err == nil {
			watched++
		}
	}
	if watched == 0 {
		watcher.Close()
		return
	}

	go func() {
		defer watcher.Close()
		var pending <-chan time.Time
		for {
			select {
			case <-done:
				return
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				pending = time.After(500 * time.Millisecond)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				Warn("Desktop index watcher error: %v", err)
			case <-pending:
				pending = nil
				entries := ix.Load()
				select {
				case out <- entries:
				case <-done:
					return
				}
			}
		}
	}()
}
