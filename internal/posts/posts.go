// Package posts answers whether a rendered post exists for a schedule entry.
package posts

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"golang.org/x/net/html"

	appLog "blogsched/internal/log"
)

// DefaultExtensions are tried when none are configured.
var DefaultExtensions = []string{".html"}

// Checker reports whether a post file with the given stem exists.
type Checker interface {
	Exists(stem string) bool
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(stem string) bool

func (f CheckerFunc) Exists(stem string) bool { return f(stem) }

// Dir checks a posts directory.
type Dir struct {
	fsys       fs.FS
	extensions []string
}

// NewDir returns a checker rooted at fsys. Extensions include the leading dot.
func NewDir(fsys fs.FS, extensions ...string) *Dir {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	exts := make([]string, 0, len(extensions))
	for _, e := range extensions {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return &Dir{fsys: fsys, extensions: exts}
}

// OpenDir is NewDir over an OS directory.
func OpenDir(dir string, extensions ...string) *Dir {
	return NewDir(os.DirFS(dir), extensions...)
}

// Exists reports whether {stem}{ext} is a regular file for any configured
// extension. Stat errors other than not-exist are logged and treated as
// absent so one unreadable file cannot block a whole run.
func (d *Dir) Exists(stem string) bool {
	if stem == "" {
		return false
	}
	for _, ext := range d.extensions {
		name := stem + ext
		st, err := fs.Stat(d.fsys, name)
		switch {
		case err == nil:
			if st.Mode().IsRegular() {
				return true
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			appLog.Error("post stat failed; treating as absent", err, "file", name)
		}
	}
	return false
}

// Titles returns the <title> text of every post in the directory, in
// directory order. Unreadable files are skipped.
func (d *Dir) Titles() ([]string, error) {
	entries, err := fs.ReadDir(d.fsys, ".")
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(entries))
	for _, ent := range entries {
		if ent.IsDir() || !slices.Contains(d.extensions, path.Ext(ent.Name())) {
			continue
		}
		f, err := d.fsys.Open(ent.Name())
		if err != nil {
			appLog.Error("post open failed", err, "file", ent.Name())
			continue
		}
		title, err := extractTitle(f)
		f.Close()
		if err != nil {
			appLog.Error("post title parse failed", err, "file", ent.Name())
			continue
		}
		if title != "" {
			titles = append(titles, title)
		}
	}
	return titles, nil
}

func extractTitle(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	inTitle := false
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return strings.TrimSpace(b.String()), nil
			}
			return "", z.Err()
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) == "title" {
				inTitle = true
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "title" && inTitle {
				return strings.TrimSpace(b.String()), nil
			}
		case html.TextToken:
			if inTitle {
				b.Write(z.Text())
			}
		}
	}
}
