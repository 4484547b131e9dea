package document

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nerdneilsfield/go-doc-translator/internal/document/xmltree"
)

// ErrPartNotFound is returned when a required part is missing from a container.
var ErrPartNotFound = errors.New("part not found in container")

// FormatError reports a file that is not a readable OOXML container.
type FormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid document %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid document %s: %s", e.Path, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// container is an opened OOXML zip package. Parts marked dirty are
// re-serialised on save; every other entry, parsed or not, is copied through
// untouched.
type container struct {
	path   string
	reader *zip.Reader
	parts  map[string]*xmltree.Node
	dirty  map[string]bool
}

// openContainer loads the whole archive into memory so the source file is not
// held open while the document is edited.
func openContainer(src string) (*container, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src, err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &FormatError{Path: src, Reason: "failed to read zip archive", Err: err}
	}
	return &container{
		path:   src,
		reader: zr,
		parts:  make(map[string]*xmltree.Node),
		dirty:  make(map[string]bool),
	}, nil
}

// names lists the archive entries matching pattern (path.Match syntax).
func (c *container) names(pattern string) []string {
	var out []string
	for _, f := range c.reader.File {
		if ok, _ := path.Match(pattern, f.Name); ok {
			out = append(out, f.Name)
		}
	}
	return out
}

// part parses and caches an XML entry.
func (c *container) part(name string) (*xmltree.Node, error) {
	if n, ok := c.parts[name]; ok {
		return n, nil
	}
	for _, f := range c.reader.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		root, err := xmltree.Parse(data)
		if err != nil {
			return nil, &FormatError{Path: c.path, Reason: "failed to parse " + name, Err: err}
		}
		c.parts[name] = root
		return root, nil
	}
	return nil, fmt.Errorf("%s: %w", name, ErrPartNotFound)
}

// touch returns a callback marking the named part as modified.
func (c *container) touch(name string) func() {
	return func() {
		c.dirty[name] = true
	}
}

// save writes a new archive with the same entry order and compression.
func (c *container) save(dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := c.writeTo(out); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return os.Rename(tmp, dst)
}

func (c *container) writeTo(w io.Writer) error {
	zw := zip.NewWriter(w)

	for _, f := range c.reader.File {
		root, parsed := c.parts[f.Name]
		if !parsed || !c.dirty[f.Name] {
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("failed to copy %s: %w", f.Name, err)
			}
			continue
		}

		data, err := root.Bytes()
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", f.Name, err)
		}
		header := f.FileHeader
		header.Method = zip.Deflate
		header.Extra = nil
		fw, err := zw.CreateHeader(&header)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", f.Name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}

	return zw.Close()
}

// sortSlideNames orders "ppt/slides/slide10.xml" after "slide9.xml".
func sortSlideNames(names []string) {
	slices.SortFunc(names, func(a, b string) int {
		na, nb := slideNumber(a), slideNumber(b)
		if na != nb {
			return na - nb
		}
		return strings.Compare(a, b)
	})
}

func slideNumber(name string) int {
	base := strings.TrimSuffix(path.Base(name), ".xml")
	digits := strings.TrimLeft(base, "abcdefghijklmnopqrstuvwxyz")
	n := 0
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
