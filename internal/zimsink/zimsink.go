// Package zimsink implements convert.EntrySink as a single zip archive
// keyed by canonical path. Real ZIM encoding is explicitly out of this
// core's scope (spec §1); this is the stand-in bundle format used by the
// `convert` CLI subcommand until a dedicated ZIM writer is wired in.
package zimsink

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mholt/archiver/v3"

	"github.com/kiwix/warc2zim-rewriter/internal/convert"
)

// StaticAssetPath is the reserved bundle path for the Dynamic Helper asset
// (spec §6 "Reserved bundle paths"); Writer refuses to let a record collide
// with it.
const StaticAssetPath = "_zim_static/"

// Writer accumulates entries in memory and flushes them to a zip archive on
// Close. Entries and aliases are deduplicated first-writer-wins per spec §6.
type Writer struct {
	mu      sync.Mutex
	order   []string
	content map[string][]byte
	alias   map[string]string
}

// New returns an empty Writer.
func New() *Writer {
	return &Writer{
		content: make(map[string][]byte),
		alias:   make(map[string]string),
	}
}

// Put implements convert.EntrySink. mediaType is accepted for interface
// symmetry with spec §6 but unused: the stand-in zip format carries no
// content-type metadata per entry.
func (w *Writer) Put(canonicalPath string, content []byte, mediaType string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, taken := w.content[canonicalPath]; taken {
		return convert.ErrCollision
	}
	if _, aliased := w.alias[canonicalPath]; aliased {
		return convert.ErrCollision
	}
	if len(canonicalPath) >= len(StaticAssetPath) && canonicalPath[:len(StaticAssetPath)] == StaticAssetPath {
		return fmt.Errorf("zimsink: %q collides with reserved path %q", canonicalPath, StaticAssetPath)
	}

	w.content[canonicalPath] = content
	w.order = append(w.order, canonicalPath)
	return nil
}

// PutAlias implements convert.EntrySink. The stand-in format has no native
// symlink concept, so an alias is realized at Close by duplicating the
// target's bytes under the alias path once the target is known.
func (w *Writer) PutAlias(canonicalPath, aliasOf string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, taken := w.content[canonicalPath]; taken {
		return convert.ErrCollision
	}
	if _, aliased := w.alias[canonicalPath]; aliased {
		return convert.ErrCollision
	}
	if len(canonicalPath) >= len(StaticAssetPath) && canonicalPath[:len(StaticAssetPath)] == StaticAssetPath {
		return fmt.Errorf("zimsink: %q collides with reserved path %q", canonicalPath, StaticAssetPath)
	}

	w.alias[canonicalPath] = aliasOf
	w.order = append(w.order, canonicalPath)
	return nil
}

// PutStaticAsset writes the Dynamic Helper asset at its reserved path,
// bypassing the collision guard Put applies to record-derived entries.
func (w *Writer) PutStaticAsset(relPath string, content []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	path := StaticAssetPath + relPath
	w.content[path] = content
	w.order = append(w.order, path)
	return nil
}

// Close resolves aliases against accumulated content and writes the
// archive to dst.
func (w *Writer) Close(dst io.Writer) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	z := archiver.NewZip()
	if err := z.Create(dst); err != nil {
		return err
	}
	defer z.Close()

	for _, path := range w.order {
		data, ok := w.content[path]
		if !ok {
			target, isAlias := w.alias[path]
			if !isAlias {
				continue
			}
			data, ok = w.content[target]
			if !ok {
				// Alias target was itself dropped (e.g. skipped by pass 2
				// after pass 1 recorded it known); silently omit, matching
				// spec §7's EmptyPayload-style "silently dropped" policy.
				continue
			}
		}
		if err := writeZipEntry(z, path, data); err != nil {
			return err
		}
	}
	return nil
}

func writeZipEntry(z *archiver.Zip, path string, data []byte) error {
	info := zipFileInfo{name: path, size: int64(len(data))}
	return z.Write(archiver.File{
		FileInfo:   info,
		ReadCloser: io.NopCloser(bytes.NewReader(data)),
	})
}

// zipFileInfo is the minimal os.FileInfo archiver.File needs to name and
// size an in-memory entry; there is no backing file on disk.
type zipFileInfo struct {
	name string
	size int64
}

func (fi zipFileInfo) Name() string       { return fi.name }
func (fi zipFileInfo) Size() int64        { return fi.size }
func (fi zipFileInfo) Mode() os.FileMode  { return 0o644 }
func (fi zipFileInfo) ModTime() time.Time { return time.Time{} }
func (fi zipFileInfo) IsDir() bool        { return false }
func (fi zipFileInfo) Sys() interface{}   { return nil }
