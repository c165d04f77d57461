package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matzehuels/scenebox/pkg/cache"
	pkgio "github.com/matzehuels/scenebox/pkg/io"
	"github.com/matzehuels/scenebox/pkg/scene"
)

// Load decodes the scene named by opts and builds its object tree.
func Load(opts Options) (*pkgio.Document, *scene.Scene, error) {
	var (
		doc *pkgio.Document
		err error
	)
	if opts.Path != "" {
		doc, err = pkgio.Import(opts.Path, opts.Vars)
	} else {
		doc, err = pkgio.Read(bytes.NewReader(opts.Source), opts.SceneFormat, opts.Vars)
	}
	if err != nil {
		return nil, nil, err
	}
	s, err := pkgio.Build(doc, pkgio.BuildOptions{BaseDir: baseDir(opts), Strict: opts.Strict})
	if err != nil {
		return nil, nil, err
	}
	return doc, s, nil
}

func baseDir(opts Options) string {
	if opts.BaseDir != "" || opts.Path == "" {
		return opts.BaseDir
	}
	return filepath.Dir(opts.Path)
}

// SceneHash identifies a scene for caching: the decoded document plus the
// size and modification time of every image it references, so editing an
// image invalidates cached renders.
func SceneHash(doc *pkgio.Document, opts Options) string {
	h := pkgio.Hash(doc)
	var stamps []string
	for _, n := range doc.Nodes {
		if n.Kind != pkgio.KindImage {
			continue
		}
		fi, err := os.Stat(filepath.Join(baseDir(opts), n.Path))
		if err != nil {
			continue
		}
		stamps = append(stamps, fmt.Sprintf("%s:%d:%d", n.Path, fi.Size(), fi.ModTime().UnixNano()))
	}
	if len(stamps) == 0 {
		return h
	}
	return cache.Hash(fmt.Appendf(nil, "%s%q", h, stamps))
}
