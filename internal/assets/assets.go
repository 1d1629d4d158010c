// Package assets maps the image references stored in rounds to URLs under
// /images and serves the image directory.
package assets

import (
	"io/fs"
	"net/http"
	"path"
)

// URL prefix the image directory is served under.
const Prefix = "/images"

// Subdirectories of the image directory, one per image kind.
const (
	KindGames  = "games"
	KindMaps   = "maps"
	KindCovers = "covers"
)

// Image is what the client renders. A placeholder has no URL; the client
// draws its own stand-in.
type Image struct {
	URL         string `json:"url,omitempty"`
	Placeholder bool   `json:"placeholder"`
}

type Resolver struct {
	fsys fs.FS
}

// NewResolver resolves references against fsys, typically os.DirFS of the
// configured asset directory. A nil fsys marks every image as a placeholder.
func NewResolver(fsys fs.FS) *Resolver {
	return &Resolver{fsys: fsys}
}

func (r *Resolver) Screenshot(ref string) Image { return r.resolve(KindGames, ref) }
func (r *Resolver) Map(ref string) Image        { return r.resolve(KindMaps, ref) }
func (r *Resolver) Cover(ref string) Image      { return r.resolve(KindCovers, ref) }

func (r *Resolver) resolve(kind, ref string) Image {
	if ref == "" || r.fsys == nil {
		return Image{Placeholder: true}
	}
	name := path.Join(kind, ref)
	if !fs.ValidPath(name) || path.Dir(name) != kind {
		return Image{Placeholder: true}
	}
	info, err := fs.Stat(r.fsys, name)
	if err != nil || info.IsDir() {
		return Image{Placeholder: true}
	}
	return Image{URL: Prefix + "/" + name}
}

// Handler serves the image directory. Mount it under Prefix.
func (r *Resolver) Handler() http.Handler {
	if r.fsys == nil {
		return http.NotFoundHandler()
	}
	return http.StripPrefix(Prefix, http.FileServerFS(r.fsys))
}
