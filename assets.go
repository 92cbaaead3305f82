package crudform

import (
	"io/fs"

	"github.com/goliatone/go-crudform/pkg/renderers/vanilla"
)

// AssetsFS exposes the stylesheet used by the vanilla renderer so Go
// applications can serve it next to rendered pages.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(crudform.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	return vanilla.AssetsFS()
}
