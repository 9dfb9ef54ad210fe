package server

import (
	"bytes"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"
)

// ReloadScript connects a served page to the live reload endpoint.
const ReloadScript = `<script>(function(){` +
	`var ws=new WebSocket((location.protocol==="https:"?"wss://":"ws://")+location.host+"` + LiveReloadPath + `");` +
	`ws.onmessage=function(e){if(e.data==="` + ReloadMessage + `"){location.reload();}};` +
	`})();</script>`

// InjectReloadScript inserts ReloadScript before the closing body tag, or
// appends it when the page has none.
func InjectReloadScript(page []byte) []byte {
	i := bytes.LastIndex(bytes.ToLower(page), []byte("</body>"))
	if i < 0 {
		return append(append([]byte(nil), page...), ReloadScript...)
	}
	out := make([]byte, 0, len(page)+len(ReloadScript))
	out = append(out, page[:i]...)
	out = append(out, ReloadScript...)
	out = append(out, page[i:]...)
	return out
}

// staticHandler serves the generated site from root. HTML pages get the
// reload script when inject is set; files on disk are never modified.
type staticHandler struct {
	root      http.Dir
	index     string
	inject    bool
	files     http.Handler
	htmlTypes map[string]bool
}

func newStaticHandler(root, index string, inject bool) *staticHandler {
	dir := http.Dir(root)
	return &staticHandler{
		root:      dir,
		index:     index,
		inject:    inject,
		files:     http.FileServer(dir),
		htmlTypes: map[string]bool{".html": true, ".htm": true},
	}
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := path.Clean("/" + r.URL.Path)
	if info, err := h.stat(name); err == nil && info.IsDir() {
		if !strings.HasSuffix(r.URL.Path, "/") {
			http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
			return
		}
		name = path.Join(name, h.index)
	}

	if !h.inject || !h.htmlTypes[strings.ToLower(path.Ext(name))] {
		h.files.ServeHTTP(w, r)
		return
	}

	f, err := h.root.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	page, err := io.ReadAll(f)
	if err != nil {
		http.Error(w, "Failed to read page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(InjectReloadScript(page)))
}

func (h *staticHandler) stat(name string) (fs.FileInfo, error) {
	f, err := h.root.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Stat()
}
