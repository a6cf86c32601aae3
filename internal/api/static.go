package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// handleFallback serves files from StaticDir and answers everything else
// with a JSON 404.
func (s *Server) handleFallback(w http.ResponseWriter, r *http.Request) {
	if s.static != nil && (r.Method == http.MethodGet || r.Method == http.MethodHead) && s.staticExists(r.URL.Path) {
		s.static.ServeHTTP(w, r)
		return
	}
	s.errorHandler.HandleNotFound(w, r)
}

func (s *Server) staticExists(urlPath string) bool {
	name := filepath.Join(s.cfg.StaticDir, filepath.FromSlash(path.Clean("/"+urlPath)))
	info, err := os.Stat(name)
	if err != nil {
		return false
	}
	if info.IsDir() {
		_, err = os.Stat(filepath.Join(name, "index.html"))
		return err == nil
	}
	return true
}
