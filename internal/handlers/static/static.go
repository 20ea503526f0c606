package handlers_static

import (
	"crypto/sha256"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	htmlmin "github.com/tdewolff/minify/v2/html"
)

const (
	IndexFile  = "index.html"
	ResumeFile = "resume.pdf"
)

// StaticHandler sert la page d'accueil minifiée et le CV local
type StaticHandler struct {
	dir   string
	index []byte
	etag  string
}

// NewStaticHandler charge et minifie index.html une seule fois
func NewStaticHandler(dir string) *StaticHandler {
	sh := &StaticHandler{dir: dir}

	content, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("Landing page not found")
		return sh
	}

	m := minify.New()
	m.AddFunc("text/html", htmlmin.Minify)
	minified, err := m.Bytes("text/html", content)
	if err != nil {
		log.Warn().Err(err).Msg("HTML minification failed, serving raw page")
		minified = content
	}

	sh.index = minified
	sh.etag = generateETag(minified)
	return sh
}

// Fonction helper pour générer un ETag
func generateETag(content []byte) string {
	hash := sha256.Sum256(content)
	return fmt.Sprintf(`"%x"`, hash[:16])
}

func (sh *StaticHandler) Index(c *gin.Context) {
	if sh.index == nil {
		c.String(http.StatusNotFound, "Not Found")
		return
	}

	c.Header("ETag", sh.etag)
	c.Header("Cache-Control", "public, max-age=300")
	if c.GetHeader("If-None-Match") == sh.etag {
		c.Status(http.StatusNotModified)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", sh.index)
}

func (sh *StaticHandler) Resume(c *gin.Context) {
	c.File(filepath.Join(sh.dir, ResumeFile))
}
