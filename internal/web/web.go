package web

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed static/index.html
var indexHTML []byte

const fallbackHTML = `<html>
<body>
<h1>AI Tech Career Path Finder</h1>
<p>The questionnaire page is not available in this build.</p>
</body>
</html>`

// Index serves the questionnaire page.
func Index(c *gin.Context) {
	page := indexHTML
	if len(page) == 0 {
		page = []byte(fallbackHTML)
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}
