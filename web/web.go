// Package web holds the HTML views rendered by the HTTP layer.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
)

//go:embed views/*.html
var views embed.FS

// NewEngine returns the template engine over the embedded views. Templates
// are addressed by file name without extension, e.g. "login".
func NewEngine() fiber.Views {
	sub, err := fs.Sub(views, "views")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}
