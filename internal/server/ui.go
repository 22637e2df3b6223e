package server

import (
	_ "embed"
	"net/http"

	"github.com/labstack/echo"
)

//go:embed web/index.html
var indexHTML []byte

//go:embed web/app.js
var appJS []byte

func (s *Server) handleIndex(c echo.Context) error {
	return c.Blob(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (s *Server) handleAppJS(c echo.Context) error {
	return c.Blob(http.StatusOK, "application/javascript; charset=utf-8", appJS)
}
