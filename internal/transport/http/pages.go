package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

var landingPageHTML = `<!DOCTYPE html>
<html lang="tr">
<head>
<meta charset="UTF-8" />
<meta name="viewport" content="width=device-width, initial-scale=1.0" />
<title>İşçi Takip API</title>
<style>
body { font-family: Arial, sans-serif; margin: 0; background: linear-gradient(135deg,#1e3c72,#2a5298); color: #fff; min-height: 100vh; display: flex; flex-direction: column; }
header { flex: 1; padding: 60px 20px; text-align: center; }
a.button { display: inline-block; margin: 10px; padding: 12px 24px; font-size: 16px; border-radius: 4px; text-decoration: none; background: rgba(255,255,255,0.2); color: #fff; transition: background 0.3s; }
a.button:hover { background: rgba(255,255,255,0.4); }
footer { text-align: center; padding: 20px; font-size: 14px; opacity: 0.8; }
code { background: rgba(0,0,0,0.3); padding: 2px 6px; border-radius: 3px; }
</style>
</head>
<body>
<header>
  <h1>İşçi Takip API</h1>
  <p>Saha ekipleri için kayıt, doğrulama ve oturum servisi.</p>
  <p>Kayıt: <code>POST /api/v1/auth/register</code> &middot; Giriş: <code>POST /api/v1/auth/login</code></p>
  <a class="button" href="/swagger/index.html">API Dokümantasyonu</a>
  <a class="button" href="/health">Servis Durumu</a>
</header>
<footer>İşçi Takip &middot; Bavaxe</footer>
</body>
</html>`

// RegisterPages serves the static landing page at the root path.
func RegisterPages(e *echo.Echo) {
	e.GET("/", func(c echo.Context) error {
		return c.HTML(http.StatusOK, landingPageHTML)
	})
}
