// @title           API Marketplace
// @version         1.0
// @description     Каталог API-эндпоинтов с подписками, тарифами и платежами.
// @BasePath        /api/v1

package main

import "apimarket_backend/internal/app"

func main() {
	app.Run()
}
