package http_api

// routes sets up the routes for the HTTP server.
func (s *HTTPServer) routes() {
	s.router.POST("/api/v1/transfer", s.submitTransfer)
	s.router.GET("/api/v1/transfers", s.listTransfers)
	s.router.GET("/api/v1/assets", s.listAssets)
	s.router.GET("/api/v1/failures", s.listFailures)
	s.router.GET("/healthz", s.health)
}
