package api

import (
	"net/http"

	"kuasap-backend/lib/telemetry"
	"kuasap-backend/services/ap"
	"kuasap-backend/services/news"

	"connectrpc.com/connect"
)

var tracer = telemetry.Tracer("kuasap.services.api")

// Server exposes the ap and news services over REST and connect.
type Server struct {
	ap   *ap.Service
	news *news.Service
}

func NewServer(apService *ap.Service, newsService *news.Service) *Server {
	return &Server{ap: apService, news: newsService}
}

// Handler serves the REST routes under /latest and /v2 and the connect
// procedures under their procedure paths.
func (s *Server) Handler(opts ...connect.HandlerOption) http.Handler {
	rest := s.restMux()

	mux := http.NewServeMux()
	mux.Handle("/latest/", http.StripPrefix("/latest", rest))
	mux.Handle("/v2/", http.StripPrefix("/v2", rest))
	for path, handler := range s.rpcHandlers(opts...) {
		mux.Handle(path, handler)
	}
	return logRequests(mux)
}
