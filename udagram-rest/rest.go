// Package udagramrest provides REST API utilities with CORS support and common
// middleware, and the upload API that feeds the image pipeline.
package udagramrest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	udagramcli "github.com/AmbienceDigitals/udagram-go/udagram-cli"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/savaki/apigateway"
)

func Middlewares(service udagramcli.Service, routes chi.Router) chi.Router {
	routes.Use(
		withResourcePolicyHeaders,
		withCORS(),
		withLogger(udagramcli.Logger(service)),
		middleware.Recoverer,
	)
	return routes
}

func Webserver(service udagramcli.Service, routes chi.Router) error {
	logger := udagramcli.Logger(service)

	if udagramcli.CommonOpts.Console {
		logger.Info().Int("port", udagramcli.CommonOpts.Port).Msg("starting http server")
		server := &http.Server{
			Addr:              fmt.Sprintf(":%v", udagramcli.CommonOpts.Port),
			Handler:           routes,
			ReadHeaderTimeout: 10 * time.Second,
		}
		return server.ListenAndServe()
	}

	lambda.Start(apigateway.Wrap(routes, udagramcli.CommonOpts.Env))
	return nil
}

func withResourcePolicyHeaders(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Add("cross-origin-resource-policy", "cross-origin")
		handler.ServeHTTP(w, req)
	})
}

func withCORS() func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
	})
}

func withLogger(logger zerolog.Logger) func(handler http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			l := logger.With().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Logger()
			req = req.WithContext(l.WithContext(req.Context()))
			handler.ServeHTTP(w, req)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
