// File: utils.go
package main

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"

	"textCaptchaAuth/captcha"
)

// clientIP is the host part of RemoteAddr. Proxy headers are resolved into
// RemoteAddr by middleware.RealIP before handlers run.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// httpStatus maps a generation error to a response code.
func httpStatus(err error) int {
	if errors.Is(err, captcha.ErrInvalidConfig) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
