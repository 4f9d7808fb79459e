package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"smartrentals/pkg/logger"
	"strings"

	"github.com/julienschmidt/httprouter"
)

const SignatureHeader = "X-Signature-256"

// SignedWebhook verifies the hex HMAC-SHA256 of the raw body, optionally
// prefixed with "sha256=", before handing the request to h.
func SignedWebhook(secret string, log *logger.Logger, h httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if secret == "" {
			rejectWebhook(w, log, r, "Webhook secret not configured")
			return
		}

		signature := extractSignature(r)
		if signature == "" {
			rejectWebhook(w, log, r, "Missing "+SignatureHeader+" header")
			return
		}

		body, err := readAndRestoreBody(r)
		if err != nil {
			rejectWebhook(w, log, r, "Failed to read request body")
			return
		}

		if !verifySignature(body, signature, secret) {
			rejectWebhook(w, log, r, "Invalid webhook signature")
			return
		}

		h(w, r, ps)
	}
}

// Sign returns the signature a webhook sender attaches for body.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func extractSignature(r *http.Request) string {
	header := r.Header.Get(SignatureHeader)
	if signature, found := strings.CutPrefix(header, "sha256="); found {
		return signature
	}
	return header
}

func readAndRestoreBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewBuffer(body))

	return body, nil
}

func verifySignature(body []byte, receivedSignature string, secret string) bool {
	expected := strings.TrimPrefix(Sign(body, secret), "sha256=")
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(receivedSignature)))
}

func rejectWebhook(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string) {
	log.Warn("Webhook verification failed",
		"request_id", requestID(r),
		"reason", reason,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)
	writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
}
