// Package transmit delivers one serialized payload to the collection
// endpoint, once, best-effort.
//
// Send POSTs "data=<payload>" as application/x-www-form-urlencoded with the
// configured User-Agent. Keep-alive and HTTP/2 are disabled so every call
// uses its own short-lived connection. The response body is drained and
// discarded (logged at debug level); the status code is not inspected.
//
// Failures of any kind (malformed endpoint, DNS, refused connection,
// timeout, TLS) are logged as a single line and swallowed: Send never
// returns an error and never retries.
//
// TLS validation is chosen per call from Config.StrictTLS and applied to
// that call's transport only. Nothing process-wide is modified.
package transmit
