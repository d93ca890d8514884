// Package receiver implements the dev collector's HTTP endpoints.
//
// POST /collect accepts a `data=<payload>` form body as sent by the agent,
// detects the wire format from its first bytes, counts the events and keeps
// the latest payload per User-Agent in the store. Any post carrying the
// prefix and a recognisable format gets 200, even when the payload itself
// does not parse. GET /payloads lists the live entries.
package receiver
