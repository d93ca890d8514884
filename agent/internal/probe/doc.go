// Package probe collects platform inventory into a types.Event.
//
// Two backends implement Prober:
//   - Runtime reads the Go runtime and host (OS, arch, CPU count, hostname),
//     optionally shelling out for details the runtime does not expose.
//   - NodeExporter scrapes a Prometheus node_exporter /metrics endpoint and
//     maps node_uname_info, node_os_info, node_cpu_seconds_total and
//     node_memory_MemTotal_bytes onto event fields.
//
// Every probed event starts with the same header fields: Type, ID (a session
// UUID stable for the prober's lifetime), Timestamp (Unix seconds), AppID and
// AppVersion. Anything a backend cannot determine is reported as Null.
//
// Command output is memoized per Commands instance; nothing is cached
// process-wide.
package probe
