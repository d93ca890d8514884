// Package config loads and watches the agent configuration file (config.yaml).
//
// Top-level types:
//   - Config{Agent}: full config tree parsed from YAML
//   - AgentConfig: endpoint, user_agent, timeout, strict_tls, ca_file,
//     format, interval, log_level, log_format, app, probe
//   - AppConfig: id and version of the reporting application
//   - ProbeConfig: source (runtime|node_exporter), node_exporter_url, commands
//
// Load(path) reads the YAML file, applies defaults (25s timeout, strict TLS,
// json format, runtime probe), then validates required fields and enums.
// AgentConfig.Transmission() hands the transmitter an immutable snapshot for
// one send.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. It handles the rename→create pattern
// used by atomic-save editors (vim, VS Code) by re-adding the watch after
// a reload.
package config
