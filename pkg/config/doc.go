// Package config provides configuration loading, validation, and hot-reload
// for the Titan generation queue.
//
// Configuration is loaded from a YAML file, merged with defaults, and
// optionally overridden by TITAN_* environment variables. The routing
// section supports hot reload via a file watcher so operators can switch
// the routing strategy without a restart.
package config
