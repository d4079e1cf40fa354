// Package daemon wires the toastd components together: configuration
// hot reload, the display manager, the trigger file poller and dispatch
// tracking.
package daemon
