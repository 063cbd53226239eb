// Package app wires the composer's pieces into a runnable application:
// configuration, logging, the task kind registry, loaded pipeline
// descriptions, and the metrics endpoint.
package app
