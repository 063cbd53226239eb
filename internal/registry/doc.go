// Package registry maps task kind names to node factories. Pipeline
// descriptions refer to tasks by kind; the registry turns those references
// into runnable nodes.
package registry
