// Package composer implements the task-graph orchestration core: leaf task
// nodes and composite graph nodes bound to a shared execution context through
// named ports, a concurrent executor that resolves dependency and conditional
// edges, and a sub-graph adapter that lets a whole nested graph participate
// in an outer graph as a single node.
//
// The engine is agnostic to what leaf tasks compute. Everything a task reads
// or writes travels through the Context, addressed by string keys that are
// bound to the task's declared ports at graph-assembly time. The Context is
// the only structure mutated by more than one node; all other state is owned
// by a single node for the duration of its run.
package composer
