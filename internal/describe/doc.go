// Package describe loads pipeline descriptions from HCL files and builds
// executable task graphs from them. A description names tasks by registered
// kind and wires them with plain and guarded edges; the registry supplies the
// node implementations.
package describe
