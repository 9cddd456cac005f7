// Package field provides example [beam.FieldSampler] implementations:
// an analytic planar undulator and a trilinear-interpolated field-map
// table. Field models are collaborator-owned; the trackers only require
// the sampler signature and its read-only contract.
package field
