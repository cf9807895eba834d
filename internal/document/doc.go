// Package document implements the configuration document model: an ordered
// tree of maps, scalars and lists with dotted-path addressing, deep merge
// under replace/merge/overlay strategies, and structural diffing. All
// operations are pure; inputs are never mutated.
package document
