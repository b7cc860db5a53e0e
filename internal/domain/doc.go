// Package domain defines the core business entities of the review engine:
// account cards and their scheduling state, the append-only review history,
// and the read-only knowledge and card-type catalogs used for rendering.
// It also holds the shared domain errors and the UTC day arithmetic that the
// daily review budget is built on.
package domain
