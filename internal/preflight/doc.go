// Package preflight validates the environment before the review server
// starts: the photo root must exist and be accessible, and the volume must
// have working space for trash moves.
package preflight
