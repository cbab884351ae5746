// Package server hosts the review HTTP surface: the JSON API under /api,
// raw image bytes under /img/{id}, and the embedded single-page UI at the
// root. A file lock on the photo root keeps concurrent reviewers out.
package server
