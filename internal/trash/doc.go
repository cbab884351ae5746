// Package trash implements the safe side of deletion: files removed during
// review are moved into a trash directory that mirrors the photo tree, and
// every move is recorded in a SQLite journal so it can be undone. Permanent
// deletion bypasses both.
package trash
