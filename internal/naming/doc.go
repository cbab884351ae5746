// Package naming derives the keys used to group duplicate-candidate files:
// a case-folded stem with the " (N)" copy suffix stripped, and the parent
// folder relative to the scan root. Grouping never crosses folder boundaries,
// so both keys together identify a group.
package naming
