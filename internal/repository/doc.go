// Package repository implements the GitHub repository client behind ghmirror.
//
// Repository is bound to a single owner/name identity. It lists branches and
// caches their latest commit details for the lifetime of the value, fetches
// trees, commits, comparisons and the version.txt marker, restores missing
// files of a branch into a working directory and clones branch snapshots.
// CommandBuilder exposes those operations as Cobra commands.
package repository
