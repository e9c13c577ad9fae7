// Package tasks orchestrates playlist sync runs.
//
// The [PlaylistSyncer] drives one playlist from feed to server: fetch an
// over-sized candidate list, acquire each candidate (library hit, catalog
// match + download, or skip to the next backup), wait for the library scan
// to index new files, resolve them to song ids, and publish the final list
// as a server-side playlist. Long-running operations report progress over a
// channel that slow consumers cannot block.
package tasks
