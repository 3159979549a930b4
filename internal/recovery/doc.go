// Package recovery drives a PIN scan end to end: prepare the SYSTEM
// volume, locate the parental-control save, scan it, and release the
// volume.
//
// Key derivation, partition table parsing and BIS mounting are behind
// the Preparer interface. DirPreparer covers the common case of a SYSTEM
// partition that is already mounted or extracted to a directory.
//
// Watcher adds a long-running mode that scans files as they appear in a
// directory.
package recovery
