// Package devsetup prepares a freshly cloned project for local development.
package devsetup

// Version is the devsetup release version.
const Version = "0.3.0"
