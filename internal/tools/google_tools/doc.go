// Package google_tools registers the credential helper tools used to
// complete the out-of-band OAuth consent flow.
package google_tools
