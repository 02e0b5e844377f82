// Package gmail_tools defines the caller-visible Gmail tools and their
// capability bindings to the Gmail adapter.
package gmail_tools
