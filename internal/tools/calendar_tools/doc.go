// Package calendar_tools defines the caller-visible Calendar tools and their
// capability bindings to the Calendar adapter.
package calendar_tools
