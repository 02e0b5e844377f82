// Package calendar provides a thin client over the Google Calendar API for
// searching upcoming events and creating new ones on the primary calendar.
//
// Search expands recurring events into single instances and orders them by
// start time. The API reports no total match count, so listings carry a
// has-more signal instead.
package calendar
