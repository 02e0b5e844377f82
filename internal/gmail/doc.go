// Package gmail provides a thin client over the Gmail API for listing,
// searching, reading, and sending mail.
//
// All operations take a context and classify API failures into the gateway
// error taxonomy. Listing operations page through results transparently and
// report whether more matches exist beyond the requested limit.
package gmail
