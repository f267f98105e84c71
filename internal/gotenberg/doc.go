// Package gotenberg is a typed client for the Gotenberg document conversion API.
//
// Every conversion is a multipart/form-data POST. Options builders collect the
// form fields, input files ("files" parts) and attachments ("embeds" parts) for
// a route; the Client clones them before adding the parts a call implies, so an
// options value can be reused across calls.
//
// Reference: https://gotenberg.dev/docs/routes
package gotenberg
