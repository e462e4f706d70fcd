// Package sanitizer turns vendor-supplied menu text into plain text with
// bluemonday's strict policy before it reaches an email template.
package sanitizer
