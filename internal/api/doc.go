// Package api defines the JSON wire representations served over HTTP and
// the converters from internal index records to those shapes.
package api
