// Command photodup finds duplicate photos by filename convention and serves
// a side-by-side review UI for cleaning them up.
package main
