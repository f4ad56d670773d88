// Package mmfile maps script files into memory for parsing.
//
// On unix systems the file is mapped read-only with golang.org/x/sys/unix;
// elsewhere it is read into a heap buffer.
package mmfile
