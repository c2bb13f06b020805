// Package cli provides the interactive admin client for the CMS API.
//
// The App drives the authenticated dispatcher: login and logout through the
// auth service, raw JSON calls against any path, image uploads through the
// configured media backend and a gRPC health probe. Every failure is printed
// as the normalized summary followed by one line per field error.
//
// The REPL is started with App.Run, which blocks until the user exits.
package cli
