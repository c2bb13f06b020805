// Package api is the single chokepoint for calls to the CMS backend.
//
// A Dispatcher attaches the stored bearer credential, and when a call comes
// back 401 it asks the refresh coordinator for a new credential and reissues
// the same request once. Paths under the auth prefix are never retried. A
// call therefore costs at most two network requests.
//
// Failed responses are turned into *apierror.Error by DecodeJSON.
package api
