// Package refresh coordinates credential refreshes.
//
// A Coordinator is either Idle or Refreshing. The first caller that asks for
// a refresh while Idle records a new flight and starts the underlying
// refresh; every caller that arrives while the flight is recorded attaches to
// it and receives the same Outcome. The flight is cleared before its outcome
// is published, so a caller that asks again after observing an outcome always
// starts a new epoch.
package refresh
