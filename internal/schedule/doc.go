// Package schedule implements adaptive background loops.
//
// A loop repeatedly fetches the time until an upcoming event, reacts to it,
// and then sleeps for a duration chosen from a threshold ladder: the closer
// the event, the shorter the sleep, down to a hard floor. All sleeps are
// cancellable through the loop's context.
package schedule
