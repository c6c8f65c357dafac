// Package dedupe prevents duplicate processing of redelivered webhook
// activities using a time-and-size-bounded cache of activity IDs.
package dedupe
