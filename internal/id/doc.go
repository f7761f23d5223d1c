// Package id provides identifier generation for netmock.
//
// Endpoints get random UUIDs so two registrations of the same method and
// pattern remain distinguishable in call history and request logs. Request
// log entries get time-ordered UUIDv7 values so they sort by arrival.
package id
