// Package queue defines the scheduled item model shared by the engine,
// the slot calendar and the storage drivers.
//
// An item is created Pending with a fixed publish instant. The instant never
// changes after creation: rescheduling replaces the item under a new ID so
// that audit entries keep pointing at the original schedule.
package queue
