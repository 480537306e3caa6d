// Package ptrregistry implements an insertion-ordered, deduplicated
// collection of handles to objects of one type T. Each slot stores either a
// strong (*T, keeping the referent reachable) or weak (weak.Pointer[T])
// handle, switchable after the fact.
//
// Keys, once assigned to a slot, never change; strong slots never expire;
// Size counts expired slots, since identity lookups by key must keep
// working for entries inserted before they expired.
package ptrregistry
