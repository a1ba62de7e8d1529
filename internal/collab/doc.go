// Package collab bridges a plain-text editing surface and a shared character
// sequence.
//
// The surface only reports "the text is now X and the caret is at N"; it never
// says what kind of edit happened. An Inferencer reconstructs a single
// EditOperation from the previous text, the selection captured before the
// change and the caret reported after it. The Applier forwards that operation
// to the shared sequence, which is the only path local edits take into the
// shared model. When the sequence reports a change, Reconcile moves the stored
// selection through the change's position transform so remote edits do not
// drag the local caret to the wrong place.
//
// Binding ties the three together for one open document view. It owns the
// last applied text and the captured selection as a single value and holds at
// most one change subscription between Activate and Deactivate.
package collab
