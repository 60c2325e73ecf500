// Package task executes single content modifications.
//
// A Task is bound to one content item and runs in three phases: IsRelevant
// checks the modification condition, Prepare backs up the current content and
// compares its hash with what the modification expects, and Execute installs
// the new content and records the rollback entry that reverses it.
//
// The six kinds of task share this template and differ only in how they back
// up, apply and reverse content. New selects the kind once from the content
// type and the modification.
package task
