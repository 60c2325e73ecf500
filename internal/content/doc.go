// Package content models what a patch modifies.
//
// A content item identifies a patchable unit of an installation: a misc file or
// directory, a module, or a bundle. Items carry the hash of their content, with
// an empty hash standing for absent content. A modification pairs an item with
// the hash expected on disk before it is applied, and an entry tags a
// modification with the patch that produced it.
//
// Key concepts:
//   - Item: immutable descriptor of a modification target
//   - Modification: add/remove/modify of an item, guarded by an optional condition
//   - Location: identity of an item across patches (type, name, path)
//   - Filter: predicate selecting the items an operation touches
//   - Loader: source of new content for items
package content
