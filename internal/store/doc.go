// Package store provides SQLite-backed storage for the meme library.
//
// The store owns four tables:
//   - table_version: singleton schema version row (id = 1)
//   - meme: asset records with metadata and fav/trash flags
//   - tag: namespaced labels, UNIQUE(namespace, value)
//   - meme_tag: many-to-many edges between memes and tags
//
// # Schema Versioning
//
// Migrate brings a store to currentSchemaVersion inside one transaction.
// Fresh stores run schema/create_database.sql. Existing stores run every
// upgrade step from their stored version up, in order. A store written by a
// newer build is refused untouched.
//
// # Deterministic Query Results
//
//   - Meme listings are ordered by update_time DESC, id DESC
//   - Tag listings are ordered by namespace, value
//   - Timestamps are fixed-width UTC text from the store's clock, so text
//     order is time order
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Edges cascade when a tag row is deleted
//
// Content digests stored in meme rows refer to blobs in the content package.
// The store does not check that those blobs exist.
package store
