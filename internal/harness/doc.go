// Package harness runs end-to-end scenarios against a meme store.
//
// A scenario seeds memes, performs a sequence of steps (searches and
// mutations) and checks the results. Scenarios are written in YAML:
//
//	name: artist_and_text
//	description: "tag filters combine with free text"
//	memes:
//	  - key: m1
//	    summary: "a cat"
//	    tags: [artist:alice]
//	  - key: m2
//	    summary: "a dog"
//	    tags: [artist:alice]
//	  - key: bulk
//	    summary: "filler"
//	    repeat: 35
//	steps:
//	  - action: search
//	    query: "artist:alice cat"
//	    expect:
//	      memes: [m1]
//	  - action: trash
//	    meme: m1
//	assertions:
//	  - type: meme_state
//	    meme: m1
//	    trash: true
//
// A fixture with repeat: N expands into N memes keyed <key>01..<key>N.
//
// # Step Actions
//
//   - search: one page of results; expect.memes is the exact key order
//   - count: total matches across pages; expect.count
//   - touch, fav, unfav, trash, restore: mutate one meme
//   - tag, untag: link or unlink tags (untag honors reclaim)
//   - edit: replace the summary
//   - sweep: delete orphan tags; expect.count is the number removed
//
// Any step may set expect.error to a liberr code (NOT_FOUND, QUERY_SYNTAX)
// to require that failure.
//
// # Assertion Types
//
//   - meme_state: fav, trash and summary of one meme
//   - meme_tags: exact tag list of one meme
//   - tag_exists: whether a tag row exists
//   - trace_count: how many steps ran a given action
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory database with a
// deterministic clock stepping one second per timestamp, so update_time
// ordering follows fixture and step order exactly. Step traces are compared
// against golden files with RunWithGolden.
package harness
