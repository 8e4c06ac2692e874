// Package session tracks each user's progress through a label scan.
//
// A session moves through a fixed set of states:
//
//	Idle -> ImageLoaded -> RegionSelected -> TextExtracted -> TextVerified -> ResultsDisplayed
//
// driven by five events (Upload, SelectRegion, Extract, EditText, Search).
// Next holds the transition table. Upload is accepted in every state and
// discards the previous image, crop box, text and results. Selecting a new
// region or changing the text discards stale lookup results.
//
// Store keeps sessions in memory keyed by a random UUID and evicts those
// left untouched longer than a TTL.
package session
