// Package suggest encodes the differences between an original and a revised text as inline suggestion markup, and resolves that markup back to plain text.
//
// Annotated text is ordinary text with marked runs. With DefaultMarkers, additions are written ==like this== (a markdown highlight) and removals ~~like this~~
// (a markdown strikethrough). A marked run is a Region; regions never nest or overlap.
//
// Encoding path:
//
//	edits := diff.DiffWords(original, revised)
//	edits = suggest.Normalize(edits, suggest.NormalizeOptions{})
//	annotated := suggest.Encode(edits, suggest.EncodeOptions{Markers: suggest.DefaultMarkers()})
//
// Resolution path: Scan finds regions, ResolveOne and ResolveAll apply a Policy (Accept or Reject), and Step finds and resolves the next region relative to a cursor.
//
// Everything in this package is a pure function of its inputs. Regions are never cached: after the text changes, callers rescan.
package suggest
