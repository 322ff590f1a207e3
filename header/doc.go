// Package header provides the name-addr construct and the History-Info header (RFC 7044).
//
// # NameAddr
//
// [NameAddr] is an address with an optional display name and header parameters:
//
//	addr, err := header.ParseNameAddr(`"Bob" <sip:bob@biloxi.com>;tag=a6c85cf`)
//	tag, _ := addr.Tag() // "a6c85cf"
//
// The bare addr-spec form is accepted too; parameters following a bare SIP URI
// belong to the NameAddr, not to the URI.
//
// # History-Info
//
// [HistoryInfo] is the ordered retargeting history of a request. Each [Entry] records
// the target URI, its hi-index, the [ChangeType] and the index of the entry it was
// retargeted from. On the wire the change type is one of the rc, mp or np marker
// parameters valued with the previous index:
//
//	History-Info: <sip:bob@biloxi.com>;index=1, <sip:bob@192.0.2.4>;rc=1;index=1.1
//
// Histories are immutable and grow by copy:
//
//	hi := header.EmptyHistoryInfo.WithRetarget(u)
//	hi2 := hi.WithRecursion(u2) // hi still has one entry
//
// Use [ParseHistoryInfo] to decode a header value and [HistoryInfo.String] to encode it.
package header
