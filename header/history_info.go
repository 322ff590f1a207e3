package header

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipgrammar/internal/constraints"
	"github.com/ghettovoice/sipgrammar/internal/grammar"
	"github.com/ghettovoice/sipgrammar/internal/ioutil"
	"github.com/ghettovoice/sipgrammar/internal/types"
	"github.com/ghettovoice/sipgrammar/internal/util"
	"github.com/ghettovoice/sipgrammar/param"
	"github.com/ghettovoice/sipgrammar/uri"
)

// ChangeType classifies why a request was retargeted (RFC 7044).
type ChangeType int

const (
	// ChangeUnknown means the reason is not recorded.
	ChangeUnknown ChangeType = iota
	// ChangeRC means the Request-URI changed while the target user stayed the same.
	ChangeRC
	// ChangeMP means the target was mapped to a different user.
	ChangeMP
	// ChangeNP means the Request-URI did not change.
	ChangeNP
)

func (t ChangeType) String() string {
	switch t {
	case ChangeRC:
		return "rc"
	case ChangeMP:
		return "mp"
	case ChangeNP:
		return "np"
	default:
		return "unknown"
	}
}

// History-Info parameters.
var (
	RCParam    = param.FlagDef("rc")
	MPParam    = param.FlagDef("mp")
	NPParam    = param.FlagDef("np")
	IndexParam = param.TokenDef("index")
)

func (t ChangeType) marker() (param.Definition[bool], bool) {
	switch t {
	case ChangeRC:
		return RCParam, true
	case ChangeMP:
		return MPParam, true
	case ChangeNP:
		return NPParam, true
	default:
		return param.Definition[bool]{}, false
	}
}

// changeTypes lists the markers in decoding priority order.
var changeTypes = []ChangeType{ChangeRC, ChangeMP, ChangeNP}

// Entry is a single hop of the retargeting history.
type Entry struct {
	DisplayName string
	URI         uri.URI
	// Index is the hi-index of this entry, e.g. [1 2] for "1.2".
	Index []int
	Type  ChangeType
	// Prev is the hi-index of the entry this one was retargeted from, carried as the marker value.
	Prev []int
	// Params holds the remaining header parameters, markers and index excluded.
	Params param.List
}

// NameAddr encodes the entry: exactly one marker parameter valued with Prev (none for [ChangeUnknown]),
// then index if Index is not empty, then the remaining parameters.
func (e Entry) NameAddr() NameAddr {
	addr := NewNameAddr(e.URI).WithDisplayName(e.DisplayName)

	var ps param.List
	if def, ok := e.Type.marker(); ok {
		var v param.Value = param.Flag{}
		if len(e.Prev) > 0 {
			v = param.Token(formatIndex(e.Prev))
		}
		ps = ps.Append(def.Name(), v)
	}
	if len(e.Index) > 0 {
		ps = ps.Append(IndexParam.Name(), param.Token(formatIndex(e.Index)))
	}
	for _, p := range e.Params.All() {
		ps = ps.Append(p.Name, p.Value)
	}
	return addr.WithParams(ps)
}

// String returns the wire form of the entry.
func (e Entry) String() string { return e.NameAddr().String() }

// Equal compares URIs, indexes, change types and the remaining parameters.
func (e Entry) Equal(val any) bool {
	var other Entry
	switch v := val.(type) {
	case Entry:
		other = v
	case *Entry:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}
	return types.IsEqual(e.URI, other.URI) &&
		slices.Equal(e.Index, other.Index) &&
		e.Type == other.Type &&
		slices.Equal(e.Prev, other.Prev) &&
		e.Params.EqualSet(other.Params)
}

func (e Entry) clone() Entry {
	e.Index = slices.Clone(e.Index)
	e.Prev = slices.Clone(e.Prev)
	return e
}

// decodeEntry reads the change type, index and prev from the header parameters of addr.
func decodeEntry(addr NameAddr) Entry {
	e := Entry{
		DisplayName: addr.DisplayName(),
		URI:         addr.Address(),
		Type:        ChangeUnknown,
	}

	ps := addr.Params()
	for _, t := range changeTypes {
		def, _ := t.marker()
		if !def.Has(ps) {
			continue
		}
		e.Type = t
		v, _ := ps.Get(def.Name())
		e.Prev = parseIndex(param.Text(v))
		break
	}
	if v, ok := IndexParam.Lookup(ps); ok {
		e.Index = parseIndex(string(v))
	}

	for _, p := range ps.All() {
		if isHistoryParam(p.Name) {
			continue
		}
		e.Params = e.Params.Append(p.Name, p.Value)
	}
	return e
}

func isHistoryParam(name string) bool {
	return util.EqFold(name, RCParam.Name()) ||
		util.EqFold(name, MPParam.Name()) ||
		util.EqFold(name, NPParam.Name()) ||
		util.EqFold(name, IndexParam.Name())
}

// parseIndex parses dot-separated non-negative integers.
// Malformed input yields nil.
func parseIndex(s string) []int {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ".")
	idx := make([]int, 0, len(parts))
	for _, p := range parts {
		if p == "" || strings.Trim(p, "0123456789") != "" {
			return nil
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil
		}
		idx = append(idx, n)
	}
	return idx
}

func formatIndex(idx []int) string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	for i, n := range idx {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(strconv.Itoa(n))
	}
	return sb.String()
}

// HistoryInfo is the History-Info header: the ordered retargeting history of a request.
// The last entry is the most recent hop.
//
// HistoryInfo is immutable. Builders return extended copies and leave the receiver intact.
type HistoryInfo struct {
	entries []Entry
}

// EmptyHistoryInfo is the history without entries.
var EmptyHistoryInfo = HistoryInfo{}

// rootIndex is the implicit index of the original request.
var rootIndex = []int{1}

// BuildHistoryInfo decodes already parsed name-addr entries.
// The change type of each entry is taken from the first present marker in the order rc, mp, np.
func BuildHistoryInfo(addrs []NameAddr) HistoryInfo {
	if len(addrs) == 0 {
		return EmptyHistoryInfo
	}
	entries := make([]Entry, len(addrs))
	for i := range addrs {
		entries[i] = decodeEntry(addrs[i])
	}
	return HistoryInfo{entries: entries}
}

// HistoryInfoFromUnknownRequest returns a history with a single entry for u
// without change type, index and prev.
func HistoryInfoFromUnknownRequest(u uri.URI) HistoryInfo {
	return HistoryInfo{entries: []Entry{{URI: u, Type: ChangeUnknown}}}
}

// WithAppended returns a copy of the history extended with a hop to u.
//
// The new entry is retargeted from the last entry: its prev is the index of the last entry,
// or [1] (the original request) when the history is empty or the last entry has no index.
// Its index extends prev with ".1"; the first entry of an empty history gets no index.
func (hdr HistoryInfo) WithAppended(u uri.URI, t ChangeType) HistoryInfo {
	prev := rootIndex
	if last, ok := hdr.Last(); ok && len(last.Index) > 0 {
		prev = last.Index
	}

	e := Entry{URI: u, Type: t, Prev: slices.Clone(prev)}
	if len(hdr.entries) > 0 {
		e.Index = append(slices.Clone(prev), 1)
	}

	entries := make([]Entry, len(hdr.entries), len(hdr.entries)+1)
	copy(entries, hdr.entries)
	return HistoryInfo{entries: append(entries, e)}
}

// WithRetarget appends a hop mapped to a different user ([ChangeMP]).
func (hdr HistoryInfo) WithRetarget(u uri.URI) HistoryInfo { return hdr.WithAppended(u, ChangeMP) }

// WithRecursion appends a hop retargeted to the same user ([ChangeRC]).
func (hdr HistoryInfo) WithRecursion(u uri.URI) HistoryInfo { return hdr.WithAppended(u, ChangeRC) }

// WithNoChange appends a hop with an unchanged target ([ChangeNP]).
func (hdr HistoryInfo) WithNoChange(u uri.URI) HistoryInfo { return hdr.WithAppended(u, ChangeNP) }

// Entries returns a copy of the entries.
func (hdr HistoryInfo) Entries() []Entry {
	if len(hdr.entries) == 0 {
		return nil
	}
	entries := make([]Entry, len(hdr.entries))
	for i := range hdr.entries {
		entries[i] = hdr.entries[i].clone()
	}
	return entries
}

// Last returns the most recent entry.
func (hdr HistoryInfo) Last() (Entry, bool) {
	if len(hdr.entries) == 0 {
		return Entry{}, false
	}
	return hdr.entries[len(hdr.entries)-1].clone(), true
}

// IsEmpty reports whether the history has no entries.
func (hdr HistoryInfo) IsEmpty() bool { return len(hdr.entries) == 0 }

// Len returns the number of entries.
func (hdr HistoryInfo) Len() int { return len(hdr.entries) }

// NameAddrs returns the encoded entries.
func (hdr HistoryInfo) NameAddrs() []NameAddr {
	if len(hdr.entries) == 0 {
		return nil
	}
	addrs := make([]NameAddr, len(hdr.entries))
	for i := range hdr.entries {
		addrs[i] = hdr.entries[i].NameAddr()
	}
	return addrs
}

// CanonicName returns the canonical name of the header.
func (HistoryInfo) CanonicName() Name { return "History-Info" }

// RenderTo writes the full header line "History-Info: value".
func (hdr HistoryInfo) RenderTo(w io.Writer, opts *RenderOptions) (num int, err error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.Fprint(hdr.CanonicName(), ": ")
	cw.Call(func(w io.Writer) (int, error) { return errtrace.Wrap2(hdr.renderValueTo(w, opts)) })
	return errtrace.Wrap2(cw.Result())
}

func (hdr HistoryInfo) renderValueTo(w io.Writer, opts *RenderOptions) (num int, err error) {
	return errtrace.Wrap2(renderHdrEntries(w, hdr.NameAddrs(), opts != nil && opts.Compact))
}

// Render returns the full header line.
func (hdr HistoryInfo) Render(opts *RenderOptions) string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	hdr.RenderTo(sb, opts) //nolint:errcheck
	return sb.String()
}

// RenderValue returns the header value without the name prefix.
func (hdr HistoryInfo) RenderValue() string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	hdr.renderValueTo(sb, nil) //nolint:errcheck
	return sb.String()
}

// String returns the header value, entries joined with ", ".
func (hdr HistoryInfo) String() string { return hdr.RenderValue() }

// Format implements fmt.Formatter for custom formatting of the header.
func (hdr HistoryInfo) Format(f fmt.State, verb rune) {
	switch verb {
	case 's':
		if f.Flag('+') {
			hdr.RenderTo(f, nil) //nolint:errcheck
			return
		}
		fmt.Fprint(f, hdr.String())
		return
	case 'q':
		if f.Flag('+') {
			fmt.Fprint(f, strconv.Quote(hdr.Render(nil)))
			return
		}
		fmt.Fprint(f, strconv.Quote(hdr.String()))
		return
	default:
		type hideMethods HistoryInfo
		type HistoryInfo hideMethods
		fmt.Fprintf(f, fmt.FormatString(f, verb), HistoryInfo(hdr))
		return
	}
}

// Clone returns a copy of the header.
func (hdr HistoryInfo) Clone() Header {
	return HistoryInfo{entries: hdr.Entries()}
}

// Equal compares entries in order.
func (hdr HistoryInfo) Equal(val any) bool {
	var other HistoryInfo
	switch v := val.(type) {
	case HistoryInfo:
		other = v
	case *HistoryInfo:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}
	return slices.EqualFunc(hdr.entries, other.entries, func(e1, e2 Entry) bool { return e1.Equal(e2) })
}

// IsValid checks whether the header has entries and every entry has a valid URI.
func (hdr HistoryInfo) IsValid() bool {
	return len(hdr.entries) > 0 &&
		!slices.ContainsFunc(hdr.entries, func(e Entry) bool { return !types.IsValid(e.URI) })
}

// MarshalText implements [encoding.TextMarshaler].
func (hdr HistoryInfo) MarshalText() ([]byte, error) {
	return []byte(hdr.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
// Empty input yields [EmptyHistoryInfo].
func (hdr *HistoryInfo) UnmarshalText(data []byte) error {
	v, err := ParseHistoryInfo(data)
	if err != nil {
		*hdr = EmptyHistoryInfo
		if errors.Is(err, grammar.ErrEmptyInput) {
			return nil
		}
		return errtrace.Wrap(err)
	}
	*hdr = v
	return nil
}

// ParseHistoryInfo parses a History-Info header value from the given input s (string or []byte).
func ParseHistoryInfo[T constraints.Byteseq](s T) (HistoryInfo, error) {
	return errtrace.Wrap2(ParseHistoryInfoWithOptions(s, nil))
}

// ParseHistoryInfoWithOptions is like [ParseHistoryInfo] but accepts parsing options.
func ParseHistoryInfoWithOptions[T constraints.Byteseq](s T, opts *ParseOptions) (HistoryInfo, error) {
	return errtrace.Wrap2(parse(s, HistoryInfoRule, opts))
}
