package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Tree ordering
// ---------------------------------------------------------------------------

// CompareTreeNames orders tree entry names as raw bytes with a virtual 0xFF
// byte appended to each. A name that is a strict prefix of another therefore
// sorts after it: "foo.c" < "foo".
func CompareTreeNames(a, b string) int {
	n := min(len(a), len(b))
	if c := strings.Compare(a[:n], b[:n]); c != 0 {
		return c
	}
	switch {
	case len(a) == len(b):
		return 0
	case len(a) < len(b):
		// a's terminator (0xFF) meets b[n].
		if b[n] == 0xff {
			return -1
		}
		return 1
	default:
		if a[n] == 0xff {
			return 1
		}
		return -1
	}
}

// SortTreeEntries sorts entries in place into canonical tree order.
func SortTreeEntries(entries []TreeEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return CompareTreeNames(entries[i].Name, entries[j].Name) < 0
	})
}

// IsSorted reports whether the entries are in canonical order with no
// duplicate names.
func (t *TreeObj) IsSorted() bool {
	for i := 1; i < len(t.Entries); i++ {
		if CompareTreeNames(t.Entries[i-1].Name, t.Entries[i].Name) >= 0 {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// TreeObj
// ---------------------------------------------------------------------------

// MarshalTree serializes a TreeObj. Entries are written in canonical order,
// each as
//
//	<mode> <name>\0<20 raw hash bytes>
//
// with nothing between entries.
func MarshalTree(tr *TreeObj) []byte {
	sorted := make([]TreeEntry, len(tr.Entries))
	copy(sorted, tr.Entries)
	SortTreeEntries(sorted)

	var buf bytes.Buffer
	for _, e := range sorted {
		buf.WriteString(e.Mode)
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(e.Hash[:])
	}
	return buf.Bytes()
}

// UnmarshalTree parses a tree payload. Entry order is preserved as found;
// use IsSorted to check canonical order.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	tr := &TreeObj{}
	for len(data) > 0 {
		sp := bytes.IndexByte(data, ' ')
		if sp <= 0 {
			return nil, fmt.Errorf("%w: tree entry %d: missing mode", ErrInvalidFormat, len(tr.Entries))
		}
		mode := string(data[:sp])
		if !isOctal(mode) {
			return nil, fmt.Errorf("%w: tree entry %d: invalid mode %q", ErrInvalidFormat, len(tr.Entries), mode)
		}
		data = data[sp+1:]

		nul := bytes.IndexByte(data, 0)
		if nul <= 0 {
			return nil, fmt.Errorf("%w: tree entry %d: missing name", ErrInvalidFormat, len(tr.Entries))
		}
		name := string(data[:nul])
		data = data[nul+1:]

		if len(data) < HashSize {
			return nil, fmt.Errorf("%w: tree entry %q: short hash", ErrInvalidFormat, name)
		}
		var h Hash
		copy(h[:], data[:HashSize])
		data = data[HashSize:]

		tr.Entries = append(tr.Entries, TreeEntry{Mode: mode, Name: name, Hash: h})
	}
	return tr, nil
}

func isOctal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '7' {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// CommitObj
// ---------------------------------------------------------------------------

// MarshalCommit serializes a CommitObj:
//
//	tree H
//	parent H      (zero or more)
//	author A <unix> <tz>
//	committer C <unix> <tz>
//	gpgsig S      (optional)
//
//	message
//
// The message is written verbatim.
func MarshalCommit(c *CommitObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.TreeHash)
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", p)
	}
	fmt.Fprintf(&buf, "author %s\n", FormatSignature(c.Author))
	fmt.Fprintf(&buf, "committer %s\n", FormatSignature(c.Committer))
	if sig := strings.TrimSpace(c.Signature); sig != "" {
		// Continuation lines are indented by one space, as git does.
		fmt.Fprintf(&buf, "gpgsig %s\n", strings.ReplaceAll(sig, "\n", "\n "))
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// UnmarshalCommit parses a CommitObj from its serialized form.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("%w: commit: missing header/message separator", ErrInvalidFormat)
	}
	header := string(data[:idx])
	c := &CommitObj{Message: string(data[idx+2:])}

	var lastKey string
	for _, line := range strings.Split(header, "\n") {
		if strings.HasPrefix(line, " ") {
			if lastKey == "gpgsig" {
				c.Signature += "\n" + line[1:]
			}
			continue
		}
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("%w: commit: malformed header line %q", ErrInvalidFormat, line)
		}
		lastKey = key
		switch key {
		case "tree":
			h, err := ParseHash(val)
			if err != nil {
				return nil, fmt.Errorf("%w: commit tree: %v", ErrInvalidFormat, err)
			}
			c.TreeHash = h
		case "parent":
			h, err := ParseHash(val)
			if err != nil {
				return nil, fmt.Errorf("%w: commit parent: %v", ErrInvalidFormat, err)
			}
			c.Parents = append(c.Parents, h)
		case "author":
			sig, err := ParseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("commit author: %w", err)
			}
			c.Author = sig
		case "committer":
			sig, err := ParseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("commit committer: %w", err)
			}
			c.Committer = sig
		case "gpgsig":
			c.Signature = val
		default:
			// Headers such as "encoding" carry nothing this store interprets.
		}
	}
	if c.TreeHash.IsZero() {
		return nil, fmt.Errorf("%w: commit: missing tree", ErrInvalidFormat)
	}
	return c, nil
}

// FormatSignature renders "identity <unix-seconds> <+hhmm>".
func FormatSignature(s Signature) string {
	return fmt.Sprintf("%s %d %s", s.Identity, s.When.Unix(), s.When.Format("-0700"))
}

// ParseSignature parses the value of an author or committer header.
func ParseSignature(v string) (Signature, error) {
	tzIdx := strings.LastIndexByte(v, ' ')
	if tzIdx < 0 {
		return Signature{}, fmt.Errorf("%w: signature %q: missing timezone", ErrInvalidFormat, v)
	}
	tsIdx := strings.LastIndexByte(v[:tzIdx], ' ')
	if tsIdx < 0 {
		return Signature{}, fmt.Errorf("%w: signature %q: missing timestamp", ErrInvalidFormat, v)
	}

	ts, err := strconv.ParseInt(v[tsIdx+1:tzIdx], 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: signature %q: bad timestamp: %v", ErrInvalidFormat, v, err)
	}
	loc, err := parseTimezone(v[tzIdx+1:])
	if err != nil {
		return Signature{}, fmt.Errorf("%w: signature %q: %v", ErrInvalidFormat, v, err)
	}
	return Signature{
		Identity: v[:tsIdx],
		When:     time.Unix(ts, 0).In(loc),
	}, nil
}

func parseTimezone(tz string) (*time.Location, error) {
	if len(tz) != 5 || (tz[0] != '+' && tz[0] != '-') || !isDecimal(tz[1:]) {
		return nil, fmt.Errorf("bad timezone %q", tz)
	}
	hours, _ := strconv.Atoi(tz[1:3])
	minutes, _ := strconv.Atoi(tz[3:5])
	offset := hours*3600 + minutes*60
	if tz[0] == '-' {
		offset = -offset
	}
	return time.FixedZone(tz, offset), nil
}
