package tallbag

import "strconv"

// Kind tags a message. 0..2 are defined; every other value is reserved.
type Kind uint8

const (
	KindStart Kind = iota
	KindData
	KindEnd
	KindReserved3
	KindReserved4
	KindReserved5
	KindReserved6
	KindReserved7
	KindReserved8
	KindReserved9
)

// MaxKind is the highest kind value allocated by this protocol version.
const MaxKind = KindReserved9

// Defined reports whether k has meaning in this protocol version.
func (k Kind) Defined() bool {
	return k <= KindEnd
}

// Reserved reports whether k is an extension kind. Numeric kinds above
// MaxKind are reserved too; they are never errors.
func (k Kind) Reserved() bool {
	return k > KindEnd
}

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindData:
		return "data"
	case KindEnd:
		return "end"
	}
	if k <= MaxKind {
		return "reserved" + strconv.Itoa(int(k))
	}
	return "reserved(" + strconv.Itoa(int(k)) + ")"
}
