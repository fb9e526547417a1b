package dataset

// Kind is the storage type of a column or a raw cell.
type Kind int

const (
	// KindUnknown marks a missing raw cell, or "infer" when used as a column hint.
	KindUnknown Kind = iota
	KindString
	KindNumeric
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumeric:
		return "numeric"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}
