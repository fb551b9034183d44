package transport

// Operation identifies one device API call.
type Operation uint8

const (
	// OpNone is the zero value and identifies no operation.
	OpNone Operation = 0
	// OpClear is DELETE /api/buffers.
	OpClear Operation = 1
	// OpUpload is POST /api/buffers.
	OpUpload Operation = 2
	// OpShow is POST /api/show/image.
	OpShow Operation = 3
)

// String returns the operation name.
func (o Operation) String() string {
	switch o {
	case OpNone:
		return "NONE"
	case OpClear:
		return "CLEAR"
	case OpUpload:
		return "UPLOAD"
	case OpShow:
		return "SHOW"
	default:
		return "UNKNOWN"
	}
}

// ParseOperation returns the operation with the given name (case-sensitive,
// as returned by String).
func ParseOperation(name string) (Operation, bool) {
	for _, op := range []Operation{OpClear, OpUpload, OpShow} {
		if op.String() == name {
			return op, true
		}
	}
	return OpNone, false
}

// Device API paths and content types.
const (
	PathBuffers = "/api/buffers"
	PathShow    = "/api/show/image"
	PathStatus  = "/api/status"

	// ContentTypeBinary is the content type the device expects on uploads.
	ContentTypeBinary = "data/binary"
	ContentTypeJSON   = "application/json"
)

// ShowRequest is the body of a show request.
type ShowRequest struct {
	// Delay is the per-frame display time in milliseconds.
	Delay int64 `json:"delay"`
}
