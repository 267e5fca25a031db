package wc

// These descriptor types are the raw, persisted shape of a conflict as
// the store records it (spec.md §3.6). internal/conflict builds its
// richer Conflict/Option model on top of them; wc itself has no opinion
// about resolution options, only about what is stored.

// TextConflictDescriptor mirrors spec.md §3.6 TextConflict.
type TextConflictDescriptor struct {
	MimeType        string
	BasePath        string
	WorkingPath     string
	IncomingOldPath string
	IncomingNewPath string
}

// PropConflictDescriptor mirrors spec.md §3.6 PropConflict, for one
// property name.
type PropConflictDescriptor struct {
	BaseValue        []byte
	HasBase          bool
	WorkingValue     []byte
	HasWorking       bool
	IncomingOldValue []byte
	HasIncomingOld   bool
	IncomingNewValue []byte
	HasIncomingNew   bool
	RejectPath       string
}

// Operation names the remote operation that produced a tree conflict
// (spec.md §3.6).
type Operation int

const (
	OperationNone Operation = iota
	OperationUpdate
	OperationSwitch
	OperationMerge
)

func (o Operation) String() string {
	switch o {
	case OperationUpdate:
		return "update"
	case OperationSwitch:
		return "switch"
	case OperationMerge:
		return "merge"
	default:
		return "none"
	}
}

// IncomingChange names what the remote side did to the conflicted node.
type IncomingChange int

const (
	IncomingNone IncomingChange = iota
	IncomingEdit
	IncomingAdd
	IncomingDelete
	IncomingReplace
)

// LocalChange names what the local side did to the conflicted node.
type LocalChange int

const (
	LocalNone LocalChange = iota
	LocalEdited
	LocalAdded
	LocalDeleted
	LocalReplaced
	LocalMissing
	LocalObstructed
	LocalUnversioned
	LocalMovedAway
	LocalMovedHere
)

// TreeConflictDescriptor mirrors spec.md §3.6 TreeConflict.
type TreeConflictDescriptor struct {
	Operation      Operation
	IncomingChange IncomingChange
	LocalChange    LocalChange
	VictimKind     string // "file" | "dir" | "unknown"

	// LeftRelpath/LeftRev and RightRelpath/RightRev locate the two sides
	// of the conflict in repository terms, when known; used by the
	// details-fetcher (spec.md §4.3.4).
	LeftRelpath  string
	LeftRev      int64
	RightRelpath string
	RightRev     int64
}
