package workflow

// The status vocabularies below are closed sets. Their string values are
// persisted and appear on the wire, so they must not be renamed.

type PitchStatus string

const (
	PitchPending  PitchStatus = "PENDING"
	PitchApproved PitchStatus = "APPROVED"
	PitchDeclined PitchStatus = "DECLINED"
)

func (s PitchStatus) Valid() bool {
	switch s {
	case PitchPending, PitchApproved, PitchDeclined:
		return true
	}
	return false
}

type AssignmentStatus string

const (
	AssignmentNone       AssignmentStatus = "NONE"
	AssignmentUnclaimed  AssignmentStatus = "UNCLAIMED"
	AssignmentInProgress AssignmentStatus = "IN_PROGRESS"
	AssignmentCompleted  AssignmentStatus = "COMPLETED"
	AssignmentAbandoned  AssignmentStatus = "ABANDONED"
)

func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentNone, AssignmentUnclaimed, AssignmentInProgress, AssignmentCompleted, AssignmentAbandoned:
		return true
	}
	return false
}

type EditStatus string

const (
	EditWriterNeeded   EditStatus = "Writer Needed"
	EditFirstNeeded    EditStatus = "1st Needed"
	EditFirstIP        EditStatus = "1st In Progress"
	EditSecondsNeeded  EditStatus = "2nds Needed"
	EditSecondsIP      EditStatus = "2nds In Progress"
	EditFactCheckIP    EditStatus = "Fact-Checking In Progress"
	EditThirdsNeeded   EditStatus = "3rds Needed"
	EditThirdsIP       EditStatus = "3rds In Progress"
	EditReadyToPublish EditStatus = "Ready to Publish"
	EditDropped        EditStatus = "Dropped"
	EditTranslationIP  EditStatus = "Translation In Progress"
)

func (s EditStatus) Valid() bool {
	switch s {
	case EditWriterNeeded, EditFirstNeeded, EditFirstIP, EditSecondsNeeded, EditSecondsIP,
		EditFactCheckIP, EditThirdsNeeded, EditThirdsIP, EditReadyToPublish, EditDropped, EditTranslationIP:
		return true
	}
	return false
}

type FactCheckingStatus string

const (
	FactCheckNeeded        FactCheckingStatus = "Needs FC"
	FactCheckInProgress    FactCheckingStatus = "FC In Progress"
	FactCheckDone          FactCheckingStatus = "FC Done"
	FactCheckNotIntegrated FactCheckingStatus = "Not Integrated"
	FactCheckIntegrated    FactCheckingStatus = "FC Integrated"
)

func (s FactCheckingStatus) Valid() bool {
	switch s {
	case FactCheckNeeded, FactCheckInProgress, FactCheckDone, FactCheckNotIntegrated, FactCheckIntegrated:
		return true
	}
	return false
}

type VisualStatus string

const (
	VisualUnassigned   VisualStatus = "Unassigned"
	VisualInProgress   VisualStatus = "In Progress"
	VisualReuse        VisualStatus = "Re-use Illustration"
	VisualUncertain    VisualStatus = "Uncertain"
	VisualInDrive      VisualStatus = "In Drive"
)

func (s VisualStatus) Valid() bool {
	switch s {
	case VisualUnassigned, VisualInProgress, VisualReuse, VisualUncertain, VisualInDrive:
		return true
	}
	return false
}

type LayoutStatus string

const (
	LayoutInProgress   LayoutStatus = "In Progress"
	LayoutDrafted      LayoutStatus = "Layout Drafted"
	LayoutCopyPlaced   LayoutStatus = "Copy Placed"
	LayoutBoardPrinted LayoutStatus = "Board Printed"
	LayoutFinalized    LayoutStatus = "Finalized"
)

func (s LayoutStatus) Valid() bool {
	switch s {
	case LayoutInProgress, LayoutDrafted, LayoutCopyPlaced, LayoutBoardPrinted, LayoutFinalized:
		return true
	}
	return false
}

// IssueStatus tracks a single pitch's standing within one issue. MAYBE_IN,
// DEFINITELY_IN and READY_TO_PUBLISH form the main path; COMING_LATE and PUSH
// are schedule-slip states reachable from any of the three. Transitions are
// not enforced.
type IssueStatus string

const (
	IssueMaybeIn        IssueStatus = "MAYBE_IN"
	IssueDefinitelyIn   IssueStatus = "DEFINITELY_IN"
	IssueReadyToPublish IssueStatus = "READY_TO_PUBLISH"
	IssueComingLate     IssueStatus = "COMING_LATE"
	IssuePush           IssueStatus = "PUSH"
)

func (s IssueStatus) Valid() bool {
	switch s {
	case IssueMaybeIn, IssueDefinitelyIn, IssueReadyToPublish, IssueComingLate, IssuePush:
		return true
	}
	return false
}

type IssueType string

const (
	IssuePrint  IssueType = "PRINT"
	IssueOnline IssueType = "ONLINE"
)

func (t IssueType) Valid() bool {
	return t == IssuePrint || t == IssueOnline
}

type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "PENDING"
	ClaimApproved ClaimStatus = "APPROVED"
	ClaimDeclined ClaimStatus = "DECLINED"
)

func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimPending, ClaimApproved, ClaimDeclined:
		return true
	}
	return false
}
