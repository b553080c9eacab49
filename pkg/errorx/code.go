package errorx

type Code int

var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest       Code = 100001
	BadResponse      Code = 100002
	PermissionDenied Code = 100003
	NotFound         Code = 100004
	Unauthenticated  Code = 100005
	AlreadyExists    Code = 100006
	Internal         Code = 100007
	Unavailable      Code = 100008
	NotImplemented   Code = 100009
	TooManyRequests  Code = 100010

	// Poll codes
	PollClosed    Code = 200001
	InvalidOption Code = 200002
	AlreadyVoted  Code = 200003

	// Contest codes
	InvalidContestState       Code = 300001
	AlreadyEnrolled           Code = 300002
	InsufficientFunds         Code = 300003
	AlreadyDisbursed          Code = 300004
	IncompletePayoutStructure Code = 300005
)
