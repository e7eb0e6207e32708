package core

// CommandType enumerates every inbound wire command. The set is closed:
// dispatch is an explicit switch and unknown types are logged and dropped.
type CommandType string

const (
	CmdSetup        CommandType = "setup"
	CmdJoinChat     CommandType = "join chat"
	CmdLeaveChat    CommandType = "leave chat"
	CmdInitiateCall CommandType = "initiate-call"
	CmdAcceptCall   CommandType = "accept-call"
	CmdRejectCall   CommandType = "reject-call"
	CmdOffer        CommandType = "offer"
	CmdAnswer       CommandType = "answer"
	CmdICECandidate CommandType = "ice-candidate"
	CmdEndCall      CommandType = "end-call"
	CmdNewMessage   CommandType = "new message"
	CmdTyping       CommandType = "typing"
	CmdStopTyping   CommandType = "stop typing"
)
